package main

import (
	"io/fs"
	"time"

	"github.com/fxamacker/cbor/v2"
)

// fileMeta is the per-entry metadata solid pack stores: enough to
// restore a file's attributes and to undo the content encoding.
type fileMeta struct {
	Mode     uint32 `cbor:"mode"`
	ModTime  int64  `cbor:"mtime"` // Unix nanoseconds
	Size     int64  `cbor:"size"`  // bytes before encoding
	Encoding string `cbor:"encoding,omitempty"`
}

// encMode uses Core Deterministic Encoding (RFC 8949 §4.2), so the same
// attributes always produce the same bytes and rebuilt archives compare
// equal.
var encMode cbor.EncMode

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("solid: CBOR encoder initialization failed: " + err.Error())
	}
}

func newFileMeta(info fs.FileInfo, encoding string) fileMeta {
	return fileMeta{
		Mode:     uint32(info.Mode()),
		ModTime:  info.ModTime().UnixNano(),
		Size:     info.Size(),
		Encoding: encoding,
	}
}

func (m fileMeta) marshal() ([]byte, error) {
	return encMode.Marshal(m)
}

// decodeFileMeta decodes entry metadata. Entries written by other tools
// may carry no metadata or something else entirely; ok is false then.
func decodeFileMeta(data []byte) (fileMeta, bool) {
	var m fileMeta
	if len(data) == 0 {
		return m, false
	}
	if err := cbor.Unmarshal(data, &m); err != nil {
		return fileMeta{}, false
	}
	return m, true
}

func (m fileMeta) modTime() time.Time {
	return time.Unix(0, m.ModTime)
}
