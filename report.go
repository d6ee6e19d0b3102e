// Build reports and archive summaries.
package solid

import (
	"fmt"

	json "github.com/goccy/go-json"
)

// Report describes a completed (or failed) Build.
type Report struct {
	Success       bool   `json:"success"`
	Entries       int    `json:"entries"`        // entries whose content was written
	MetadataBytes int64  `json:"metadata_bytes"` // everything before the content region
	ContentBytes  int64  `json:"content_bytes"`  // sum of entry content lengths
	UniqueTags    int    `json:"unique_tags"`
	IndexOffset   int64  `json:"index_offset"`
	Algorithm     string `json:"algorithm"`
	Digest        string `json:"digest,omitempty"` // digest of the content region
}

// TotalBytes is the size of the archive written.
func (r *Report) TotalBytes() int64 {
	return r.MetadataBytes + r.ContentBytes
}

// JSON encodes the report.
func (r *Report) JSON() ([]byte, error) {
	return json.Marshal(r)
}

func (r *Report) String() string {
	status := "ok"
	if !r.Success {
		status = "failed"
	}
	return fmt.Sprintf("build %s: %d entries, %d tags, %d index bytes, %d content bytes",
		status, r.Entries, r.UniqueTags, r.MetadataBytes, r.ContentBytes)
}

// Summary is the machine-readable form of Describe.
type Summary struct {
	Mutable        bool  `json:"mutable"`
	Version        int32 `json:"version"`
	Entries        int   `json:"entries"`
	Tags           int   `json:"tags"`
	IndexOffset    int64 `json:"index_offset"` // -1 while building
	GlobalMetadata int   `json:"global_metadata_bytes"`
	ContentBytes   int64 `json:"content_bytes"`
}

// JSON encodes the summary.
func (s Summary) JSON() ([]byte, error) {
	return json.Marshal(s)
}

// Summary reports the archive's version, counts and index offset.
func (a *Archive) Summary() (Summary, error) {
	if err := a.live(); err != nil {
		return Summary{}, err
	}
	off, _ := a.IndexOffset()
	s := Summary{
		Mutable:        a.Mutable(),
		Version:        a.version,
		Entries:        a.index.len(),
		Tags:           a.tags.len(),
		IndexOffset:    off,
		GlobalMetadata: len(a.global),
	}
	for m := range a.index.each {
		s.ContentBytes += int64(m.ContentLength)
	}
	return s, nil
}

// Describe returns a one-line human-readable summary. It is diagnostic
// only and never fails: unlike the other queries it does not report
// ErrClosed after Close, it returns "solid archive (closed)" instead.
func (a *Archive) Describe() string {
	s, err := a.Summary()
	if err != nil {
		return "solid archive (closed)"
	}
	if s.Mutable {
		return fmt.Sprintf("solid archive v%d (building): %d entries, %d tags, %d content bytes",
			s.Version, s.Entries, s.Tags, s.ContentBytes)
	}
	return fmt.Sprintf("solid archive v%d: %d entries, %d tags, index offset %d, %d content bytes",
		s.Version, s.Entries, s.Tags, s.IndexOffset, s.ContentBytes)
}
