package solid

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	json "github.com/goccy/go-json"
)

func TestReportJSON(t *testing.T) {
	var buf bytes.Buffer
	report, err := scenario(t).Build(&buf)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	data, err := report.JSON()
	if err != nil {
		t.Fatalf("JSON: %v", err)
	}

	var got map[string]any
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	for key, want := range map[string]float64{
		"entries":        2,
		"unique_tags":    3,
		"metadata_bytes": 117,
		"content_bytes":  11,
		"index_offset":   117,
	} {
		if got[key] != want {
			t.Errorf("%s = %v, want %v", key, got[key], want)
		}
	}
	if got["success"] != true {
		t.Errorf("success = %v", got["success"])
	}
}

func TestReportString(t *testing.T) {
	r := &Report{Success: true, Entries: 2, UniqueTags: 3, MetadataBytes: 117, ContentBytes: 11}
	if got := r.String(); !strings.HasPrefix(got, "build ok: 2 entries, 3 tags") {
		t.Errorf("String = %q", got)
	}
	r.Success = false
	if got := r.String(); !strings.HasPrefix(got, "build failed") {
		t.Errorf("String = %q", got)
	}
}

func TestSummaryJSON(t *testing.T) {
	b, _, _ := reopen(t, scenario(t))
	s, err := b.Summary()
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	want := Summary{Version: 1, Entries: 2, Tags: 3, IndexOffset: 117, GlobalMetadata: 2, ContentBytes: 11}
	if s != want {
		t.Errorf("Summary = %+v, want %+v", s, want)
	}
	data, _ := s.JSON()
	var back Summary
	if err := json.Unmarshal(data, &back); err != nil || back != s {
		t.Errorf("JSON round trip = %+v, %v", back, err)
	}
}

// shortWriter accepts limit bytes and then fails.
type shortWriter struct {
	limit int
	n     int
}

func (w *shortWriter) Write(p []byte) (int, error) {
	if w.n+len(p) > w.limit {
		k := w.limit - w.n
		w.n = w.limit
		return k, errors.New("disk full")
	}
	w.n += len(p)
	return len(p), nil
}

// TestBuildFailureReport verifies that a failed build returns an
// unsuccessful report alongside an ErrIO.
func TestBuildFailureReport(t *testing.T) {
	a := scenario(t)
	a.config.WriteBuffer = 16
	report, err := a.Build(&shortWriter{limit: 40})
	if !errors.Is(err, ErrIO) {
		t.Fatalf("Build = %v, want ErrIO", err)
	}
	if report == nil || report.Success {
		t.Errorf("report = %+v, want unsuccessful", report)
	}

	// The archive is unaffected and builds fine into a working sink.
	if _, err := a.Build(&bytes.Buffer{}); err != nil {
		t.Errorf("Build after failure: %v", err)
	}
}

func TestBuildUnsupportedVersion(t *testing.T) {
	a := New(Config{Version: FormatVersion + 1})
	report, err := a.Build(&bytes.Buffer{})
	if !errors.Is(err, ErrUnsupportedVersion) {
		t.Errorf("Build = %v, want ErrUnsupportedVersion", err)
	}
	if report.Success {
		t.Error("report.Success = true")
	}
}
