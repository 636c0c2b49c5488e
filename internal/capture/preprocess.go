package capture

import (
	"encoding/json"
	"io"
	"strings"
)

// PreprocessOptions selects the HAR entries kept by Preprocess.
type PreprocessOptions struct {
	// Host keeps only entries whose Host header matches (case-insensitive).
	// Empty keeps every host.
	Host string

	// Status keeps only entries with this response status. Zero keeps all.
	Status int
}

// LogEntry is one entry of the preprocessed log format.
type LogEntry struct {
	URL          string          `json:"url"`
	Method       string          `json:"method,omitempty"`
	MimeType     string          `json:"mimeType"`
	Size         int64           `json:"size"`
	ResourceType string          `json:"resource_type,omitempty"`
	Initiator    json.RawMessage `json:"initiator,omitempty"`
}

// Log is the preprocessed capture file.
type Log struct {
	Log []LogEntry `json:"log"`
}

// Preprocess reduces a capture to the preprocessed log: entries from the
// selected host with the selected status, without response bodies.
// Entries of a preprocessed log carry no status or host; they pass the
// corresponding filters unchanged. HAR entries are filtered strictly, so
// blocked or failed fetches (status 0) never match a status filter.
func Preprocess(c *Capture, opts PreprocessOptions) Log {
	har := c.Format == FormatHAR
	out := Log{Log: make([]LogEntry, 0, len(c.Entries))}
	for _, e := range c.Entries {
		if opts.Host != "" && (har || e.Host != "") && !strings.EqualFold(e.Host, opts.Host) {
			continue
		}
		if opts.Status != 0 && har && e.Status != opts.Status {
			continue
		}

		le := LogEntry{
			URL:       e.URL,
			Method:    e.Method,
			MimeType:  e.MimeType,
			Size:      e.Size,
			Initiator: e.RawInitiator,
		}
		switch {
		case e.ExplicitType:
			le.ResourceType = string(e.ResourceType)
		case e.RawType != "":
			le.ResourceType = e.RawType
		}
		out.Log = append(out.Log, le)
	}
	return out
}

// WriteLog writes the preprocessed log as indented JSON.
func WriteLog(w io.Writer, l Log) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(l)
}
