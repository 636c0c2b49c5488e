package capture

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/url"
	"os"
	"strings"
)

// Format identifies the shape of a capture file.
type Format string

const (
	// FormatLog is the preprocessed log: {"log": [entry, ...]}.
	FormatLog Format = "log"
	// FormatHAR is a raw HAR: {"log": {"entries": [...]}}.
	FormatHAR Format = "har"
)

// Capture is a decoded capture file.
type Capture struct {
	Format  Format
	Entries []Entry
}

// LoadFile reads and decodes the capture at path.
func LoadFile(path string) (*Capture, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Load(f)
}

// Load decodes a capture in either supported format.
//
// Every entry must carry a URL, a MIME type and a size; a missing key fails
// with *MissingFieldError. The initiator is optional at this stage and is
// enforced by the consumers that need it.
func Load(r io.Reader) (*Capture, error) {
	var top map[string]json.RawMessage
	if err := json.NewDecoder(r).Decode(&top); err != nil {
		return nil, &FormatError{Message: "decoding JSON", Err: err}
	}

	logRaw, ok := top["log"]
	if !ok {
		return nil, &FormatError{Message: `missing top-level "log" key`}
	}

	trimmed := bytes.TrimSpace(logRaw)
	if len(trimmed) == 0 {
		return nil, &FormatError{Message: `empty "log" value`}
	}

	switch trimmed[0] {
	case '[':
		return loadLog(trimmed)
	case '{':
		return loadHAR(trimmed)
	}
	return nil, &FormatError{Message: `"log" must be an array or a HAR log object`}
}

type rawObject map[string]json.RawMessage

func loadLog(data []byte) (*Capture, error) {
	var raws []rawObject
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, &FormatError{Message: "decoding log entries", Err: err}
	}

	c := &Capture{Format: FormatLog, Entries: make([]Entry, 0, len(raws))}
	for i, raw := range raws {
		e, err := decodeLogEntry(i, raw)
		if err != nil {
			return nil, err
		}
		c.Entries = append(c.Entries, e)
	}
	return c, nil
}

func decodeLogEntry(index int, raw rawObject) (Entry, error) {
	e := Entry{Index: index}

	urlRaw, _, ok := lookup(raw, "url")
	if !ok {
		return e, &MissingFieldError{Index: index, Field: "url"}
	}
	if err := decodeInto(index, "url", urlRaw, &e.URL); err != nil {
		return e, err
	}

	mimeRaw, mimeKey, ok := lookup(raw, "mimeType", "mime_type")
	if !ok {
		return e, &MissingFieldError{Index: index, URL: e.URL, Field: "mimeType"}
	}
	if err := decodeInto(index, mimeKey, mimeRaw, &e.MimeType); err != nil {
		return e, err
	}

	sizeRaw, _, ok := lookup(raw, "size")
	if !ok {
		return e, &MissingFieldError{Index: index, URL: e.URL, Field: "size"}
	}
	size, err := decodeSize(index, "size", sizeRaw)
	if err != nil {
		return e, err
	}
	e.Size = size

	if methodRaw, _, ok := lookup(raw, "method"); ok {
		if err := decodeInto(index, "method", methodRaw, &e.Method); err != nil {
			return e, err
		}
	}

	typeRaw, typeKey, hasType := lookup(raw, "resource_type", "_resourceType", "resourceType")
	if err := e.applyType(index, typeKey, typeRaw, hasType); err != nil {
		return e, err
	}

	if initRaw, _, ok := lookup(raw, "initiator", "_initiator"); ok {
		if err := e.applyInitiator(index, initRaw); err != nil {
			return e, err
		}
	}

	return e, nil
}

type harHeader struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type harRequest struct {
	URL     *string     `json:"url"`
	Method  string      `json:"method"`
	Headers []harHeader `json:"headers"`
}

type harContent struct {
	MimeType *string         `json:"mimeType"`
	Size     json.RawMessage `json:"size"`
}

type harResponse struct {
	Status  int         `json:"status"`
	Content *harContent `json:"content"`
}

func loadHAR(data []byte) (*Capture, error) {
	var log struct {
		Entries []rawObject `json:"entries"`
	}
	if err := json.Unmarshal(data, &log); err != nil {
		return nil, &FormatError{Message: "decoding HAR log", Err: err}
	}

	c := &Capture{Format: FormatHAR, Entries: make([]Entry, 0, len(log.Entries))}
	for i, raw := range log.Entries {
		e, err := decodeHAREntry(i, raw)
		if err != nil {
			return nil, err
		}
		c.Entries = append(c.Entries, e)
	}
	return c, nil
}

func decodeHAREntry(index int, raw rawObject) (Entry, error) {
	e := Entry{Index: index}

	reqRaw, ok := raw["request"]
	if !ok {
		return e, &MissingFieldError{Index: index, Field: "request"}
	}
	var req harRequest
	if err := json.Unmarshal(reqRaw, &req); err != nil {
		return e, fieldError(index, "request", err)
	}
	if req.URL == nil {
		return e, &MissingFieldError{Index: index, Field: "request.url"}
	}
	e.URL = *req.URL
	e.Method = req.Method
	e.Host = hostOf(e.URL, req.Headers)

	respRaw, ok := raw["response"]
	if !ok {
		return e, &MissingFieldError{Index: index, URL: e.URL, Field: "response"}
	}
	var resp harResponse
	if err := json.Unmarshal(respRaw, &resp); err != nil {
		return e, fieldError(index, "response", err)
	}
	e.Status = resp.Status
	if resp.Content == nil {
		return e, &MissingFieldError{Index: index, URL: e.URL, Field: "response.content"}
	}
	if resp.Content.MimeType == nil {
		return e, &MissingFieldError{Index: index, URL: e.URL, Field: "response.content.mimeType"}
	}
	e.MimeType = *resp.Content.MimeType
	if len(resp.Content.Size) == 0 {
		return e, &MissingFieldError{Index: index, URL: e.URL, Field: "response.content.size"}
	}
	size, err := decodeSize(index, "response.content.size", resp.Content.Size)
	if err != nil {
		return e, err
	}
	e.Size = size

	typeRaw, typeKey, hasType := lookup(raw, "_resourceType", "resource_type")
	if err := e.applyType(index, typeKey, typeRaw, hasType); err != nil {
		return e, err
	}

	if initRaw, _, ok := lookup(raw, "_initiator", "initiator"); ok {
		if err := e.applyInitiator(index, initRaw); err != nil {
			return e, err
		}
	}

	return e, nil
}

func (e *Entry) applyType(index int, key string, raw json.RawMessage, present bool) error {
	if present {
		var name string
		if err := decodeInto(index, key, raw, &name); err != nil {
			return err
		}
		e.RawType = name
		if t, ok := ParseResourceType(name); ok {
			e.ResourceType = t
			e.ExplicitType = true
			return nil
		}
	}
	e.ResourceType = TypeFromMIME(e.MimeType)
	return nil
}

func (e *Entry) applyInitiator(index int, raw json.RawMessage) error {
	if isNull(raw) {
		return nil
	}
	var init Initiator
	if err := json.Unmarshal(raw, &init); err != nil {
		return fieldError(index, "initiator", err)
	}
	e.Initiator = &init
	e.RawInitiator = append(json.RawMessage(nil), raw...)
	return nil
}

// lookup returns the first present, non-null key among names.
func lookup(raw rawObject, names ...string) (json.RawMessage, string, bool) {
	for _, name := range names {
		if v, ok := raw[name]; ok && !isNull(v) {
			return v, name, true
		}
	}
	return nil, "", false
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func decodeInto(index int, field string, raw json.RawMessage, dst any) error {
	if err := json.Unmarshal(raw, dst); err != nil {
		return fieldError(index, field, err)
	}
	return nil
}

// decodeSize accepts non-negative integral JSON numbers, including floats
// with no fractional part such as 12.0.
func decodeSize(index int, field string, raw json.RawMessage) (int64, error) {
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0, fieldError(index, field, err)
	}
	if v, err := n.Int64(); err == nil {
		if v < 0 {
			return 0, fieldError(index, field, fmt.Errorf("negative size %d", v))
		}
		return v, nil
	}
	f, err := n.Float64()
	if err != nil {
		return 0, fieldError(index, field, err)
	}
	switch {
	case f < 0:
		return 0, fieldError(index, field, fmt.Errorf("negative size %s", n))
	case f != math.Trunc(f):
		return 0, fieldError(index, field, fmt.Errorf("fractional size %s", n))
	case f >= math.MaxInt64:
		return 0, fieldError(index, field, fmt.Errorf("size %s overflows int64", n))
	}
	return int64(f), nil
}

func fieldError(index int, field string, err error) error {
	return &FormatError{Message: fmt.Sprintf("entry %d: field %q", index, field), Err: err}
}

// hostOf prefers the Host (or HTTP/2 :authority) request header and falls
// back to the URL host.
func hostOf(rawURL string, headers []harHeader) string {
	for _, h := range headers {
		name := strings.ToLower(h.Name)
		if name == "host" || name == ":authority" {
			return h.Value
		}
	}
	if u, err := url.Parse(rawURL); err == nil {
		return u.Host
	}
	return ""
}
