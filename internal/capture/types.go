package capture

import (
	"encoding/json"
	"strings"

	"github.com/roach88/pushorder/internal/callstack"
)

// ResourceType classifies a fetched resource the way DevTools does.
type ResourceType string

const (
	TypeDocument   ResourceType = "document"
	TypeScript     ResourceType = "script"
	TypeStylesheet ResourceType = "stylesheet"
	TypeFont       ResourceType = "font"
	TypeImage      ResourceType = "image"
	TypeXHR        ResourceType = "xhr"
	TypeManifest   ResourceType = "manifest"
	TypeOther      ResourceType = "other"
)

// AllTypes lists every known resource type.
var AllTypes = []ResourceType{
	TypeDocument, TypeScript, TypeStylesheet, TypeFont,
	TypeImage, TypeXHR, TypeManifest, TypeOther,
}

// CriticalTypes are the resource types that gate rendering.
var CriticalTypes = []ResourceType{TypeDocument, TypeScript, TypeStylesheet, TypeFont}

// ParseResourceType maps a DevTools resource type name to a ResourceType.
// "fetch" is folded into xhr.
func ParseResourceType(s string) (ResourceType, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "document":
		return TypeDocument, true
	case "script":
		return TypeScript, true
	case "stylesheet":
		return TypeStylesheet, true
	case "font":
		return TypeFont, true
	case "image":
		return TypeImage, true
	case "xhr", "fetch":
		return TypeXHR, true
	case "manifest":
		return TypeManifest, true
	case "other":
		return TypeOther, true
	}
	return "", false
}

// TypeFromMIME derives a resource type from a MIME type when the capture
// does not carry an explicit one.
func TypeFromMIME(mime string) ResourceType {
	base := strings.ToLower(strings.TrimSpace(mime))
	if i := strings.IndexByte(base, ';'); i >= 0 {
		base = strings.TrimSpace(base[:i])
	}

	switch base {
	case "text/html", "application/xhtml+xml":
		return TypeDocument
	case "application/javascript", "text/javascript", "application/x-javascript",
		"application/ecmascript", "text/ecmascript":
		return TypeScript
	case "text/css":
		return TypeStylesheet
	case "application/font-woff", "application/font-woff2", "application/x-font-woff",
		"application/x-font-ttf", "application/vnd.ms-fontobject":
		return TypeFont
	case "application/manifest+json":
		return TypeManifest
	case "application/json":
		return TypeXHR
	}

	switch {
	case strings.HasPrefix(base, "font/"):
		return TypeFont
	case strings.HasPrefix(base, "image/"):
		return TypeImage
	}
	return TypeOther
}

// Initiator describes what caused a resource to be fetched.
type Initiator struct {
	Type       string           `json:"type"`
	URL        string           `json:"url,omitempty"`
	LineNumber int              `json:"lineNumber,omitempty"`
	Stack      *callstack.Stack `json:"stack,omitempty"`
}

// Initiator kinds that carry no stack but are attributed to the document.
const (
	InitiatorParser = "parser"
	InitiatorOther  = "other"
)

// Entry is one fetched resource of a capture, normalised from either the
// preprocessed log or a raw HAR.
type Entry struct {
	// Index is the entry's position in the capture.
	Index    int
	URL      string
	Method   string
	MimeType string
	Size     int64

	// ResourceType is the explicit type when the capture carries one,
	// otherwise the type derived from MimeType.
	ResourceType ResourceType

	// ExplicitType reports whether ResourceType came from the capture.
	ExplicitType bool

	// RawType is the type name exactly as captured, empty when absent. It
	// is set even for names ParseResourceType does not know (websocket,
	// media, ping).
	RawType string

	// Status and Host are only known for raw HAR entries.
	Status int
	Host   string

	// Initiator is nil when the entry has no initiator key.
	Initiator *Initiator

	// RawInitiator preserves the initiator exactly as captured.
	RawInitiator json.RawMessage
}

// Record is one critical resource together with its ordered dependencies.
type Record struct {
	ID           string
	MimeType     string
	Size         int64
	Type         ResourceType
	Dependencies []string
}
