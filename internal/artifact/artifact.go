// Package artifact defines the order artifacts written by pushorder and
// their content digests.
package artifact

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// Kind names an artifact layout.
type Kind string

const (
	KindFinalOrder     Kind = "final-order"
	KindPriority       Kind = "priority"
	KindManagedStreams Kind = "managed-streams"
)

// ParseKind maps a command-line name to a Kind.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindFinalOrder, KindPriority, KindManagedStreams:
		return Kind(s), nil
	}
	return "", fmt.Errorf("unknown artifact kind %q (want %s, %s or %s)",
		s, KindFinalOrder, KindPriority, KindManagedStreams)
}

// Artifact is an order artifact that can be written and digested.
type Artifact interface {
	Kind() Kind
	Digest() (string, error)

	// Entries returns the ordered ids grouped by bucket. Single-list
	// artifacts use one unnamed bucket.
	Entries() []Bucket
}

// Bucket is one named ordered id list of an artifact.
type Bucket struct {
	Name string
	IDs  []string
}

// FinalOrder is the dependency-aware transmission order.
type FinalOrder struct {
	FinalOrder []string `json:"final_order"`
}

func (FinalOrder) Kind() Kind { return KindFinalOrder }

func (a FinalOrder) Digest() (string, error) {
	return Digest(DomainFinalOrder, map[string]any{"final_order": nonNil(a.FinalOrder)})
}

func (a FinalOrder) Entries() []Bucket {
	return []Bucket{{IDs: a.FinalOrder}}
}

// ManagedStreams is the sequence file read by the stream scheduler: the
// same order under the key the scheduler expects.
type ManagedStreams struct {
	ManagedStreams []string `json:"managedStreams"`
}

func (ManagedStreams) Kind() Kind { return KindManagedStreams }

func (a ManagedStreams) Digest() (string, error) {
	return Digest(DomainManagedStreams, map[string]any{"managedStreams": nonNil(a.ManagedStreams)})
}

func (a ManagedStreams) Entries() []Bucket {
	return []Bucket{{IDs: a.ManagedStreams}}
}

// Priority bucket names, highest first.
const (
	BucketHighest    = "highest"
	BucketHigh       = "high"
	BucketNormal     = "normal"
	BucketLow        = "low"
	BucketLowest     = "lowest"
	BucketBackground = "background"
)

// PriorityBuckets lists the bucket names of PriorityOrder, highest first.
var PriorityBuckets = []string{
	BucketHighest, BucketHigh, BucketNormal, BucketLow, BucketLowest, BucketBackground,
}

// PriorityOrder is the size/type-only order: six buckets, each an ordered
// id list.
type PriorityOrder struct {
	Highest    []string `json:"highest"`
	High       []string `json:"high"`
	Normal     []string `json:"normal"`
	Low        []string `json:"low"`
	Lowest     []string `json:"lowest"`
	Background []string `json:"background"`
}

func (PriorityOrder) Kind() Kind { return KindPriority }

func (p PriorityOrder) Digest() (string, error) {
	obj := make(map[string]any, len(PriorityBuckets))
	for _, b := range p.Entries() {
		obj[b.Name] = nonNil(b.IDs)
	}
	return Digest(DomainPriority, obj)
}

func (p PriorityOrder) Entries() []Bucket {
	return []Bucket{
		{BucketHighest, p.Highest},
		{BucketHigh, p.High},
		{BucketNormal, p.Normal},
		{BucketLow, p.Low},
		{BucketLowest, p.Lowest},
		{BucketBackground, p.Background},
	}
}

// Bucket returns a pointer to the named list, or nil for an unknown name.
func (p *PriorityOrder) Bucket(name string) *[]string {
	switch name {
	case BucketHighest:
		return &p.Highest
	case BucketHigh:
		return &p.High
	case BucketNormal:
		return &p.Normal
	case BucketLow:
		return &p.Low
	case BucketLowest:
		return &p.Lowest
	case BucketBackground:
		return &p.Background
	}
	return nil
}

// Flatten concatenates the buckets, highest first.
func (p PriorityOrder) Flatten() []string {
	var out []string
	for _, b := range p.Entries() {
		out = append(out, b.IDs...)
	}
	return out
}

// Normalize replaces nil buckets with empty lists so every key is
// written as an array.
func (p PriorityOrder) Normalize() PriorityOrder {
	for _, name := range PriorityBuckets {
		if b := p.Bucket(name); *b == nil {
			*b = []string{}
		}
	}
	return p
}

// Write encodes a as indented JSON with a trailing newline.
func Write(w io.Writer, a Artifact) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(normalize(a)); err != nil {
		return fmt.Errorf("write %s artifact: %w", a.Kind(), err)
	}
	return nil
}

// WriteFile writes a to path. The file is only created once encoding
// succeeded.
func WriteFile(path string, a Artifact) error {
	data, err := Marshal(a)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s artifact: %w", a.Kind(), err)
	}
	return nil
}

// Marshal returns the bytes Write would produce.
func Marshal(a Artifact) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(&buf, a); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode reads an artifact of the given kind.
func Decode(kind Kind, data []byte) (Artifact, error) {
	var (
		a   Artifact
		err error
	)
	switch kind {
	case KindFinalOrder:
		var v FinalOrder
		err = json.Unmarshal(data, &v)
		a = v
	case KindManagedStreams:
		var v ManagedStreams
		err = json.Unmarshal(data, &v)
		a = v
	case KindPriority:
		var v PriorityOrder
		err = json.Unmarshal(data, &v)
		a = v
	default:
		return nil, fmt.Errorf("unknown artifact kind %q", kind)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s artifact: %w", kind, err)
	}
	return a, nil
}

func normalize(a Artifact) Artifact {
	switch v := a.(type) {
	case FinalOrder:
		v.FinalOrder = nonNil(v.FinalOrder)
		return v
	case ManagedStreams:
		v.ManagedStreams = nonNil(v.ManagedStreams)
		return v
	case PriorityOrder:
		return v.Normalize()
	}
	return a
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
