package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/pushorder/internal/capture"
)

// DefaultBaseURL prefixes relative resource urls.
const DefaultBaseURL = "https://site.test/"

// Policies a scenario can run.
const (
	PolicyDependency = "dependency"
	PolicyStatic     = "static"
)

// Scenario defines a conformance test scenario.
type Scenario struct {
	// Name uniquely identifies this scenario.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Policy selects the ordering policy. Defaults to dependency.
	Policy string `yaml:"policy,omitempty"`

	// BaseURL prefixes relative resource urls. Defaults to DefaultBaseURL
	// for inline resources and to the root document's origin for a capture.
	BaseURL string `yaml:"base_url,omitempty"`

	// RootID overrides the root document id.
	RootID string `yaml:"root_id,omitempty"`

	// CriticalTypes overrides the critical resource types.
	CriticalTypes []string `yaml:"critical_types,omitempty"`

	// Capture is a capture file path, resolved against the scenario file.
	// Mutually exclusive with Resources.
	Capture string `yaml:"capture,omitempty"`

	// Resources lists the fetched resources in capture order.
	Resources []Resource `yaml:"resources,omitempty"`

	// Assertions validate the outcome.
	Assertions []Assertion `yaml:"assertions"`
}

// Resource is one fetched resource of an inline scenario.
type Resource struct {
	// URL is absolute or relative to the scenario base. Empty is the base.
	URL string `yaml:"url"`

	// Type is the DevTools resource type. Empty derives it from MimeType.
	Type string `yaml:"type,omitempty"`

	MimeType string `yaml:"mime_type,omitempty"`
	Size     int64  `yaml:"size"`

	// Initiator is the initiator kind. Defaults to "script" when Stack is
	// set and to "parser" otherwise. "none" omits the initiator.
	Initiator string `yaml:"initiator,omitempty"`

	// Stack lists call frame urls, innermost first, one per stack level.
	Stack []string `yaml:"stack,omitempty"`
}

// Assertion validates the outcome of a scenario.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Expect is the expected id list (final_order, dropped, bucket).
	Expect []string `yaml:"expect,omitempty"`

	// Before and After name two ids (before).
	Before string `yaml:"before,omitempty"`
	After  string `yaml:"after,omitempty"`

	// Layers maps ids to expected layers (layers).
	Layers map[string]int `yaml:"layers,omitempty"`

	// Bucket names a static priority bucket (bucket).
	Bucket string `yaml:"bucket,omitempty"`

	// Kind is the expected error kind (error).
	Kind string `yaml:"kind,omitempty"`
}

// Assertion type constants.
const (
	AssertFinalOrder = "final_order"
	AssertBefore     = "before"
	AssertLayers     = "layers"
	AssertDropped    = "dropped"
	AssertBucket     = "bucket"
	AssertError      = "error"
	AssertProperties = "properties"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
// A relative capture path is resolved against the scenario's directory.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}

	if scenario.Capture != "" && !filepath.IsAbs(scenario.Capture) {
		scenario.Capture = filepath.Join(filepath.Dir(path), scenario.Capture)
	}
	if scenario.Capture != "" {
		if _, err := os.Stat(scenario.Capture); err != nil {
			return nil, fmt.Errorf("invalid scenario: capture file not found: %s", scenario.Capture)
		}
	}
	return scenario, nil
}

// ParseScenario parses scenario YAML and validates it.
func ParseScenario(data []byte) (*Scenario, error) {
	// strict field validation catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.Policy == "" {
		scenario.Policy = PolicyDependency
	}
	if scenario.BaseURL == "" && scenario.Capture == "" {
		scenario.BaseURL = DefaultBaseURL
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	switch s.Policy {
	case PolicyDependency, PolicyStatic:
	default:
		return fmt.Errorf("unknown policy %q", s.Policy)
	}

	if s.Capture == "" && len(s.Resources) == 0 {
		return fmt.Errorf("either capture or resources is required")
	}
	if s.Capture != "" && len(s.Resources) > 0 {
		return fmt.Errorf("capture and resources are mutually exclusive")
	}

	for _, name := range s.CriticalTypes {
		if _, ok := capture.ParseResourceType(name); !ok {
			return fmt.Errorf("critical_types: unknown resource type %q", name)
		}
	}

	for i, r := range s.Resources {
		if r.Type != "" {
			if _, ok := capture.ParseResourceType(r.Type); !ok {
				return fmt.Errorf("resources[%d]: unknown type %q", i, r.Type)
			}
		}
		if r.Type == "" && r.MimeType == "" {
			return fmt.Errorf("resources[%d]: type or mime_type is required", i)
		}
		if r.Size < 0 {
			return fmt.Errorf("resources[%d]: size must be non-negative", i)
		}
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion, s.Policy); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion, policy string) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	dependencyOnly := func() error {
		if policy != PolicyDependency {
			return fmt.Errorf("assertions[%d]: %s requires the dependency policy", index, a.Type)
		}
		return nil
	}

	switch a.Type {
	case AssertFinalOrder:
		if a.Expect == nil {
			return fmt.Errorf("assertions[%d]: expect is required for final_order", index)
		}
		return dependencyOnly()
	case AssertBefore:
		if a.Before == "" || a.After == "" {
			return fmt.Errorf("assertions[%d]: before and after are required", index)
		}
	case AssertLayers:
		if len(a.Layers) == 0 {
			return fmt.Errorf("assertions[%d]: layers is required", index)
		}
		return dependencyOnly()
	case AssertDropped:
		return dependencyOnly()
	case AssertBucket:
		if policy != PolicyStatic {
			return fmt.Errorf("assertions[%d]: bucket requires the static policy", index)
		}
		if a.Bucket == "" {
			return fmt.Errorf("assertions[%d]: bucket name is required", index)
		}
		if a.Expect == nil {
			return fmt.Errorf("assertions[%d]: expect is required for bucket", index)
		}
	case AssertError:
		if !knownKind(a.Kind) {
			return fmt.Errorf("assertions[%d]: unknown error kind %q", index, a.Kind)
		}
	case AssertProperties:
		return dependencyOnly()
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
