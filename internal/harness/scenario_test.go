package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseScenario_Defaults(t *testing.T) {
	s, err := ParseScenario([]byte(`
name: defaults
description: policy and base default
resources:
  - url: ""
    type: document
    size: 10
assertions:
  - type: properties
`))
	require.NoError(t, err)
	assert.Equal(t, PolicyDependency, s.Policy)
	assert.Equal(t, DefaultBaseURL, s.BaseURL)
	require.Len(t, s.Resources, 1)
	assert.Equal(t, "document", s.Resources[0].Type)
}

func TestParseScenario_FullResource(t *testing.T) {
	s, err := ParseScenario([]byte(`
name: full
description: every resource field
base_url: https://shop.test/
root_id: home.html
critical_types: [document, script]
resources:
  - url: ""
    type: document
    size: 10
  - url: app.js
    mime_type: text/javascript
    size: 20
    initiator: script
    stack: [vendor.js, ""]
assertions:
  - type: before
    before: home.html
    after: app.js
`))
	require.NoError(t, err)
	assert.Equal(t, "https://shop.test/", s.BaseURL)
	assert.Equal(t, "home.html", s.RootID)
	assert.Equal(t, []string{"document", "script"}, s.CriticalTypes)

	r := s.Resources[1]
	assert.Equal(t, "text/javascript", r.MimeType)
	assert.Equal(t, "script", r.Initiator)
	assert.Equal(t, []string{"vendor.js", ""}, r.Stack)
}

func TestParseScenario_CaptureKeepsBaseEmpty(t *testing.T) {
	s, err := ParseScenario([]byte(`
name: recorded
description: base comes from the capture
capture: site.json
assertions:
  - type: properties
`))
	require.NoError(t, err)
	assert.Empty(t, s.BaseURL)
}

func TestParseScenario_RejectsUnknownFields(t *testing.T) {
	_, err := ParseScenario([]byte(`
name: typo
description: misspelled key
resources:
  - url: ""
    type: document
    size: 10
assertion:
  - type: properties
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestParseScenario_Validation(t *testing.T) {
	const doc = `
resources:
  - url: ""
    type: document
    size: 10
`
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "missing name",
			yaml: "description: d\n" + doc + "assertions:\n  - type: properties\n",
			want: "name is required",
		},
		{
			name: "missing description",
			yaml: "name: n\n" + doc + "assertions:\n  - type: properties\n",
			want: "description is required",
		},
		{
			name: "unknown policy",
			yaml: "name: n\ndescription: d\npolicy: random\n" + doc + "assertions:\n  - type: properties\n",
			want: `unknown policy "random"`,
		},
		{
			name: "no input",
			yaml: "name: n\ndescription: d\nassertions:\n  - type: properties\n",
			want: "either capture or resources is required",
		},
		{
			name: "capture and resources",
			yaml: "name: n\ndescription: d\ncapture: c.json\n" + doc + "assertions:\n  - type: properties\n",
			want: "mutually exclusive",
		},
		{
			name: "unknown critical type",
			yaml: "name: n\ndescription: d\ncritical_types: [video]\n" + doc + "assertions:\n  - type: properties\n",
			want: `unknown resource type "video"`,
		},
		{
			name: "resource without type",
			yaml: "name: n\ndescription: d\nresources:\n  - url: a.js\n    size: 1\nassertions:\n  - type: properties\n",
			want: "type or mime_type is required",
		},
		{
			name: "negative size",
			yaml: "name: n\ndescription: d\nresources:\n  - url: a.js\n    type: script\n    size: -1\nassertions:\n  - type: properties\n",
			want: "size must be non-negative",
		},
		{
			name: "no assertions",
			yaml: "name: n\ndescription: d\n" + doc,
			want: "assertions list is required",
		},
		{
			name: "unknown assertion",
			yaml: "name: n\ndescription: d\n" + doc + "assertions:\n  - type: fastest\n",
			want: `unknown assertion type "fastest"`,
		},
		{
			name: "final_order without expect",
			yaml: "name: n\ndescription: d\n" + doc + "assertions:\n  - type: final_order\n",
			want: "expect is required for final_order",
		},
		{
			name: "before without after",
			yaml: "name: n\ndescription: d\n" + doc + "assertions:\n  - type: before\n    before: a.js\n",
			want: "before and after are required",
		},
		{
			name: "empty layers",
			yaml: "name: n\ndescription: d\n" + doc + "assertions:\n  - type: layers\n",
			want: "layers is required",
		},
		{
			name: "bucket under dependency policy",
			yaml: "name: n\ndescription: d\n" + doc + "assertions:\n  - type: bucket\n    bucket: high\n    expect: []\n",
			want: "bucket requires the static policy",
		},
		{
			name: "layers under static policy",
			yaml: "name: n\ndescription: d\npolicy: static\n" + doc + "assertions:\n  - type: layers\n    layers: {a.js: 1}\n",
			want: "layers requires the dependency policy",
		},
		{
			name: "unknown error kind",
			yaml: "name: n\ndescription: d\n" + doc + "assertions:\n  - type: error\n    kind: timeout\n",
			want: `unknown error kind "timeout"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid scenario")
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadScenario_ResolvesCaptureRelativeToFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "captures"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "captures", "site.json"), []byte(`{"log":[]}`), 0o644))

	path := filepath.Join(dir, "site.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
name: site
description: recorded load
capture: captures/site.json
assertions:
  - type: properties
`), 0o644))

	s, err := LoadScenario(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "captures", "site.json"), s.Capture)
}

func TestLoadScenario_MissingCapture(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "site.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
name: site
description: recorded load
capture: nowhere.json
assertions:
  - type: properties
`), 0o644))

	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "capture file not found")
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}
