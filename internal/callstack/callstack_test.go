package callstack

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func frames(urls ...string) []Frame {
	out := make([]Frame, len(urls))
	for i, u := range urls {
		out[i] = Frame{URL: u}
	}
	return out
}

func TestFlatten_Nil(t *testing.T) {
	assert.Empty(t, Flatten(nil, nil))
	assert.Empty(t, DependencyChain(nil, nil))
	assert.Equal(t, 0, Depth(nil))
}

func TestFlatten_SingleLevel(t *testing.T) {
	s := &Stack{CallFrames: frames("b.js", "a.js")}
	assert.Equal(t, []string{"b.js", "a.js"}, Flatten(s, nil))
}

func TestFlatten_InnermostFirst(t *testing.T) {
	s := &Stack{
		CallFrames: frames("loader.js"),
		Parent: &Stack{
			CallFrames: frames("app.js", "vendor.js"),
			Parent: &Stack{
				CallFrames: frames("index.html"),
			},
		},
	}

	assert.Equal(t, []string{"loader.js", "app.js", "vendor.js", "index.html"}, Flatten(s, nil))
	assert.Equal(t, 3, Depth(s))
}

func TestFlatten_AppliesIDFunc(t *testing.T) {
	s := &Stack{CallFrames: frames("https://example.com/a.js", "")}
	id := func(url string) string {
		if url == "" {
			return "index.html"
		}
		return strings.TrimPrefix(url, "https://example.com/")
	}
	assert.Equal(t, []string{"a.js", "index.html"}, Flatten(s, id))
}

func TestFlatten_LoopTerminates(t *testing.T) {
	s := &Stack{CallFrames: frames("a.js")}
	s.Parent = s

	assert.Equal(t, []string{"a.js"}, Flatten(s, nil))
	assert.Equal(t, 1, Depth(s))
}

func TestFlatten_DeepChainIsIterative(t *testing.T) {
	const depth = 100000
	var s *Stack
	for i := 0; i < depth; i++ {
		s = &Stack{CallFrames: frames("x.js"), Parent: s}
	}

	assert.Len(t, Flatten(s, nil), depth)
	assert.Equal(t, []string{"x.js"}, DependencyChain(s, nil))
}

func TestDependencyChain_ReversesAndDeduplicates(t *testing.T) {
	s := &Stack{
		CallFrames: frames("loader.js", "app.js"),
		Parent: &Stack{
			CallFrames: frames("app.js", "index.html"),
			Parent: &Stack{
				CallFrames: frames("loader.js", "index.html"),
			},
		},
	}

	// flat: loader, app, app, index, loader, index
	// reversed: index, loader, index, app, app, loader
	assert.Equal(t, []string{"index.html", "loader.js", "app.js"}, DependencyChain(s, nil))
}

func TestStack_DecodesDevToolsJSON(t *testing.T) {
	raw := `{
		"callFrames": [{"functionName": "load", "scriptId": "12", "url": "https://example.com/app.js", "lineNumber": 3, "columnNumber": 9}],
		"parent": {
			"description": "Promise.then",
			"callFrames": [{"functionName": "", "scriptId": "7", "url": "https://example.com/", "lineNumber": 0, "columnNumber": 0}]
		}
	}`

	var s Stack
	require.NoError(t, json.Unmarshal([]byte(raw), &s))
	require.NotNil(t, s.Parent)
	assert.Equal(t, "Promise.then", s.Parent.Description)
	assert.Equal(t, []string{"https://example.com/", "https://example.com/app.js"}, DependencyChain(&s, nil))
}
