// Package callstack flattens the nested script call stacks that browsers
// attach to network initiators.
//
// A stack is a chain of levels linked through Parent: the first level holds
// the frames of the innermost synchronous call, each parent holds the frames
// of the asynchronous call site that scheduled it. Flatten walks the chain
// iteratively so arbitrarily long async chains never grow the Go stack.
package callstack

// Frame is a single script frame of an initiator stack.
type Frame struct {
	FunctionName string `json:"functionName,omitempty"`
	ScriptID     string `json:"scriptId,omitempty"`
	URL          string `json:"url"`
	LineNumber   int    `json:"lineNumber,omitempty"`
	ColumnNumber int    `json:"columnNumber,omitempty"`
}

// Stack is one level of an initiator call stack.
type Stack struct {
	Description string  `json:"description,omitempty"`
	CallFrames  []Frame `json:"callFrames"`
	Parent      *Stack  `json:"parent,omitempty"`
}

// IDFunc maps a frame URL to a resource identifier.
type IDFunc func(url string) string

// Flatten returns the identifiers of every frame in the stack, level by
// level starting at s and following Parent links.
//
// The result is innermost call site first, outermost last. Identifiers
// repeat when several frames belong to the same resource.
// A nil id maps frames to their raw URL.
func Flatten(s *Stack, id IDFunc) []string {
	if id == nil {
		id = func(url string) string { return url }
	}

	var out []string
	seen := make(map[*Stack]struct{})
	for level := s; level != nil; level = level.Parent {
		// A hand-built stack can loop; a decoded one never does.
		if _, ok := seen[level]; ok {
			break
		}
		seen[level] = struct{}{}

		for _, frame := range level.CallFrames {
			out = append(out, id(frame.URL))
		}
	}
	return out
}

// DependencyChain returns the ordered dependency list of the resource that
// the stack initiated: Flatten reversed, keeping the first occurrence of
// each identifier. The outermost (top-level) resource comes first.
func DependencyChain(s *Stack, id IDFunc) []string {
	flat := Flatten(s, id)

	out := make([]string, 0, len(flat))
	added := make(map[string]struct{}, len(flat))
	for i := len(flat) - 1; i >= 0; i-- {
		dep := flat[i]
		if _, ok := added[dep]; ok {
			continue
		}
		added[dep] = struct{}{}
		out = append(out, dep)
	}
	return out
}

// Depth returns the number of levels in the stack.
func Depth(s *Stack) int {
	n := 0
	seen := make(map[*Stack]struct{})
	for level := s; level != nil; level = level.Parent {
		if _, ok := seen[level]; ok {
			break
		}
		seen[level] = struct{}{}
		n++
	}
	return n
}
