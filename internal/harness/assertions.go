package harness

import (
	"fmt"
	"slices"
	"sort"
	"strings"
)

// AssertionError is returned when an assertion fails.
// It includes the produced order to help debug the failure.
type AssertionError struct {
	Type     string   // Assertion type for categorization
	Expected string   // Human-readable expected outcome
	Actual   string   // Human-readable actual outcome
	Order    []string // Produced order for context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Order) > 0 {
		fmt.Fprintf(&buf, "\nOrder:\n")
		for i, id := range e.Order {
			fmt.Fprintf(&buf, "  [%d] %s\n", i+1, id)
		}
	}

	return buf.String()
}

// assertFinalOrder checks the dependency order matches exactly.
func assertFinalOrder(r *Result, a Assertion) error {
	if slices.Equal(r.FinalOrder, a.Expect) {
		return nil
	}
	return &AssertionError{
		Type:     AssertFinalOrder,
		Expected: fmt.Sprintf("%v", a.Expect),
		Actual:   fmt.Sprintf("%v", r.FinalOrder),
		Order:    r.FinalOrder,
	}
}

// assertBefore checks one id precedes another in the produced order.
func assertBefore(r *Result, a Assertion) error {
	seq := r.Order()
	bi, ai := slices.Index(seq, a.Before), slices.Index(seq, a.After)

	var actual string
	switch {
	case bi < 0:
		actual = fmt.Sprintf("%s not in order", a.Before)
	case ai < 0:
		actual = fmt.Sprintf("%s not in order", a.After)
	case bi > ai:
		actual = fmt.Sprintf("%s at %d, %s at %d", a.Before, bi+1, a.After, ai+1)
	default:
		return nil
	}
	return &AssertionError{
		Type:     AssertBefore,
		Expected: fmt.Sprintf("%s before %s", a.Before, a.After),
		Actual:   actual,
		Order:    seq,
	}
}

// assertLayers checks every listed id sits in its expected layer.
func assertLayers(r *Result, a Assertion) error {
	var mismatches []string
	for _, id := range sortedKeys(a.Layers) {
		want := a.Layers[id]
		got, ok := r.Layers[id]
		switch {
		case !ok:
			mismatches = append(mismatches, fmt.Sprintf("%s: no layer", id))
		case got != want:
			mismatches = append(mismatches, fmt.Sprintf("%s: layer %d, want %d", id, got, want))
		}
	}
	if len(mismatches) == 0 {
		return nil
	}
	return &AssertionError{
		Type:     AssertLayers,
		Expected: fmt.Sprintf("%v", a.Layers),
		Actual:   strings.Join(mismatches, "; "),
		Order:    r.FinalOrder,
	}
}

// assertDropped checks exactly the expected ids were dropped.
func assertDropped(r *Result, a Assertion) error {
	got := slices.Clone(r.Dropped)
	want := slices.Clone(a.Expect)
	sort.Strings(got)
	sort.Strings(want)
	if slices.Equal(got, want) {
		return nil
	}
	return &AssertionError{
		Type:     AssertDropped,
		Expected: fmt.Sprintf("%v", a.Expect),
		Actual:   fmt.Sprintf("%v", r.Dropped),
	}
}

// assertBucket checks a static priority bucket matches exactly.
func assertBucket(r *Result, a Assertion) error {
	if r.Priority == nil {
		return &AssertionError{Type: AssertBucket, Expected: a.Bucket, Actual: "no priority order"}
	}
	p := *r.Priority
	list := p.Bucket(a.Bucket)
	if list == nil {
		return &AssertionError{Type: AssertBucket, Expected: a.Bucket, Actual: "unknown bucket"}
	}
	if slices.Equal(*list, a.Expect) {
		return nil
	}
	return &AssertionError{
		Type:     AssertBucket,
		Expected: fmt.Sprintf("%s = %v", a.Bucket, a.Expect),
		Actual:   fmt.Sprintf("%s = %v", a.Bucket, *list),
		Order:    p.Flatten(),
	}
}

// assertError checks the run failed with the expected kind.
func assertError(r *Result, a Assertion) error {
	got := ErrorKind(r.Err)
	if got == a.Kind {
		return nil
	}
	actual := "no error"
	if r.Err != nil {
		actual = fmt.Sprintf("%s: %v", got, r.Err)
	}
	return &AssertionError{
		Type:     AssertError,
		Expected: a.Kind,
		Actual:   actual,
		Order:    r.FinalOrder,
	}
}

// assertProperties checks the order's structural properties.
func assertProperties(r *Result, _ Assertion) error {
	if r.verify == nil {
		return nil
	}
	return &AssertionError{
		Type:     AssertProperties,
		Expected: "order properties hold",
		Actual:   r.verify.Error(),
		Order:    r.FinalOrder,
	}
}

// EvaluateAssertions runs every assertion against the result and returns
// the failure messages.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errs []string
	for i, a := range assertions {
		var err error
		switch a.Type {
		case AssertFinalOrder:
			err = assertFinalOrder(result, a)
		case AssertBefore:
			err = assertBefore(result, a)
		case AssertLayers:
			err = assertLayers(result, a)
		case AssertDropped:
			err = assertDropped(result, a)
		case AssertBucket:
			err = assertBucket(result, a)
		case AssertError:
			err = assertError(result, a)
		case AssertProperties:
			err = assertProperties(result, a)
		default:
			err = fmt.Errorf("unknown assertion type %q", a.Type)
		}
		if err != nil {
			errs = append(errs, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return errs
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
