// Package harness runs conformance scenarios against the ordering policies.
//
// A scenario describes a page load, either inline as a list of resources
// or by pointing at a capture file, and asserts on the resulting order.
//
// # Scenario Format
//
// Scenarios are YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	policy: dependency            # or static
//	base_url: https://site.test/  # prefix for relative resource urls
//	resources:
//	  - url: ""                   # the root document
//	    type: document
//	    size: 500
//	    initiator: other
//	  - url: loader.js
//	    type: script
//	    size: 120
//	  - url: app.js
//	    type: script
//	    size: 300
//	    stack: [loader.js, ""]    # one frame per level, innermost first
//	assertions:
//	  - type: final_order
//	    expect: [index.html, loader.js, app.js]
//	  - type: before
//	    before: loader.js
//	    after: app.js
//
// capture: path/to/capture.json may replace resources; the path is
// relative to the scenario file.
//
// # Assertion Types
//
//   - final_order: the dependency order equals expect exactly
//   - before: id before appears ahead of id after
//   - layers: every listed id sits in the given layer
//   - dropped: exactly these ids were dropped as unclassifiable
//   - bucket: a static priority bucket equals expect exactly
//   - error: the run fails with the given kind
//   - properties: the order passes every structural check
//
// # Usage
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/linear_chain.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := harness.Run(scenario)
//	if !result.Pass {
//	    for _, msg := range result.Errors {
//	        log.Println(msg)
//	    }
//	}
package harness
