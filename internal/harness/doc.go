// Package harness runs YAML judging scenarios against a real engine.
//
// A scenario is a list of steps (open, save, set_score, set_comment, show,
// progress, submit), each with optional expectations, followed by an
// optional check on the export. Every scenario runs in a fresh in-memory
// store with a deterministic clock, so the exported CSV is byte-stable and
// can be compared against a golden file.
//
// Example scenario:
//
//	name: jane_doe
//	description: One complete evaluation scores 4.40
//	steps:
//	  - action: open
//	    judge: "  jane DOE "
//	    expect: {judge: Jane Doe}
//	  - action: save
//	    judge: Jane Doe
//	    entry: 1
//	    scores: {problem_definition: 4, technical_execution: 5}
//	    expect: {weighted: "1.60", complete: false}
//	export:
//	  rows: 1
//
// Golden files live in testdata/golden/{name}.golden for package tests and
// next to the scenario directory for the CLI test command. Regenerate with:
//
//	go test ./internal/harness -update
package harness
