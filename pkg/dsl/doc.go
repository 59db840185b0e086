/*
Package dsl reads, writes and builds idside decision models.

A decision model is a YAML document:

	name: triage
	description: route incoming tickets
	steps:
	  - id: summarize
	    type: prompt
	    model: gpt-4o-mini
	    prompt: "Summarize: {ticket}"
	    next: classify
	  - id: classify
	    type: decision
	    inputs:
	      key: priority

Parse validates the document structure and rejects duplicate step ids. It does
not check the next chain; Lint reports dangling references, cycles and
unreachable steps.

Specs can also be built in Go:

	spec, err := dsl.New("demo").
		Prompt("s1", "Echo: {text}").Then("s2").Done().
		Tool("s2", "search").Input("q", "{s1}").Done().
		Build()
*/
package dsl
