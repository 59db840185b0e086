/*
Package idside runs declarative decision models: ordered prompt, tool and decision
steps written as a YAML document and chained by "next".

# Concept

A run starts at the first step and threads a context map through the chain.
Each step's result is stored in the context under the step id, so later
templates can read earlier results ({summarize.text}). Every run returns an
ordered trace of {id, type, result} and a snapshot of the telemetry sink.

# Key Features

  - Closed step set: prompt, tool and decision, dispatched exhaustively.
  - Provider modes resolved once: live (credential), fake (echo) or unconfigured.
  - Fallback policy for failed provider calls.
  - Bounded telemetry with in-memory, Redis and Prometheus sinks.
  - Cycle detection, with an opt-in loop limit.

# Usage

	package main

	import (
		"context"
		"fmt"
		"log"

		"github.com/aretw0/idside"
	)

	func main() {
		eng, err := idside.New()
		if err != nil {
			log.Fatal(err)
		}

		res, err := eng.Run(context.Background(), `
	name: demo
	steps:
	  - id: s1
	    type: prompt
	    prompt: "Echo: {text}"
	`, map[string]any{"text": "Hello"})
		if err != nil {
			log.Fatal(err)
		}
		fmt.Println(res.Trace[0].Result["text"])
	}

# Errors

Run returns *domain.SpecParseError for malformed documents,
*domain.MissingInputKeyError when a template references an absent key, and
*domain.ExecutionError for everything else. domain.Classify maps them to
parse, client and server classes.
*/
package idside
