/*
Package domain contains the core models of the idside decision-model engine.

It defines the parsed program (Spec and its Steps), the per-run execution
record (Trace), telemetry events and the error taxonomy shared by the parser,
the runtime and the adapters. The package is free of I/O.

# Key Entities

  - Spec: the parsed decision model (name, description, ordered steps).
  - Step: a closed set of variants (PromptStep, ToolStep, DecisionStep).
  - TraceEntry: one executed step and its result.
  - Event: a timestamped record of provider or tool activity.
*/
package domain
