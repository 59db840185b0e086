/*
Package ports defines the driven ports (interfaces) of the idside engine.

These interfaces decouple the runtime from the concrete telemetry backends,
so the same runner can log into a process-local ring buffer, a shared Redis
list, or a metrics decorator around either.

# Key Interfaces

  - TelemetrySink: append-only log of provider and tool activity.
*/
package ports
