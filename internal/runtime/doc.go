// Package runtime executes parsed decision models.
//
// The Executor evaluates a single step against the accumulated context and
// the Runner walks the next chain from the entry step, threading each step's
// result into the context under the step id. Both are configured with the
// same Option set; the provider mode is resolved once at construction.
package runtime
