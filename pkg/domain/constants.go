package domain

// Field constants shared by the parser, the runtime and result consumers.
const (
	// KeyDecision is the input key naming the context entry a decision step reads.
	KeyDecision = "key"

	// DefaultBranch is returned by a decision step when its key is absent from the context.
	DefaultBranch = "default"

	// DefaultToolName labels telemetry for tool steps declared without a model/tool name.
	DefaultToolName = "tool"

	// Result keys.
	ResultText         = "text"
	ResultProviderMeta = "provider_meta"
	ResultFallback     = "fallback"
	ResultToolOutput   = "result"
	ResultBranch       = "branch"
)

// Telemetry provider tags.
const (
	TagProvider = "provider"
	TagFallback = "fallback"
	TagFake     = "fake"
	TagTool     = "tool"
)
