// Package provider defines the boundary between prompt steps and the external model provider.
package provider

import (
	"context"
	"fmt"
	"strings"
)

// DefaultModel is used by prompt steps that do not name a model.
const DefaultModel = "gpt-4o-mini"

// Provider completes a rendered prompt. Implementations own the network call,
// retries and timeouts; the runtime calls Complete at most once per prompt step.
type Provider interface {
	Name() string
	Complete(ctx context.Context, prompt, model, credential string) (string, error)
}

// Func adapts a function into a Provider.
type Func struct {
	ProviderName string
	Fn           func(ctx context.Context, prompt, model, credential string) (string, error)
}

// Name returns the provider name, "func" when unset.
func (f Func) Name() string {
	if f.ProviderName == "" {
		return "func"
	}
	return f.ProviderName
}

// Complete calls the wrapped function.
func (f Func) Complete(ctx context.Context, prompt, model, credential string) (string, error) {
	return f.Fn(ctx, prompt, model, credential)
}

// Mode is how prompt steps are served.
type Mode int

const (
	// ModeUnconfigured fails every prompt step.
	ModeUnconfigured Mode = iota
	// ModeFake echoes the rendered prompt without an external call.
	ModeFake
	// ModeLive calls the provider with the configured credential.
	ModeLive
)

func (m Mode) String() string {
	switch m {
	case ModeLive:
		return "live"
	case ModeFake:
		return "fake"
	default:
		return "unconfigured"
	}
}

// Config is the caller-facing provider configuration.
type Config struct {
	// Credential enables ModeLive when non-empty.
	Credential string
	// AllowFake enables ModeFake when no credential is configured.
	AllowFake bool
	// Fallback synthesizes a tagged placeholder instead of failing when a live call errors.
	Fallback bool
}

// Resolve picks the mode. A credential wins over fake mode.
func (c Config) Resolve() Mode {
	switch {
	case c.Credential != "":
		return ModeLive
	case c.AllowFake:
		return ModeFake
	default:
		return ModeUnconfigured
	}
}

// FakeMarker prefixes the echo produced in ModeFake.
const FakeMarker = "[FAKE_PROVIDER ECHO]"

// FakeText is the deterministic placeholder produced in ModeFake.
func FakeText(prompt string) string {
	return FakeMarker + "\n" + prompt
}

// FallbackText is the placeholder produced when a live call fails and fallback is enabled.
func FallbackText(providerName, prompt string) string {
	return fmt.Sprintf("[%s_FALLBACK] %s", strings.ToUpper(providerName), prompt)
}

// ParseSwitch reads the boolean-like environment switches used by the provider
// configuration: "1", "true" and "True" are on, anything else is off.
func ParseSwitch(v string) bool {
	switch v {
	case "1", "true", "True":
		return true
	default:
		return false
	}
}
