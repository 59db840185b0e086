package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/idside/pkg/domain"
)

// Overlay marks the steps a run went through.
type Overlay struct {
	VisitedSteps []string
	CurrentStep  string
}

// OverlayFromTrace builds an overlay where the last executed step is current.
func OverlayFromTrace(trace domain.Trace) *Overlay {
	if len(trace) == 0 {
		return nil
	}
	o := &Overlay{VisitedSteps: make([]string, 0, len(trace))}
	for _, e := range trace {
		o.VisitedSteps = append(o.VisitedSteps, e.ID)
	}
	o.CurrentStep = trace[len(trace)-1].ID
	return o
}

// GenerateMermaid produces a Mermaid flowchart of a spec's next chain.
// It applies semantic styling:
// - Entry: ((Circle))
// - Tool: [[Subroutine]]
// - Decision: {Rhombus}
// - Prompt: [/Parallelogram/]
// Dangling next references point at a dashed placeholder node.
func GenerateMermaid(spec *domain.Spec, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")
	if spec == nil {
		return sb.String()
	}

	index := spec.Index()
	entry := spec.Entry()
	missing := make(map[string]bool)

	for _, step := range spec.Steps {
		safeID := sanitizeMermaidID(step.StepID())

		opener, closer := "[", "]"
		switch {
		case step.StepID() == entry:
			opener, closer = "((", "))"
		case step.Kind() == domain.KindTool:
			opener, closer = "[[", "]]"
		case step.Kind() == domain.KindDecision:
			opener, closer = "{", "}"
		case step.Kind() == domain.KindPrompt:
			opener, closer = "[/", "/]"
		}

		fmt.Fprintf(&sb, "    %s%s\"%s <br/> %s\"%s\n", safeID, opener, step.StepID(), label(step), closer)

		next := step.NextID()
		if next == "" {
			continue
		}
		arrow := "-->"
		if d, ok := step.(*domain.DecisionStep); ok && d.Key() != "" {
			arrow = fmt.Sprintf("-- \"%s\" -->", strings.ReplaceAll(d.Key(), "\"", "'"))
		}
		if _, ok := index[next]; !ok {
			missing[next] = true
			arrow = "-.->"
		}
		fmt.Fprintf(&sb, "    %s %s %s\n", safeID, arrow, sanitizeMermaidID(next))
	}

	for _, step := range spec.Steps {
		id := step.NextID()
		if !missing[id] {
			continue
		}
		delete(missing, id)
		fmt.Fprintf(&sb, "    %s[\"%s (missing)\"]\n", sanitizeMermaidID(id), id)
		fmt.Fprintf(&sb, "    style %s stroke-dasharray: 5 5\n", sanitizeMermaidID(id))
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme (Light/Dark)
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		visitedSet := make(map[string]bool)
		for _, id := range overlay.VisitedSteps {
			safeID := sanitizeMermaidID(id)
			if !visitedSet[safeID] && safeID != "" {
				visitedSet[safeID] = true
				fmt.Fprintf(&sb, "    class %s visited;\n", safeID)
			}
		}
		if overlay.CurrentStep != "" {
			fmt.Fprintf(&sb, "    class %s current;\n", sanitizeMermaidID(overlay.CurrentStep))
		}
	}

	return sb.String()
}

func label(step domain.Step) string {
	switch s := step.(type) {
	case *domain.ToolStep:
		if s.Tool != "" {
			return "tool: " + s.Tool
		}
		return "tool"
	case *domain.PromptStep:
		if s.Model != "" {
			return "prompt: " + s.Model
		}
		return "prompt"
	default:
		return string(step.Kind())
	}
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return s
}
