package cli

import (
	"fmt"
	"io"

	"github.com/aretw0/idside/pkg/dsl"
)

// Validate parses and lints the spec at path. Warnings are printed but only errors fail.
func Validate(path string, out io.Writer) error {
	spec, err := loadSpec(path)
	if err != nil {
		return err
	}

	issues := dsl.Lint(spec)
	errCount := 0
	for _, issue := range issues {
		if issue.Severity == dsl.SeverityError {
			errCount++
		}
		fmt.Fprintln(out, issue.String())
	}
	if errCount > 0 {
		return usagef("spec %q has %d error(s)", spec.Name, errCount)
	}

	fmt.Fprintf(out, "Spec %q is valid (%d steps, %d warning(s)).\n", spec.Name, len(spec.Steps), len(issues))
	return nil
}
