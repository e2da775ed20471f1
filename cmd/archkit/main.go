// archkit: architecture documentation toolkit
//
// Manages RFCs, ADRs and decomposition plans stored as Markdown files with
// YAML frontmatter under .arch/, and serves them to AI tools over MCP.
//
// Usage:
//
//	archkit init               # Create .arch/ in the current directory
//	archkit new adr "Title"    # Create an artifact
//	archkit health             # Score the corpus
//	archkit serve              # Start the MCP server (stdio transport)
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/HendryAvila/archkit/internal/artifact"
)

// Exit codes by error kind.
const (
	exitOK            = 0
	exitFailure       = 1
	exitValidation    = 2
	exitSecurity      = 3
	exitNotFound      = 4
	exitStorage       = 5
	exitSerialization = 6
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitCode(err))
	}
}

// exitCode maps an error to the process exit status.
func exitCode(err error) int {
	if err == nil {
		return exitOK
	}
	switch artifact.KindOf(err) {
	case artifact.ErrValidation:
		return exitValidation
	case artifact.ErrSecurity:
		return exitSecurity
	case artifact.ErrNotFound:
		return exitNotFound
	case artifact.ErrStorage:
		return exitStorage
	case artifact.ErrSerialization:
		return exitSerialization
	}
	var usage *usageError
	if errors.As(err, &usage) {
		return exitValidation
	}
	return exitFailure
}

// usageError marks bad command-line input that is not an artifact error.
type usageError struct{ msg string }

func (e *usageError) Error() string { return e.msg }

func usagef(format string, args ...any) error {
	return &usageError{msg: fmt.Sprintf(format, args...)}
}
