// Package linediff computes unified diffs between two rendered manifests.
package linediff

import (
	"fmt"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

const defaultContext = 3

// Adapter implements ports.DiffPort using a line-by-line unified diff.
type Adapter struct {
	context int
}

// New creates a new line-based diff adapter showing three lines of context.
func New() *Adapter {
	return &Adapter{context: defaultContext}
}

// ComputeDiff returns the unified diff from base to head, or an empty
// string when they are identical.
func (a *Adapter) ComputeDiff(baseName, headName string, base, head []byte) string {
	if string(base) == string(head) {
		return ""
	}
	ud := difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(base)),
		B:        difflib.SplitLines(string(head)),
		FromFile: baseName,
		ToFile:   headName,
		Context:  a.context,
	}
	text, err := difflib.GetUnifiedDiffString(ud)
	if err != nil {
		return fmt.Sprintf("error computing diff: %s", err)
	}
	return strings.TrimSpace(text)
}
