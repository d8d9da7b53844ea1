// Package testutil provides test utilities for CLI testing.
package testutil

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/leapstack-labs/portion/internal/cli/output"
)

// Recipes used by command tests.
const (
	PancakeRecipe = `Pancakes
Whisk 1 ½ cups flour, 2 T sugar and 1 tsp salt.
Add 1 1/4 cups milk and 2 eggs.
Cook 3 min per side on a 375°F griddle.
`
	BrokenRecipe = "Add 1/0 cup water, then 2 tsp salt.\n"
)

// SetupTestRecipes creates a temporary directory holding recipe files.
func SetupTestRecipes(t *testing.T) string {
	t.Helper()

	tmpDir := t.TempDir()
	files := map[string]string{
		"pancakes.txt": PancakeRecipe,
		"broken.txt":   BrokenRecipe,
		"notes.md":     "Nothing to measure here.\n",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(tmpDir, name), []byte(content), 0o644); err != nil {
			t.Fatalf("failed to create %s: %v", name, err)
		}
	}
	return tmpDir
}

// TestRenderer is a Renderer writing into buffers.
type TestRenderer struct {
	*output.Renderer
	Out    *bytes.Buffer
	ErrOut *bytes.Buffer
}

// NewTestRenderer returns a renderer in mode that believes it writes to a
// terminal when isTTY is set.
func NewTestRenderer(mode output.Mode, isTTY bool) *TestRenderer {
	tr := &TestRenderer{Out: new(bytes.Buffer), ErrOut: new(bytes.Buffer)}
	tr.Renderer = output.NewRendererWithTTY(tr.Out, tr.ErrOut, isTTY, mode)
	return tr
}

// NewTestRendererText returns a text renderer on a simulated terminal.
func NewTestRendererText() *TestRenderer {
	return NewTestRenderer(output.ModeText, true)
}

// Output returns what was written to standard output.
func (tr *TestRenderer) Output() string {
	return tr.Out.String()
}

// ErrorOutput returns what was written to the error output.
func (tr *TestRenderer) ErrorOutput() string {
	return tr.ErrOut.String()
}

var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// AssertNoANSI fails the test when s holds terminal escape codes.
func AssertNoANSI(t *testing.T, s string) {
	t.Helper()
	if ansiPattern.MatchString(s) {
		t.Errorf("string contains ANSI escape codes: %q", s)
	}
}

// AssertValidMarkdown checks md for unbalanced code fences, empty headings
// and pipe tables whose rows disagree on the column count.
func AssertValidMarkdown(t *testing.T, md string) {
	t.Helper()

	if fences := strings.Count(md, "```"); fences%2 != 0 {
		t.Errorf("unbalanced code fences in markdown: found %d occurrences", fences)
	}

	columns := 0
	for i, line := range strings.Split(md, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "#") && strings.TrimLeft(trimmed, "# ") == "" {
			t.Errorf("empty header at line %d: %q", i+1, line)
		}

		if !strings.HasPrefix(trimmed, "|") {
			columns = 0
			continue
		}
		n := strings.Count(trimmed, "|") - strings.Count(trimmed, `\|`)
		if columns == 0 {
			columns = n
		} else if n != columns {
			t.Errorf("table row at line %d has %d separators, want %d: %q", i+1, n, columns, line)
		}
	}
}
