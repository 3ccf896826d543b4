package rimepatch

import (
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// Diff compares two renderings of a patch document.
type Diff struct {
	Text      string `json:"text"`
	Additions int    `json:"additions"`
	Deletions int    `json:"deletions"`
}

// Changed reports whether the renderings differ.
func (d Diff) Changed() bool {
	return d.Additions > 0 || d.Deletions > 0
}

// DiffPreview returns a full-context line diff from before to after, each line
// prefixed with "+", "-" or a space, headed with label when it is not empty.
// Identical inputs produce an empty Diff.
func DiffPreview(label, before, after string) Diff {
	if before == after {
		return Diff{}
	}

	dmp := diffmatchpatch.New()
	a, b, lineArray := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffMain(a, b, false)
	diffs = dmp.DiffCharsToLines(diffs, lineArray)

	var out Diff
	var builder strings.Builder
	if label != "" {
		fmt.Fprintf(&builder, "--- %s\n+++ %s\n", label, label)
	}
	for _, d := range diffs {
		prefix := " "
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			prefix = "+"
			out.Additions += countLines(d.Text)
		case diffmatchpatch.DiffDelete:
			prefix = "-"
			out.Deletions += countLines(d.Text)
		}
		for _, line := range splitLines(d.Text) {
			builder.WriteString(prefix)
			builder.WriteString(line)
			builder.WriteByte('\n')
		}
	}
	out.Text = builder.String()
	return out
}

// splitLines splits text on newlines, dropping the empty tail after a final
// newline.
func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(text, "\n"), "\n")
}

func countLines(text string) int {
	if text == "" {
		return 0
	}
	lines := strings.Count(text, "\n")
	if !strings.HasSuffix(text, "\n") {
		lines++
	}
	return lines
}
