// Package phrases reads, edits and writes Rime custom_phrase.txt files.
package phrases

import (
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// FileName is the phrase table Rime reads from the user directory.
const FileName = "custom_phrase.txt"

// DefaultHeader is used when a file has no header of its own.
const DefaultHeader = "# Rime custom phrase\n# encoding: utf-8\n#\n# format: phrase<TAB>code<TAB>weight\n#\n"

const yamlTerminator = "..."

// Entry is one phrase line. ID is assigned on parse and never written out.
type Entry struct {
	ID     string `json:"id"`
	Phrase string `json:"phrase"`
	Code   string `json:"code"`
	Weight *int64 `json:"weight,omitempty"`
}

// Data is a parsed phrase file.
type Data struct {
	Header  string  `json:"header"`
	Entries []Entry `json:"entries"`
}

var newID = uuid.NewString

// Parse splits text into its header and entries. When the file carries a
// YAML front block closed by "...", the header runs through that line;
// otherwise it is the run of leading comment and blank lines. Entry lines are
// phrase<TAB>code[<TAB>weight]; lines with fewer than two fields and comment
// lines after the header are skipped, and a weight that is not an integer is
// dropped.
func Parse(text string) Data {
	lines := splitLines(text)
	headerEnd := headerLength(lines)

	data := Data{Header: DefaultHeader}
	if headerEnd > 0 {
		data.Header = strings.Join(lines[:headerEnd], "\n") + "\n"
	}
	for _, line := range lines[headerEnd:] {
		entry, ok := parseEntry(line)
		if ok {
			data.Entries = append(data.Entries, entry)
		}
	}
	return data
}

// splitLines splits on newlines without a length limit. A final newline does
// not start an empty line.
func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	lines := strings.Split(strings.TrimSuffix(text, "\n"), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}

func headerLength(lines []string) int {
	for i, line := range lines {
		if strings.TrimSpace(line) == yamlTerminator {
			return i + 1
		}
	}
	n := 0
	for _, line := range lines {
		if !strings.HasPrefix(line, "#") && strings.TrimSpace(line) != "" {
			break
		}
		n++
	}
	return n
}

func parseEntry(line string) (Entry, bool) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") {
		return Entry{}, false
	}
	parts := strings.Split(trimmed, "\t")
	if len(parts) < 2 {
		return Entry{}, false
	}
	entry := Entry{ID: newID(), Phrase: parts[0], Code: parts[1]}
	if len(parts) >= 3 && parts[2] != "" {
		if weight, err := strconv.ParseInt(parts[2], 10, 64); err == nil {
			entry.Weight = &weight
		}
	}
	return entry, true
}

// Serialize writes the header, trimmed at the end, followed by one line per
// entry and a trailing newline.
func Serialize(data Data) string {
	var b strings.Builder
	b.WriteString(strings.TrimRight(data.Header, " \t\r\n"))
	for _, entry := range data.Entries {
		b.WriteByte('\n')
		b.WriteString(entry.Phrase)
		b.WriteByte('\t')
		b.WriteString(entry.Code)
		if entry.Weight != nil {
			b.WriteByte('\t')
			b.WriteString(strconv.FormatInt(*entry.Weight, 10))
		}
	}
	b.WriteByte('\n')
	return b.String()
}

// Same reports whether two entries carry the same phrase, code and weight.
// IDs are ignored.
func Same(a, b Entry) bool {
	if a.Phrase != b.Phrase || a.Code != b.Code {
		return false
	}
	if a.Weight == nil || b.Weight == nil {
		return a.Weight == nil && b.Weight == nil
	}
	return *a.Weight == *b.Weight
}

func cloneEntries(entries []Entry) []Entry {
	out := make([]Entry, len(entries))
	for i, entry := range entries {
		out[i] = entry
		if entry.Weight != nil {
			w := *entry.Weight
			out[i].Weight = &w
		}
	}
	return out
}
