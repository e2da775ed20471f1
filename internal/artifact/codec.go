package artifact

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const frontmatterDelim = "---"

// frontmatter is the YAML metadata block at the top of every artifact file.
// Timestamps are kept as RFC 3339 strings so the file stays stable across
// YAML timestamp handling quirks.
type frontmatter struct {
	ID           string      `yaml:"id"`
	Type         Type        `yaml:"type"`
	Title        string      `yaml:"title"`
	Status       Status      `yaml:"status"`
	CreatedAt    string      `yaml:"createdAt"`
	UpdatedAt    string      `yaml:"updatedAt"`
	Owner        string      `yaml:"owner"`
	Tags         []string    `yaml:"tags"`
	References   []Reference `yaml:"references,omitempty"`
	SupersededBy string      `yaml:"supersededBy,omitempty"`
	Phases       []Phase     `yaml:"phases,omitempty"`
}

// Marshal renders an artifact in its canonical on-disk form:
//
//	---
//	<yaml frontmatter>
//	---
//
//	# Title
//
//	## Section
//
//	body
func Marshal(a *Artifact) ([]byte, error) {
	fm := frontmatter{
		ID:           a.ID,
		Type:         a.Type,
		Title:        a.Title,
		Status:       a.Status,
		CreatedAt:    a.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt:    a.UpdatedAt.UTC().Format(time.RFC3339Nano),
		Owner:        a.Owner,
		Tags:         a.Tags,
		References:   a.References,
		SupersededBy: a.SupersededBy,
		Phases:       a.Phases,
	}
	if fm.Tags == nil {
		fm.Tags = []string{}
	}

	var buf bytes.Buffer
	buf.WriteString(frontmatterDelim + "\n")
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(fm); err != nil {
		return nil, &Error{Kind: ErrSerialization, Op: "marshal", ID: a.ID, Err: err}
	}
	if err := enc.Close(); err != nil {
		return nil, &Error{Kind: ErrSerialization, Op: "marshal", ID: a.ID, Err: err}
	}
	buf.WriteString(frontmatterDelim + "\n")

	if a.Title != "" {
		fmt.Fprintf(&buf, "\n# %s\n", a.Title)
	}
	for _, s := range a.Sections {
		fmt.Fprintf(&buf, "\n## %s\n", s.Heading)
		if body := trimBlankLines(s.Body); body != "" {
			fmt.Fprintf(&buf, "\n%s\n", body)
		}
	}
	return buf.Bytes(), nil
}

// Unmarshal parses the canonical on-disk form produced by Marshal.
// Any structural problem is reported as ErrSerialization.
func Unmarshal(data []byte) (*Artifact, error) {
	text := strings.ReplaceAll(string(data), "\r\n", "\n")

	if !strings.HasPrefix(text, frontmatterDelim+"\n") {
		return nil, &Error{Kind: ErrSerialization, Op: "unmarshal", Err: fmt.Errorf("missing frontmatter opening delimiter")}
	}
	rest := text[len(frontmatterDelim)+1:]

	var rawFM, body string
	switch {
	case strings.HasPrefix(rest, frontmatterDelim+"\n"), rest == frontmatterDelim:
		// Empty frontmatter.
		body = strings.TrimPrefix(rest, frontmatterDelim)
	default:
		end := strings.Index(rest, "\n"+frontmatterDelim+"\n")
		if end < 0 {
			if !strings.HasSuffix(rest, "\n"+frontmatterDelim) {
				return nil, &Error{Kind: ErrSerialization, Op: "unmarshal", Err: fmt.Errorf("missing frontmatter closing delimiter")}
			}
			end = len(rest) - len(frontmatterDelim) - 1
		}
		rawFM = rest[:end]
		body = rest[min(len(rest), end+len(frontmatterDelim)+2):]
	}

	var fm frontmatter
	if err := yaml.Unmarshal([]byte(rawFM), &fm); err != nil {
		return nil, &Error{Kind: ErrSerialization, Op: "unmarshal", Err: fmt.Errorf("parsing frontmatter: %w", err)}
	}

	idType, err := ValidateID(fm.ID)
	if err != nil {
		return nil, &Error{Kind: ErrSerialization, Op: "unmarshal", ID: fm.ID, Err: err}
	}
	if fm.Type != idType {
		return nil, &Error{Kind: ErrSerialization, Op: "unmarshal", ID: fm.ID, Err: fmt.Errorf("type %q does not match ID prefix (want %q)", fm.Type, idType)}
	}

	createdAt, err := time.Parse(time.RFC3339Nano, fm.CreatedAt)
	if err != nil {
		return nil, &Error{Kind: ErrSerialization, Op: "unmarshal", ID: fm.ID, Err: fmt.Errorf("parsing createdAt: %w", err)}
	}
	updatedAt, err := time.Parse(time.RFC3339Nano, fm.UpdatedAt)
	if err != nil {
		return nil, &Error{Kind: ErrSerialization, Op: "unmarshal", ID: fm.ID, Err: fmt.Errorf("parsing updatedAt: %w", err)}
	}

	a := &Artifact{
		ID:           fm.ID,
		Type:         fm.Type,
		Title:        fm.Title,
		Status:       fm.Status,
		CreatedAt:    createdAt,
		UpdatedAt:    updatedAt,
		Owner:        fm.Owner,
		Tags:         fm.Tags,
		References:   fm.References,
		SupersededBy: fm.SupersededBy,
		Phases:       fm.Phases,
		Sections:     parseSections(body),
	}
	return a, nil
}

// parseSections splits a Markdown body on "## " headings. Text before the
// first heading (the "# Title" line) is not part of any section. Headings
// inside fenced code blocks belong to the enclosing section.
func parseSections(body string) []Section {
	var (
		sections []Section
		current  *Section
		lines    []string
		fence    string
	)
	flush := func() {
		if current != nil {
			current.Body = trimBlankLines(strings.Join(lines, "\n"))
			sections = append(sections, *current)
		}
		lines = nil
	}

	for _, line := range strings.Split(body, "\n") {
		if fence == "" && strings.HasPrefix(line, "## ") {
			flush()
			current = &Section{Heading: strings.TrimSpace(line[3:])}
			continue
		}
		fence = nextFence(fence, line)
		if current != nil {
			lines = append(lines, line)
		}
	}
	flush()
	return sections
}

// nextFence returns the open fence marker after line: a run of three or
// more backticks or tildes opens a block, and a run of the same character
// at least as long with nothing after it closes it.
func nextFence(open, line string) string {
	trimmed := strings.TrimLeft(line, " ")
	if len(line)-len(trimmed) > 3 || trimmed == "" {
		return open
	}
	ch := trimmed[0]
	if ch != '`' && ch != '~' {
		return open
	}
	n := len(trimmed) - len(strings.TrimLeft(trimmed, string(ch)))
	if n < 3 {
		return open
	}
	if open == "" {
		return trimmed[:n]
	}
	if ch == open[0] && n >= len(open) && strings.TrimSpace(trimmed[n:]) == "" {
		return ""
	}
	return open
}

// trimBlankLines drops whitespace-only lines at both ends of s and keeps
// the indentation of the remaining lines.
func trimBlankLines(s string) string {
	lines := strings.Split(s, "\n")
	start, end := 0, len(lines)
	for start < end && strings.TrimSpace(lines[start]) == "" {
		start++
	}
	for end > start && strings.TrimSpace(lines[end-1]) == "" {
		end--
	}
	return strings.Join(lines[start:end], "\n")
}
