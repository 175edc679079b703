package deb

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/godsvagn/godsvagn/internal/models"
)

// Field is a single control stanza entry. Value holds the rendered
// form: multi-line values embed "\n" followed by the continuation
// line's original leading whitespace.
type Field struct {
	Name  string
	Value string
}

// Stanza is an ordered control stanza. Field order is preserved from
// the source text so that re-rendering reproduces the original layout.
type Stanza struct {
	fields []Field
}

// Fields returns the stanza entries in original order
func (s *Stanza) Fields() []Field {
	return s.fields
}

// Get returns the value of the named field. Field name matching is
// case-insensitive, as in Debian control files.
func (s *Stanza) Get(name string) (string, bool) {
	for _, f := range s.fields {
		if strings.EqualFold(f.Name, name) {
			return f.Value, true
		}
	}
	return "", false
}

// Set overrides the named field in place, or appends it when absent.
// An override keeps the field's original position and canonicalizes
// its name.
func (s *Stanza) Set(name, value string) {
	for i, f := range s.fields {
		if strings.EqualFold(f.Name, name) {
			s.fields[i] = Field{Name: name, Value: value}
			return
		}
	}
	s.fields = append(s.fields, Field{Name: name, Value: value})
}

// Render serializes the stanza as "Name: value" lines with "\n"
// endings. Continuation lines are carried inside the values, so the
// output is byte-stable for a given stanza.
func (s *Stanza) Render() string {
	var b strings.Builder
	for _, f := range s.fields {
		b.WriteString(f.Name)
		b.WriteString(": ")
		b.WriteString(f.Value)
		b.WriteString("\n")
	}
	return b.String()
}

// requiredFields must be present in every ingested control stanza
var requiredFields = []string{"Package", "Version", "Architecture", "Description"}

// ParseStanza parses Debian control text into an ordered stanza.
// Lines beginning with whitespace continue the previous field's value.
// Duplicate field names are rejected.
func ParseStanza(data []byte) (*Stanza, error) {
	stanza := &Stanza{}
	seen := make(map[string]bool)

	var currentName string
	var currentValue strings.Builder

	flush := func() {
		if currentName != "" {
			stanza.fields = append(stanza.fields, Field{
				Name:  currentName,
				Value: currentValue.String(),
			})
			currentName = ""
			currentValue.Reset()
		}
	}

	scanner := bufio.NewScanner(strings.NewReader(string(data)))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")

		if line == "" {
			// A stanza ends at the first blank line; anything after
			// belongs to another paragraph and is not ours to parse.
			break
		}

		// Continuation lines keep their leading whitespace so the
		// rendered value reproduces the original layout.
		if line[0] == ' ' || line[0] == '\t' {
			if currentName == "" {
				return nil, parseErr(fmt.Errorf("continuation line without a field"))
			}
			currentValue.WriteString("\n")
			currentValue.WriteString(line)
			continue
		}

		flush()

		name, rest, ok := strings.Cut(line, ":")
		if !ok || strings.TrimSpace(name) == "" {
			return nil, parseErr(fmt.Errorf("malformed control line %q", line))
		}
		name = strings.TrimSpace(name)
		if seen[strings.ToLower(name)] {
			return nil, parseErr(fmt.Errorf("duplicate control field %q", name))
		}
		seen[strings.ToLower(name)] = true

		currentName = name
		currentValue.WriteString(strings.TrimSpace(rest))
	}
	if err := scanner.Err(); err != nil {
		return nil, parseErr(err)
	}
	flush()

	if len(stanza.fields) == 0 {
		return nil, parseErr(fmt.Errorf("empty control stanza"))
	}

	return stanza, nil
}

// ValidateControl checks that all fields required for cataloging are
// present
func ValidateControl(s *Stanza) error {
	var missing []string
	for _, name := range requiredFields {
		if _, ok := s.Get(name); !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return parseErr(fmt.Errorf("missing control fields: %s", strings.Join(missing, ", ")))
	}
	return nil
}

func parseErr(err error) error {
	return models.WrapError(models.ErrParse, "", err)
}
