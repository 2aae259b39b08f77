package schema

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"

	"github.com/lestrrat-go/libxml2"
	"github.com/lestrrat-go/libxml2/xsd"
)

// Diagnostic is one validator message, in the order the validator reported
// it. Line is zero when the validator did not report one.
type Diagnostic struct {
	Source  string
	Line    int
	Message string
}

func (d Diagnostic) String() string {
	if d.Line > 0 {
		return fmt.Sprintf("%s:%d: %s", d.Source, d.Line, d.Message)
	}
	return fmt.Sprintf("%s: %s", d.Source, d.Message)
}

// Outcome is the result of validating one document against one schema.
type Outcome struct {
	OK          bool
	Diagnostics []Diagnostic
}

// libxml2 prefixes some messages with an "Entity: line N:" style location;
// lift it into the structured diagnostic when present.
var lineRe = regexp.MustCompile(`^(?:Entity|Element|.*?): line (\d+): ?`)

// ValidateFile validates the XML document at xmlPath against the given
// schema. A schema that cannot be parsed is reported as a failed outcome
// carrying the parser's messages, not as a process error.
func ValidateFile(xmlPath string, s Schema) Outcome {
	compiled, diags := compile(s)
	if compiled == nil {
		return Outcome{OK: false, Diagnostics: diags}
	}
	defer compiled.Free()

	raw, err := os.ReadFile(xmlPath)
	if err != nil {
		return failure(xmlPath, err)
	}

	doc, err := libxml2.Parse(raw)
	if err != nil {
		return failure(xmlPath, fmt.Errorf("parse xml: %w", err))
	}
	defer doc.Free()

	if err := compiled.Validate(doc); err != nil {
		var sve xsd.SchemaValidationError
		if errors.As(err, &sve) {
			out := Outcome{OK: false}
			for _, verr := range sve.Errors() {
				out.Diagnostics = append(out.Diagnostics, newDiagnostic(xmlPath, verr.Error()))
			}
			return out
		}
		return failure(xmlPath, err)
	}

	return Outcome{OK: true}
}

func compile(s Schema) (*xsd.Schema, []Diagnostic) {
	raw := s.Inline
	if raw == nil {
		var err error
		raw, err = os.ReadFile(s.Path)
		if err != nil {
			return nil, []Diagnostic{{Source: s.Name, Message: err.Error()}}
		}
	}

	compiled, err := xsd.Parse(raw)
	if err != nil {
		return nil, []Diagnostic{{Source: s.Name, Message: fmt.Sprintf("could not parse schema: %v", err)}}
	}
	return compiled, nil
}

func failure(source string, err error) Outcome {
	return Outcome{OK: false, Diagnostics: []Diagnostic{{Source: source, Message: err.Error()}}}
}

func newDiagnostic(source, message string) Diagnostic {
	if m := lineRe.FindStringSubmatch(message); m != nil {
		if line, err := strconv.Atoi(m[1]); err == nil {
			return Diagnostic{Source: source, Line: line, Message: message[len(m[0]):]}
		}
	}
	return Diagnostic{Source: source, Message: message}
}
