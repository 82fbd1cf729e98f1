// Package schema compiles the test case JSON Schema and validates front
// matter against it, reporting every violated rule.
package schema

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/santhosh-tekuri/jsonschema/v6/kind"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/eykd/casecheck-go/internal/domain"
)

// Schema is a compiled front matter schema. It is safe for concurrent use.
type Schema struct {
	name     string
	compiled *jsonschema.Schema
}

// Compile decodes and compiles the JSON Schema in data. The 2020-12 dialect
// is assumed when the document has no $schema, and format keywords are
// asserted rather than treated as annotations.
func Compile(name string, data []byte) (*Schema, error) {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding schema %s: %w", name, err)
	}

	url := resourceURL(name)
	c := jsonschema.NewCompiler()
	c.DefaultDraft(jsonschema.Draft2020)
	c.AssertFormat()
	if err := c.AddResource(url, doc); err != nil {
		return nil, fmt.Errorf("adding schema %s: %w", name, err)
	}

	compiled, err := c.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("compiling schema %s: %w", name, err)
	}
	return &Schema{name: name, compiled: compiled}, nil
}

// Name returns the name the schema was compiled under.
func (s *Schema) Name() string { return s.name }

// Validate checks meta against the schema and returns every violation,
// ordered by location. It returns nil when meta is valid.
func (s *Schema) Validate(meta map[string]any) []domain.SchemaError {
	inst, err := toInstance(meta)
	if err != nil {
		return []domain.SchemaError{{Message: err.Error()}}
	}

	err = s.compiled.Validate(inst)
	if err == nil {
		return nil
	}
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return []domain.SchemaError{{Message: err.Error()}}
	}

	p := message.NewPrinter(language.English)
	var out []domain.SchemaError
	collectLeaves(ve, p, &out)

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Location != b.Location {
			return a.Location < b.Location
		}
		if a.Keyword != b.Keyword {
			return a.Keyword < b.Keyword
		}
		if a.Property != b.Property {
			return a.Property < b.Property
		}
		return a.Message < b.Message
	})
	return out
}

// collectLeaves flattens the error tree into one record per failed keyword.
// Keywords naming several properties yield one record per property.
func collectLeaves(ve *jsonschema.ValidationError, p *message.Printer, out *[]domain.SchemaError) {
	if len(ve.Causes) > 0 {
		for _, cause := range ve.Causes {
			collectLeaves(cause, p, out)
		}
		return
	}

	loc := Pointer(ve.InstanceLocation)
	keyword := ""
	if path := ve.ErrorKind.KeywordPath(); len(path) > 0 {
		keyword = path[0]
	}

	switch k := ve.ErrorKind.(type) {
	case *kind.AdditionalProperties:
		for _, prop := range k.Properties {
			single := &kind.AdditionalProperties{Properties: []string{prop}}
			*out = append(*out, domain.SchemaError{
				Location: loc,
				Keyword:  keyword,
				Message:  single.LocalizedString(p),
				Property: prop,
			})
		}
	case *kind.Required:
		for _, prop := range k.Missing {
			single := &kind.Required{Missing: []string{prop}}
			*out = append(*out, domain.SchemaError{
				Location: loc,
				Keyword:  keyword,
				Message:  single.LocalizedString(p),
				Property: prop,
			})
		}
	default:
		*out = append(*out, domain.SchemaError{
			Location: loc,
			Keyword:  keyword,
			Message:  ve.ErrorKind.LocalizedString(p),
		})
	}
}

// Pointer renders instance location tokens as a JSON pointer.
// The root is the empty string.
func Pointer(tokens []string) string {
	if len(tokens) == 0 {
		return ""
	}
	var b strings.Builder
	for _, tok := range tokens {
		b.WriteByte('/')
		tok = strings.ReplaceAll(tok, "~", "~0")
		tok = strings.ReplaceAll(tok, "/", "~1")
		b.WriteString(tok)
	}
	return b.String()
}

// toInstance re-decodes meta so that numbers are json.Number, the
// representation the validator compares exactly.
func toInstance(meta map[string]any) (any, error) {
	if meta == nil {
		meta = map[string]any{}
	}
	data, err := json.Marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("encoding front matter: %w", err)
	}
	return jsonschema.UnmarshalJSON(bytes.NewReader(data))
}

func resourceURL(name string) string {
	abs, err := filepath.Abs(name)
	if err != nil {
		abs = name
	}
	return "file:///" + strings.TrimPrefix(filepath.ToSlash(abs), "/")
}
