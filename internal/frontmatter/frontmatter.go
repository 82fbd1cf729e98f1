// Package frontmatter splits test case documents into YAML front matter and
// body, and decodes the front matter into JSON-compatible values.
package frontmatter

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrUnclosed is returned when an opening --- has no matching closing line.
var ErrUnclosed = errors.New("unclosed frontmatter")

// ErrNotMapping is returned when the front matter is valid YAML but not a mapping.
var ErrNotMapping = errors.New("frontmatter is not a mapping")

const byteOrderMark = "\uFEFF"

// Parsed is a document split into decoded metadata and body text.
type Parsed struct {
	// Metadata holds JSON-compatible values: map[string]any, []any, string,
	// bool, int, int64, uint64, float64 and nil.
	Metadata map[string]any
	Body     string
	// BodyLine is the 1-based line of the input on which Body starts.
	BodyLine int
}

// Split separates a document into frontmatter and body components.
// Frontmatter is delimited by --- on its own line.
func Split(input string) (string, string, error) {
	fm, body, _, err := split(input)
	return fm, body, err
}

// split is Split that also returns the byte offset at which the body starts.
// A leading byte order mark is skipped and delimiter lines may end in \r\n.
func split(input string) (string, string, int, error) {
	start := 0
	if strings.HasPrefix(input, byteOrderMark) {
		start = len(byteOrderMark)
	}
	doc := input[start:]

	var open int
	switch {
	case strings.HasPrefix(doc, "---\n"):
		open = 4
	case strings.HasPrefix(doc, "---\r\n"):
		open = 5
	default:
		return "", doc, start, nil
	}

	rest := doc[open:]
	pos := 0
	for pos < len(rest) {
		nlIdx := strings.IndexByte(rest[pos:], '\n')

		var line string
		var nextPos int
		if nlIdx < 0 {
			line = rest[pos:]
			nextPos = len(rest)
		} else {
			line = rest[pos : pos+nlIdx]
			nextPos = pos + nlIdx + 1
		}

		if strings.TrimRight(line, " \t\r") == "---" {
			return rest[:pos], rest[nextPos:], start + open + nextPos, nil
		}

		pos = nextPos
	}

	return "", "", 0, ErrUnclosed
}

// Parse splits input and decodes its front matter.
// When the header can be split but not decoded, the returned Parsed still
// carries the body so that body checks can run.
func Parse(input string) (Parsed, error) {
	fm, body, offset, err := split(input)
	if err != nil {
		return Parsed{}, err
	}

	parsed := Parsed{
		Body:     body,
		BodyLine: strings.Count(input[:offset], "\n") + 1,
	}

	meta, err := Decode(fm)
	if err != nil {
		return parsed, err
	}
	parsed.Metadata = meta
	return parsed, nil
}

// Decode parses YAML front matter into a JSON-compatible mapping.
// Empty front matter decodes to an empty mapping.
func Decode(fm string) (map[string]any, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(fm), &doc); err != nil {
		return nil, fmt.Errorf("parse frontmatter: %w", err)
	}
	if doc.Kind == 0 {
		return map[string]any{}, nil
	}
	keepTimestampText(&doc)

	var raw any
	if err := doc.Decode(&raw); err != nil {
		return nil, fmt.Errorf("parse frontmatter: %w", err)
	}
	if raw == nil {
		return map[string]any{}, nil
	}

	meta, ok := normalize(raw).(map[string]any)
	if !ok {
		return nil, ErrNotMapping
	}
	return meta, nil
}

// keepTimestampText retags implicit timestamps as strings so that dates
// keep their source text instead of becoming time.Time values.
func keepTimestampText(n *yaml.Node) {
	if n.Kind == yaml.ScalarNode && n.Tag == "!!timestamp" && n.Style&yaml.TaggedStyle == 0 {
		n.Tag = "!!str"
	}
	for _, c := range n.Content {
		keepTimestampText(c)
	}
}

// normalize converts yaml.v3 output into values that encode as JSON.
func normalize(v any) any {
	switch x := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, item := range x {
			out[k] = normalize(item)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(x))
		for k, item := range x {
			out[fmt.Sprint(k)] = normalize(item)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, item := range x {
			out[i] = normalize(item)
		}
		return out
	case time.Time:
		return x.Format(time.RFC3339Nano)
	case float64:
		// JSON has no representation for .nan or .inf.
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return strconv.FormatFloat(x, 'g', -1, 64)
		}
		return x
	default:
		return x
	}
}
