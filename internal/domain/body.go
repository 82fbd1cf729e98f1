package domain

import (
	"github.com/grafana/regexp"
)

// Whitespace includes \v, Unicode separators and the byte order mark, not
// only the ASCII set matched by \s.
const (
	space    = `[\s\v\p{Z}\x{FEFF}]`
	nonSpace = `[^\s\v\p{Z}\x{FEFF}]`
)

var (
	lineBreakRegex    = regexp.MustCompile(`\r\n|\r|\n`)
	bodyStepRegex     = regexp.MustCompile(`^` + space + `*\d+\.` + space + `+` + nonSpace)
	expectedLineRegex = regexp.MustCompile(`^` + space + `*\*\*Expected:\*\*` + space + `+` + nonSpace)
)

const (
	msgStepWithoutExpected = `Step is not followed by "**Expected:** ..." on the next line`
	msgNoBodySteps         = `No numbered steps found (e.g., "1. ...")`
)

// BodyStepOptions configures CheckBodySteps.
type BodyStepOptions struct {
	// RequireSteps reports a body without any numbered item.
	RequireSteps bool
	// LineOffset is added to body line numbers so findings point at file lines.
	LineOffset int
}

// SplitLines splits text on any of \r\n, \r or \n.
func SplitLines(text string) []string {
	return lineBreakRegex.Split(text, -1)
}

// IsBodyStep reports whether line is a numbered list item such as "1. Do it".
func IsBodyStep(line string) bool {
	return bodyStepRegex.MatchString(line)
}

// IsExpectedLine reports whether line is an expectation such as
// "**Expected:** It works".
func IsExpectedLine(line string) bool {
	return expectedLineRegex.MatchString(line)
}

// CheckBodySteps verifies that every numbered item in body is immediately
// followed by an expectation line. Every offending item is reported.
func CheckBodySteps(p, body string, opts BodyStepOptions) []Finding {
	lines := SplitLines(body)

	var findings []Finding
	count := 0
	for i, line := range lines {
		if !IsBodyStep(line) {
			continue
		}
		count++

		next := ""
		if i+1 < len(lines) {
			next = lines[i+1]
		}
		if !IsExpectedLine(next) {
			findings = append(findings, Finding{
				Kind:    FindingBodyFormat,
				Path:    p,
				Line:    i + 1 + opts.LineOffset,
				Message: msgStepWithoutExpected,
			})
		}
	}

	if opts.RequireSteps && count == 0 {
		findings = append(findings, Finding{
			Kind:    FindingMissingSteps,
			Path:    p,
			Message: msgNoBodySteps,
		})
	}
	return findings
}
