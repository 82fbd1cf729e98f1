package domain

// FindingKind identifies the rule a finding violates.
type FindingKind string

// Finding kinds, one per rule.
const (
	FindingSchemaViolation      FindingKind = "schema_violation"
	FindingIdentityMismatch     FindingKind = "identity_mismatch"
	FindingStepStructure        FindingKind = "step_structure"
	FindingStepSequence         FindingKind = "step_sequence"
	FindingBodyFormat           FindingKind = "body_format"
	FindingMissingSteps         FindingKind = "missing_steps"
	FindingMalformedFrontmatter FindingKind = "malformed_frontmatter"
)

// Finding represents a validation issue discovered in a single document.
type Finding struct {
	Kind    FindingKind
	Path    string
	Line    int // 1-based; 0 when the finding is not tied to a line
	Message string

	// Location, Keyword and Property are only set for schema violations.
	Location string
	Keyword  string
	Property string

	// Hint is an optional suggestion for resolving the finding.
	Hint string
}

// SchemaError is one violated schema rule.
type SchemaError struct {
	// Location is a JSON pointer into the metadata; empty means the root.
	Location string
	// Keyword is the schema keyword that failed, such as "required".
	Keyword string
	Message string
	// Property names the rejected additional property or the missing
	// required property, when the keyword concerns one.
	Property string
}

// Finding converts the schema error into a finding for path.
func (e SchemaError) Finding(path string) Finding {
	return Finding{
		Kind:     FindingSchemaViolation,
		Path:     path,
		Message:  e.Message,
		Location: e.Location,
		Keyword:  e.Keyword,
		Property: e.Property,
	}
}

// DocumentResult collects every finding for one document.
type DocumentResult struct {
	Path     string
	Findings []Finding
}

// Passed reports whether the document has no findings.
func (r DocumentResult) Passed() bool {
	return len(r.Findings) == 0
}

// SchemaFindings returns the schema violations in r, in order.
func (r DocumentResult) SchemaFindings() []Finding {
	return r.filter(func(f Finding) bool { return f.Kind == FindingSchemaViolation })
}

// OtherFindings returns every finding of r that is not a schema violation, in order.
func (r DocumentResult) OtherFindings() []Finding {
	return r.filter(func(f Finding) bool { return f.Kind != FindingSchemaViolation })
}

func (r DocumentResult) filter(keep func(Finding) bool) []Finding {
	var out []Finding
	for _, f := range r.Findings {
		if keep(f) {
			out = append(out, f)
		}
	}
	return out
}
