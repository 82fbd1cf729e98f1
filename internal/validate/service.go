// Package validate provides the application service that checks test case
// documents and aggregates their findings.
package validate

import (
	"context"
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/sourcegraph/conc/iter"

	"github.com/eykd/casecheck-go/internal/domain"
)

// Errors returned by NewService for missing dependencies.
var (
	ErrNoSchema = errors.New("no schema configured")
	ErrNoParser = errors.New("no front matter parser configured")
)

// SchemaChecker abstracts validation of decoded front matter against the schema.
type SchemaChecker interface {
	Validate(meta map[string]any) []domain.SchemaError
}

// ParsedDocument is a raw document split into decoded front matter and body.
type ParsedDocument struct {
	Metadata map[string]any
	Body     string
	// BodyLine is the 1-based line on which Body starts; 0 when unknown.
	BodyLine int
}

// FrontmatterParser abstracts splitting and decoding a raw document.
// On a decoding error it may still return the body.
type FrontmatterParser interface {
	Parse(raw string) (ParsedDocument, error)
}

// Slugifier abstracts turning a title into a filename slug.
type Slugifier interface {
	Slug(s string) string
}

// DocumentSource abstracts discovering and reading corpus documents.
type DocumentSource interface {
	List(ctx context.Context) ([]string, error)
	ReadFile(ctx context.Context, path string) (string, error)
}

// RunResult holds the per-document results of a run, ordered by path.
type RunResult struct {
	Documents []domain.DocumentResult
}

// Passed reports whether every document passed every applicable check.
// A run over zero documents passes.
func (r *RunResult) Passed() bool {
	return r.FailedDocuments() == 0
}

// FailedDocuments returns the number of documents with at least one finding.
func (r *RunResult) FailedDocuments() int {
	n := 0
	for _, d := range r.Documents {
		if !d.Passed() {
			n++
		}
	}
	return n
}

// FindingCount returns the total number of findings across all documents.
func (r *RunResult) FindingCount() int {
	n := 0
	for _, d := range r.Documents {
		n += len(d.Findings)
	}
	return n
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger used for debug output.
func WithLogger(logger log.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithRequireSteps reports documents whose body has no numbered steps.
func WithRequireSteps(require bool) Option {
	return func(s *Service) { s.requireSteps = require }
}

// WithAllChecks runs the identity and steps checks even when schema
// validation fails.
func WithAllChecks(all bool) Option {
	return func(s *Service) { s.allChecks = all }
}

// WithFileLines reports body findings by file line instead of by line
// within the body.
func WithFileLines(fileLines bool) Option {
	return func(s *Service) { s.fileLines = fileLines }
}

// WithConcurrency sets how many documents are validated in parallel.
// Values below 1 mean sequential.
func WithConcurrency(n int) Option {
	return func(s *Service) { s.concurrency = n }
}

// WithSlugifier enables filename suggestions on identity mismatches.
func WithSlugifier(slugger Slugifier) Option {
	return func(s *Service) { s.slugger = slugger }
}

// Service validates documents against the schema and the structural rules.
// It holds no mutable state and may validate documents concurrently.
type Service struct {
	schema       SchemaChecker
	parser       FrontmatterParser
	slugger      Slugifier
	logger       log.Logger
	requireSteps bool
	allChecks    bool
	fileLines    bool
	concurrency  int
}

// NewService creates a Service with the given dependencies.
func NewService(schema SchemaChecker, parser FrontmatterParser, opts ...Option) (*Service, error) {
	if schema == nil {
		return nil, ErrNoSchema
	}
	if parser == nil {
		return nil, ErrNoParser
	}
	s := &Service{
		schema:      schema,
		parser:      parser,
		logger:      log.NewNopLogger(),
		concurrency: 1,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.concurrency < 1 {
		s.concurrency = 1
	}
	return s, nil
}

// Run validates every document in src. Results are ordered by path and
// include passing documents. Listing or reading failures abort the run.
func (s *Service) Run(ctx context.Context, src DocumentSource) (*RunResult, error) {
	listed, err := src.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	paths := append([]string(nil), listed...)
	sort.Strings(paths)

	level.Debug(s.logger).Log("msg", "validating corpus", "documents", len(paths), "concurrency", s.concurrency)

	mapper := iter.Mapper[string, domain.DocumentResult]{MaxGoroutines: s.concurrency}
	results, err := mapper.MapErr(paths, func(p *string) (domain.DocumentResult, error) {
		if err := ctx.Err(); err != nil {
			return domain.DocumentResult{Path: *p}, err
		}
		raw, err := src.ReadFile(ctx, *p)
		if err != nil {
			return domain.DocumentResult{Path: *p}, fmt.Errorf("reading %s: %w", *p, err)
		}
		return s.ValidateDocument(*p, raw), nil
	})
	if err != nil {
		return nil, err
	}

	return &RunResult{Documents: results}, nil
}

// ValidateDocument runs every applicable check on one raw document.
//
// Schema violations skip the identity and steps checks unless all-checks
// mode is enabled; the body check always runs.
func (s *Service) ValidateDocument(path, raw string) domain.DocumentResult {
	result := domain.DocumentResult{Path: path}

	parsed, err := s.parser.Parse(raw)
	if err != nil {
		result.Findings = append(result.Findings, domain.Finding{
			Kind:    domain.FindingMalformedFrontmatter,
			Path:    path,
			Message: fmt.Sprintf("Front matter could not be parsed: %v", err),
		})
		if parsed.BodyLine > 0 {
			result.Findings = append(result.Findings, s.checkBody(path, parsed)...)
		}
		s.logResult(result)
		return result
	}

	meta := domain.NewMetadata(parsed.Metadata)

	schemaErrs := s.schema.Validate(parsed.Metadata)
	for _, e := range schemaErrs {
		result.Findings = append(result.Findings, e.Finding(path))
	}

	if len(schemaErrs) == 0 || s.allChecks {
		if id, ok := meta.ID(); ok {
			result.Findings = append(result.Findings, s.checkIdentity(path, id, meta)...)
		}
		if steps, ok := meta.Steps(); ok {
			result.Findings = append(result.Findings, domain.CheckSteps(path, steps)...)
		}
	}

	result.Findings = append(result.Findings, s.checkBody(path, parsed)...)

	s.logResult(result)
	return result
}

func (s *Service) checkIdentity(path, id string, meta domain.Metadata) []domain.Finding {
	findings := domain.CheckIdentity(path, id)
	if len(findings) == 0 || s.slugger == nil {
		return findings
	}
	if title, ok := meta.Title(); ok {
		findings[0].Hint = suggestFilename(path, id, s.slugger.Slug(title))
	}
	return findings
}

func (s *Service) checkBody(path string, parsed ParsedDocument) []domain.Finding {
	offset := 0
	if s.fileLines && parsed.BodyLine > 0 {
		offset = parsed.BodyLine - 1
	}
	return domain.CheckBodySteps(path, parsed.Body, domain.BodyStepOptions{
		RequireSteps: s.requireSteps,
		LineOffset:   offset,
	})
}

// suggestFilename proposes a base name that satisfies the identity rule.
func suggestFilename(p, id, slug string) string {
	ext := path.Ext(strings.ReplaceAll(p, `\`, "/"))
	if slug == "" {
		return id + ext
	}
	return id + "-" + slug + ext
}

func (s *Service) logResult(r domain.DocumentResult) {
	level.Debug(s.logger).Log("msg", "validated document", "path", r.Path, "passed", r.Passed(), "findings", len(r.Findings))
}
