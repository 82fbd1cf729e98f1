package cmd

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"runtime"

	"github.com/go-kit/log"
	"github.com/spf13/cobra"

	"github.com/eykd/casecheck-go/internal/domain"
	"github.com/eykd/casecheck-go/internal/fs"
	"github.com/eykd/casecheck-go/internal/validate"
)

// successMessage is printed on stdout when every document passes.
const successMessage = "All test cases passed validation."

// CheckOptions carries the check command's flags to the runner.
type CheckOptions struct {
	Root         string
	Schema       string
	Globs        []string
	Paths        []string
	RequireSteps bool
	AllChecks    bool
	FileLines    bool
	Jobs         int
	Logger       log.Logger
}

// CheckRunner defines the interface for validating a corpus.
type CheckRunner interface {
	Check(ctx context.Context, opts CheckOptions) (*validate.RunResult, error)
	WriteReport(ctx context.Context, path string, data []byte) error
}

// FindingsDetectedError is returned when check detects findings.
type FindingsDetectedError struct {
	Documents int
	Findings  int
}

// Error implements the error interface.
func (e *FindingsDetectedError) Error() string {
	return fmt.Sprintf("validation failed: %d finding(s) in %d document(s)", e.Findings, e.Documents)
}

// ExitCode returns the exit code for findings (always 2).
func (e *FindingsDetectedError) ExitCode() int {
	return 2
}

// findingJSON is one finding in JSON output.
type findingJSON struct {
	Kind     domain.FindingKind `json:"kind"`
	Line     int                `json:"line,omitempty"`
	Message  string             `json:"message"`
	Location *string            `json:"location,omitempty"`
	Keyword  string             `json:"keyword,omitempty"`
	Property string             `json:"property,omitempty"`
	Hint     string             `json:"hint,omitempty"`
}

type documentJSON struct {
	Path     string        `json:"path"`
	Passed   bool          `json:"passed"`
	Findings []findingJSON `json:"findings"`
}

// checkJSONResponse is the JSON output structure for the check command.
type checkJSONResponse struct {
	Documents []documentJSON `json:"documents"`
	Summary   struct {
		Documents int `json:"documents"`
		Failed    int `json:"failed"`
		Findings  int `json:"findings"`
	} `json:"summary"`
}

func newCheckJSONResponse(result *validate.RunResult) checkJSONResponse {
	out := checkJSONResponse{Documents: []documentJSON{}}
	for _, d := range result.Documents {
		doc := documentJSON{Path: d.Path, Passed: d.Passed(), Findings: []findingJSON{}}
		for _, f := range d.Findings {
			fj := findingJSON{
				Kind:     f.Kind,
				Line:     f.Line,
				Message:  f.Message,
				Keyword:  f.Keyword,
				Property: f.Property,
				Hint:     f.Hint,
			}
			if f.Kind == domain.FindingSchemaViolation {
				loc := f.Location
				fj.Location = &loc
			}
			doc.Findings = append(doc.Findings, fj)
		}
		out.Documents = append(out.Documents, doc)
	}
	out.Summary.Documents = len(result.Documents)
	out.Summary.Failed = result.FailedDocuments()
	out.Summary.Findings = result.FindingCount()
	return out
}

// formatCheckHuman writes one diagnostic per line to w. Schema violations
// of a document are grouped under a single header.
func formatCheckHuman(w io.Writer, result *validate.RunResult) {
	for _, d := range result.Documents {
		if schemaErrs := d.SchemaFindings(); len(schemaErrs) > 0 {
			fmt.Fprintf(w, "%s - Front matter schema errors:\n", d.Path)
			for _, f := range schemaErrs {
				fmt.Fprintf(w, "  %s\n", formatSchemaFinding(f))
			}
		}
		for _, f := range d.OtherFindings() {
			fmt.Fprintln(w, formatFinding(f))
		}
	}
}

func formatFinding(f domain.Finding) string {
	if f.Line > 0 {
		return fmt.Sprintf("%s:%d - %s", f.Path, f.Line, f.Message)
	}
	return fmt.Sprintf("%s - %s", f.Path, f.Message)
}

func formatSchemaFinding(f domain.Finding) string {
	loc := f.Location
	if loc == "" {
		loc = "(root)"
	}
	s := loc + " " + f.Message
	if f.Keyword == "additionalProperties" && f.Property != "" {
		s += " [additionalProperty=" + f.Property + "]"
	}
	return s
}

// runCheckAndReport runs the checker and formats the results as JSON or
// human-readable text. It returns a FindingsDetectedError if any document
// failed.
func runCheckAndReport(cmd *cobra.Command, runner CheckRunner, opts CheckOptions, jsonOutput bool, report string) error {
	result, err := runner.Check(cmd.Context(), opts)
	if err != nil {
		return err
	}

	if report != "" {
		var buf bytes.Buffer
		writeJSON(&buf, newCheckJSONResponse(result))
		if err := runner.WriteReport(cmd.Context(), report, buf.Bytes()); err != nil {
			return &ContextError{Op: "write report", Path: report, Err: err}
		}
	}

	if jsonOutput {
		writeJSON(cmd.OutOrStdout(), newCheckJSONResponse(result))
	} else {
		formatCheckHuman(cmd.ErrOrStderr(), result)
		if result.Passed() {
			fmt.Fprintln(cmd.OutOrStdout(), successMessage)
		}
	}

	if !result.Passed() {
		return &FindingsDetectedError{Documents: result.FailedDocuments(), Findings: result.FindingCount()}
	}
	return nil
}

// NewCheckCmd creates the check command with the given runner.
func NewCheckCmd(runner CheckRunner) *cobra.Command {
	var (
		opts       CheckOptions
		jsonOutput bool
		report     string
	)

	cmd := &cobra.Command{
		Use:   "check [paths...]",
		Short: "Validate test case documents",
		Long: "Validate test case documents against the front matter schema, the filename rule " +
			"and the step rules. Paths, when given, replace the --glob patterns; directories " +
			"are searched for Markdown files.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if runner == nil {
				return ErrNoRunner
			}
			if opts.Jobs < 0 {
				return fmt.Errorf("invalid --jobs %d: must not be negative", opts.Jobs)
			}
			if opts.Jobs == 0 {
				opts.Jobs = runtime.GOMAXPROCS(0)
			}
			opts.Paths = args
			opts.Logger = newLogger(cmd.ErrOrStderr(), GetVerbose())
			return runCheckAndReport(cmd, runner, opts, jsonOutput, report)
		},
	}

	cmd.Flags().StringVar(&opts.Root, "root", ".", "Corpus root directory")
	cmd.Flags().StringVar(&opts.Schema, "schema", fs.DefaultSchemaPath, "JSON Schema for front matter, relative to --root")
	cmd.Flags().StringArrayVar(&opts.Globs, "glob", []string{fs.DefaultPattern}, "Glob selecting documents, relative to --root (repeatable)")
	cmd.Flags().BoolVar(&opts.RequireSteps, "require-steps", false, "Report documents without numbered steps")
	cmd.Flags().BoolVar(&opts.AllChecks, "all-checks", false, "Run filename and steps checks even when schema validation fails")
	cmd.Flags().BoolVar(&opts.FileLines, "file-lines", false, "Report body line numbers relative to the file instead of the body")
	cmd.Flags().IntVarP(&opts.Jobs, "jobs", "j", 1, "Documents validated in parallel (0 uses all CPUs)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output results as JSON")
	cmd.Flags().StringVar(&report, "report", "", "Also write the JSON results to this file")

	return cmd
}
