package cmd

import (
	"context"
	"path/filepath"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/spf13/afero"

	"github.com/eykd/casecheck-go/internal/fs"
	"github.com/eykd/casecheck-go/internal/schema"
	"github.com/eykd/casecheck-go/internal/validate"
)

// checkAdapter implements CheckRunner by wiring the schema, the corpus and
// the validation service over a filesystem.
type checkAdapter struct {
	fs afero.Fs
}

// NewCheckAdapter returns a CheckRunner backed by the operating system's filesystem.
func NewCheckAdapter() CheckRunner {
	return &checkAdapter{fs: afero.NewOsFs()}
}

// Check loads the schema and validates every document selected by opts.
func (a *checkAdapter) Check(ctx context.Context, opts CheckOptions) (*validate.RunResult, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.NewNopLogger()
	}

	root, err := filepath.Abs(opts.Root)
	if err != nil {
		return nil, &ContextError{Op: "resolve root", Path: opts.Root, Err: err}
	}

	data, err := fs.ReadSchema(a.fs, root, opts.Schema)
	if err != nil {
		return nil, err
	}
	compiled, err := schema.Compile(opts.Schema, data)
	if err != nil {
		return nil, err
	}
	level.Debug(logger).Log("msg", "schema loaded", "schema", compiled.Name())

	svc, err := validate.NewService(compiled, fs.FMAdapter{},
		validate.WithLogger(logger),
		validate.WithRequireSteps(opts.RequireSteps),
		validate.WithAllChecks(opts.AllChecks),
		validate.WithFileLines(opts.FileLines),
		validate.WithConcurrency(opts.Jobs),
		validate.WithSlugifier(fs.SlugAdapter{}),
	)
	if err != nil {
		return nil, err
	}

	corpus := &fs.Corpus{FS: a.fs, Root: root, Patterns: opts.Globs, Paths: opts.Paths}
	result, err := svc.Run(ctx, corpus)
	if err != nil {
		return nil, err
	}
	if len(result.Documents) == 0 {
		level.Warn(logger).Log("msg", "no test case documents found", "root", root)
	}
	return result, nil
}

// WriteReport writes data to path atomically under the report lock.
func (a *checkAdapter) WriteReport(ctx context.Context, path string, data []byte) error {
	w := &fs.ReportWriter{FS: a.fs, Path: path}
	return w.Write(ctx, data)
}
