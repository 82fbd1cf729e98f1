// Package fs provides filesystem adapters that implement validate service interfaces.
package fs

import (
	"context"
	"errors"
	"fmt"
	iofs "io/fs"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/afero"

	"github.com/eykd/casecheck-go/internal/frontmatter"
	"github.com/eykd/casecheck-go/internal/slug"
	"github.com/eykd/casecheck-go/internal/validate"
)

// DefaultPattern selects the test case documents of a corpus.
const DefaultPattern = "test-cases/**/*.md"

// DefaultSchemaPath is the schema location relative to the corpus root.
const DefaultSchemaPath = "schema/testcase.schema.json"

// ErrBadPattern is returned for a glob pattern doublestar cannot parse.
var ErrBadPattern = errors.New("invalid glob pattern")

// Corpus implements validate.DocumentSource over an afero filesystem.
//
// Document paths are slash separated and relative to Root.
type Corpus struct {
	FS   afero.Fs
	Root string
	// Patterns are doublestar globs; DefaultPattern when empty.
	Patterns []string
	// Paths, when set, replace Patterns. Directories are searched for
	// markdown files.
	Paths []string
}

// List returns the sorted, de-duplicated document paths of the corpus.
// Paths with a segment starting with "." are skipped.
func (c *Corpus) List(ctx context.Context) ([]string, error) {
	fsys := afero.NewIOFS(c.base())

	var matches []string
	if len(c.Paths) > 0 {
		for _, p := range c.Paths {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			found, err := c.expand(fsys, p)
			if err != nil {
				return nil, err
			}
			matches = append(matches, found...)
		}
	} else {
		patterns := c.Patterns
		if len(patterns) == 0 {
			patterns = []string{DefaultPattern}
		}
		for _, pattern := range patterns {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			found, err := glob(fsys, pattern)
			if err != nil {
				return nil, err
			}
			matches = append(matches, found...)
		}
	}

	return dedupe(matches), nil
}

// ReadFile reads a document by its corpus-relative path.
func (c *Corpus) ReadFile(_ context.Context, p string) (string, error) {
	data, err := afero.ReadFile(c.base(), filepath.FromSlash(p))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (c *Corpus) base() afero.Fs {
	if c.Root == "" || filepath.Clean(c.Root) == "." {
		return c.FS
	}
	return afero.NewBasePathFs(c.FS, c.Root)
}

// expand turns an explicit path into document paths. Files are taken
// verbatim; directories contribute every markdown file beneath them.
func (c *Corpus) expand(fsys iofs.FS, p string) ([]string, error) {
	rel := c.relative(p)
	info, err := iofs.Stat(fsys, rel)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", p, err)
	}
	if !info.IsDir() {
		return []string{rel}, nil
	}
	if rel == "." {
		return glob(fsys, "**/*.md")
	}
	// Glob inside the directory so that metacharacters in its name match literally.
	sub, err := iofs.Sub(fsys, rel)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", p, err)
	}
	found, err := glob(sub, "**/*.md")
	if err != nil {
		return nil, err
	}
	for i, m := range found {
		found[i] = rel + "/" + m
	}
	return found, nil
}

// relative converts a user supplied path into a clean corpus-relative one.
func (c *Corpus) relative(p string) string {
	if filepath.IsAbs(p) && c.Root != "" {
		if root, err := filepath.Abs(c.Root); err == nil {
			if rel, err := filepath.Rel(root, p); err == nil {
				p = rel
			}
		}
	}
	return path.Clean(filepath.ToSlash(p))
}

func glob(fsys iofs.FS, pattern string) ([]string, error) {
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("%w: %q", ErrBadPattern, pattern)
	}
	found, err := doublestar.Glob(fsys, pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("matching %q: %w", pattern, err)
	}
	var out []string
	for _, m := range found {
		if !hidden(m) {
			out = append(out, m)
		}
	}
	return out, nil
}

func hidden(p string) bool {
	for _, seg := range strings.Split(p, "/") {
		if strings.HasPrefix(seg, ".") && seg != "." && seg != ".." {
			return true
		}
	}
	return false
}

func dedupe(paths []string) []string {
	sort.Strings(paths)
	out := paths[:0]
	for i, p := range paths {
		if i > 0 && p == paths[i-1] {
			continue
		}
		out = append(out, p)
	}
	return out
}

// ReadSchema reads the schema document at p, resolved against root unless
// p is absolute.
func ReadSchema(fsys afero.Fs, root, p string) ([]byte, error) {
	if p == "" {
		p = DefaultSchemaPath
	}
	if !filepath.IsAbs(p) {
		p = filepath.Join(root, p)
	}
	data, err := afero.ReadFile(fsys, p)
	if err != nil {
		return nil, fmt.Errorf("reading schema %s: %w", p, err)
	}
	return data, nil
}

// SlugAdapter implements validate.Slugifier using the slug package.
type SlugAdapter struct{}

// Slug converts a title to a filename-friendly slug.
func (SlugAdapter) Slug(s string) string { return slug.Filename(s) }

// FMAdapter implements validate.FrontmatterParser using the frontmatter package.
type FMAdapter struct{}

// Parse splits and decodes a raw document.
func (FMAdapter) Parse(raw string) (validate.ParsedDocument, error) {
	p, err := frontmatter.Parse(raw)
	return validate.ParsedDocument{
		Metadata: p.Metadata,
		Body:     p.Body,
		BodyLine: p.BodyLine,
	}, err
}
