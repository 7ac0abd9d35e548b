// Package importer reconciles bank statement exports into account ledgers.
package importer

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cleared-dev/tally/internal/model"
)

// Parser converts decoded statement text into imported rows.
type Parser interface {
	Parse(r io.Reader, opts ParseOptions) (*Statement, error)
	Format() string
}

// ParseOptions carries what a Parser needs to classify and validate rows.
type ParseOptions struct {
	Vocabulary *Vocabulary
	Location   *time.Location // zone for dates without an offset; UTC if nil
}

func (o ParseOptions) withDefaults() ParseOptions {
	if o.Vocabulary == nil {
		o.Vocabulary = DefaultVocabulary()
	}
	if o.Location == nil {
		o.Location = time.UTC
	}
	return o
}

// Statement is the outcome of parsing one file.
type Statement struct {
	Rows    []model.ImportedTransaction
	Skipped []RowError
	Total   int // data rows read, header excluded
}

// RowError explains why a single statement row was left out.
type RowError struct {
	Line  int
	Field string
	Value string
	Err   error
}

func (e RowError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("line %d: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("line %d: %s %q: %v", e.Line, e.Field, e.Value, e.Err)
}

func (e RowError) Unwrap() error { return e.Err }

// Is makes every RowError match model.ErrRowSkipped.
func (e RowError) Is(target error) bool { return target == model.ErrRowSkipped }

// Registry holds named parsers.
type Registry struct {
	parsers map[string]Parser
}

// FileInfo describes a statement file waiting in an import directory.
type FileInfo struct {
	Name string
	Path string
	Size int64
}

// NewRegistry creates an empty parser registry.
func NewRegistry() *Registry {
	return &Registry{parsers: make(map[string]Parser)}
}

// Register adds a parser. Panics on duplicate format.
func (r *Registry) Register(p Parser) {
	key := strings.ToLower(p.Format())
	if _, ok := r.parsers[key]; ok {
		panic("duplicate parser format: " + key)
	}
	r.parsers[key] = p
}

// Get returns the parser for format, or nil.
func (r *Registry) Get(format string) Parser {
	return r.parsers[strings.ToLower(format)]
}

// DefaultRegistry returns a registry with all built-in parsers.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(&StatementParser{})
	return r
}

// processedDir is where imported files are moved, relative to their
// import directory.
const processedDir = "processed"

// Scan returns the CSV files directly inside dir. A missing directory has
// no files.
func Scan(dir string) ([]FileInfo, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading import dir: %w", err)
	}

	var files []FileInfo
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if !strings.HasSuffix(strings.ToLower(e.Name()), ".csv") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", e.Name(), err)
		}
		files = append(files, FileInfo{
			Name: e.Name(),
			Path: filepath.Join(dir, e.Name()),
			Size: info.Size(),
		})
	}
	return files, nil
}

// MarkProcessed moves a file from dir to dir/processed/.
func MarkProcessed(dir, fileName string) error {
	src := filepath.Join(dir, fileName)
	dstDir := filepath.Join(dir, processedDir)

	if err := os.MkdirAll(dstDir, 0o755); err != nil {
		return fmt.Errorf("creating processed dir: %w", err)
	}

	dst := filepath.Join(dstDir, fileName)
	if err := os.Rename(src, dst); err != nil {
		return fmt.Errorf("moving %s to processed: %w", fileName, err)
	}
	return nil
}
