// Package fs implements file-based lead export with atomic commit semantics.
package fs

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/fwojciec/leadcrawl"
)

// Ensure JSONLSink implements leadcrawl.LeadSink at compile time.
var _ leadcrawl.LeadSink = (*JSONLSink)(nil)

// JSONLSink implements leadcrawl.LeadSink by appending JSON Lines to a pair
// of files, one for leads and one for domain summaries. Records are written
// to temporary files and moved into place on Commit, so readers never see a
// half-written export.
type JSONLSink struct {
	baseDir string
	name    string

	mu        sync.Mutex
	leads     *exportFile
	summaries *exportFile
}

// NewJSONLSink creates a new JSONLSink. baseDir is the parent directory,
// name is the export name. Commit produces baseDir/name.leads.jsonl and
// baseDir/name.summaries.jsonl.
func NewJSONLSink(baseDir, name string) *JSONLSink {
	return &JSONLSink{baseDir: baseDir, name: name}
}

// SaveLead appends one finalized lead as a JSON line.
func (s *JSONLSink) SaveLead(ctx context.Context, lead *leadcrawl.Lead) error {
	if err := lead.Validate(); err != nil {
		return err
	}
	return s.append(ctx, &s.leads, "leads", lead)
}

// SaveSummary appends one domain summary as a JSON line.
func (s *JSONLSink) SaveSummary(ctx context.Context, summary *leadcrawl.DomainSummary) error {
	if summary.Domain == "" {
		return leadcrawl.Errorf(leadcrawl.EINVALID, "summary domain required")
	}
	return s.append(ctx, &s.summaries, "summaries", summary)
}

func (s *JSONLSink) append(ctx context.Context, file **exportFile, kind string, v any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if *file == nil {
		f, err := openExportFile(s.tempPath(kind))
		if err != nil {
			return err
		}
		*file = f
	}
	return (*file).writeLine(v)
}

// Commit flushes all buffered records and moves the export files into place,
// replacing any previous export with the same name.
func (s *JSONLSink) Commit() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, kind := range []string{"leads", "summaries"} {
		file := s.fileFor(kind)
		if *file == nil {
			continue
		}
		if err := (*file).close(); err != nil {
			return err
		}
		if err := os.Rename(s.tempPath(kind), s.finalPath(kind)); err != nil {
			return err
		}
		*file = nil
	}
	return nil
}

// Abort discards any uncommitted records.
func (s *JSONLSink) Abort() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var firstErr error
	for _, kind := range []string{"leads", "summaries"} {
		file := s.fileFor(kind)
		if *file == nil {
			continue
		}
		if err := (*file).close(); err != nil && firstErr == nil {
			firstErr = err
		}
		if err := os.Remove(s.tempPath(kind)); err != nil && firstErr == nil {
			firstErr = err
		}
		*file = nil
	}
	return firstErr
}

func (s *JSONLSink) fileFor(kind string) **exportFile {
	if kind == "leads" {
		return &s.leads
	}
	return &s.summaries
}

func (s *JSONLSink) tempPath(kind string) string {
	return filepath.Join(s.baseDir, s.name+"."+kind+".jsonl.tmp")
}

func (s *JSONLSink) finalPath(kind string) string {
	return filepath.Join(s.baseDir, s.name+"."+kind+".jsonl")
}

type exportFile struct {
	f *os.File
	w *bufio.Writer
}

func openExportFile(path string) (*exportFile, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	return &exportFile{f: f, w: bufio.NewWriter(f)}, nil
}

func (e *exportFile) writeLine(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if _, err := e.w.Write(data); err != nil {
		return err
	}
	return e.w.WriteByte('\n')
}

func (e *exportFile) close() error {
	if err := e.w.Flush(); err != nil {
		e.f.Close()
		return err
	}
	return e.f.Close()
}
