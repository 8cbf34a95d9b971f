// Package render drives output backends with a compiled report document.
package render

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"sumator/internal/core"
	"sumator/internal/report"
)

// Renderer receives a document page by page. Implementations buffer their
// output and only emit it from Finish, so an abandoned render writes nothing.
type Renderer interface {
	Name() string
	StartPage(n int) error
	WriteLine(line report.Line) error
	Finish(ctx context.Context, totalPages int) error
}

// Emit streams doc into r. Cancellation is honoured up to the call to Finish.
// Every failure is returned as a *core.RenderError.
func Emit(ctx context.Context, doc *report.Document, r Renderer) error {
	wrap := func(err error) error {
		return &core.RenderError{Renderer: r.Name(), Err: err}
	}
	for _, page := range doc.Pages {
		if err := ctx.Err(); err != nil {
			return wrap(err)
		}
		if err := r.StartPage(page.Number); err != nil {
			return wrap(fmt.Errorf("start page %d: %w", page.Number, err))
		}
		for _, line := range page.Lines {
			if err := r.WriteLine(line); err != nil {
				return wrap(fmt.Errorf("page %d: write %s line: %w", page.Number, line.Kind, err))
			}
		}
	}
	if err := ctx.Err(); err != nil {
		return wrap(err)
	}
	if err := r.Finish(ctx, doc.TotalPages()); err != nil {
		return wrap(err)
	}
	return nil
}

// WriteFileAtomic runs write against a temp file next to path and renames it
// into place only when write succeeds. On failure no file is left at path.
func WriteFileAtomic(path string, write func(w io.Writer) error) (err error) {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return &core.IOError{Op: "create", Key: path, Err: err}
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if err = write(tmp); err != nil {
		return err
	}
	if err = tmp.Sync(); err != nil {
		return &core.IOError{Op: "sync", Key: path, Err: err}
	}
	if err = tmp.Close(); err != nil {
		return &core.IOError{Op: "close", Key: path, Err: err}
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return &core.IOError{Op: "rename", Key: path, Err: err}
	}
	return nil
}
