// Package attach turns files on disk into inline note attachments.
package attach

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/sync/errgroup"

	"simplehub/internal/model"
)

const fallbackMIME = "application/octet-stream"

// FileError names the file whose read failed.
type FileError struct {
	Path string
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("attach %s: %v", e.Path, e.Err)
}

func (e *FileError) Unwrap() error { return e.Err }

type Encoder struct {
	open func(string) (io.ReadCloser, error)
}

func NewEncoder() *Encoder {
	return &Encoder{open: func(p string) (io.ReadCloser, error) { return os.Open(p) }}
}

// EncodeFiles reads every path concurrently and returns the attachments in
// input order. It fails with the first *FileError if any read fails.
func (e *Encoder) EncodeFiles(ctx context.Context, paths []string) ([]model.Attachment, error) {
	out := make([]model.Attachment, len(paths))
	if len(paths) == 0 {
		return out, nil
	}
	g, ctx := errgroup.WithContext(ctx)
	for i, p := range paths {
		g.Go(func() error {
			a, err := e.encode(ctx, p)
			if err != nil {
				return &FileError{Path: p, Err: err}
			}
			out[i] = a
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (e *Encoder) encode(ctx context.Context, path string) (model.Attachment, error) {
	if err := ctx.Err(); err != nil {
		return model.Attachment{}, err
	}
	f, err := e.open(path)
	if err != nil {
		return model.Attachment{}, err
	}
	defer f.Close()

	raw, err := io.ReadAll(f)
	if err != nil {
		return model.Attachment{}, err
	}
	if err := ctx.Err(); err != nil {
		return model.Attachment{}, err
	}
	mime := detect(raw)
	return model.Attachment{
		Name: filepath.Base(path),
		Size: int64(len(raw)),
		Type: mime,
		Data: model.DataURL(mime, raw),
	}, nil
}

// detect returns the bare MIME type, without parameters such as charset.
func detect(raw []byte) string {
	bare, _, _ := strings.Cut(mimetype.Detect(raw).String(), ";")
	if bare == "" {
		return fallbackMIME
	}
	return bare
}
