package export

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rshade/bizcheck/internal/logging"
)

const (
	dirPerm  = 0o755
	filePerm = 0o644

	dateLayout = "2006-01-02"

	queryPrefix  = "business_info"
	verifyPrefix = "verification"
)

// renderFunc writes one report in one format.
type renderFunc func(w io.Writer, f Format, at time.Time) error

// WriteQueries writes a business information report per format and returns
// the written paths.
func WriteQueries(ctx context.Context, rows []QueryRow, opts Options) ([]string, error) {
	if len(rows) == 0 {
		return nil, ErrNoData
	}
	return write(ctx, queryPrefix, opts, func(w io.Writer, f Format, at time.Time) error {
		switch f {
		case FormatMarkdown:
			return RenderQueryMarkdown(w, rows, opts.IncludeRawData, at)
		case FormatJSON:
			return RenderQueryJSON(w, rows, opts.IncludeRawData, at)
		case FormatCSV:
			return RenderQueryCSV(w, rows)
		default:
			return fmt.Errorf("%w: %q", ErrUnknownFormat, f)
		}
	})
}

// WriteVerifications writes a verification report per format and returns the
// written paths.
func WriteVerifications(ctx context.Context, rows []VerifyRow, opts Options) ([]string, error) {
	if len(rows) == 0 {
		return nil, ErrNoData
	}
	return write(ctx, verifyPrefix, opts, func(w io.Writer, f Format, at time.Time) error {
		switch f {
		case FormatMarkdown:
			return RenderVerifyMarkdown(w, rows, opts.IncludeRawData, at)
		case FormatJSON:
			return RenderVerifyJSON(w, rows, opts.IncludeRawData, at)
		case FormatCSV:
			return RenderVerifyCSV(w, rows)
		default:
			return fmt.Errorf("%w: %q", ErrUnknownFormat, f)
		}
	})
}

// FileName returns the report file name for prefix, format and date.
func FileName(prefix string, f Format, at time.Time) string {
	return fmt.Sprintf("%s_%s.%s", prefix, at.Format(dateLayout), f.Extension())
}

func write(ctx context.Context, prefix string, opts Options, render renderFunc) ([]string, error) {
	log := logging.FromContext(ctx)

	if len(opts.Formats) == 0 {
		return nil, nil
	}
	for _, f := range opts.Formats {
		if f.Extension() == "" {
			return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, f)
		}
	}
	if err := os.MkdirAll(opts.Directory, dirPerm); err != nil {
		return nil, fmt.Errorf("creating export directory %s: %w", opts.Directory, err)
	}

	at := opts.now()
	paths := make([]string, 0, len(opts.Formats))
	for _, f := range opts.Formats {
		path := filepath.Join(opts.Directory, FileName(prefix, f, at))
		if err := writeFile(path, func(w io.Writer) error { return render(w, f, at) }); err != nil {
			return paths, err
		}
		log.Debug().
			Ctx(ctx).
			Str("component", "export").
			Str("format", string(f)).
			Str("path", path).
			Msg("report written")
		paths = append(paths, path)
	}
	return paths, nil
}

func writeFile(path string, render func(io.Writer) error) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, filePerm)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := render(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", path, err)
	}
	return nil
}
