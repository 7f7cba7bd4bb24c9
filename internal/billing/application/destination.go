package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	billing "kitchen-billing/internal/billing/domain"
)

var (
	// ErrDestinationPermission is returned when the destination may not be written.
	ErrDestinationPermission = errors.New("export: permission denied")
	// ErrDestinationNotFound is returned when the destination path does not exist.
	ErrDestinationNotFound = errors.New("export: destination not found")
	// ErrDestinationUnexpected is returned for any other write failure.
	ErrDestinationUnexpected = errors.New("export: unexpected write error")
)

// ExportErrorKind classifies destination write failures.
type ExportErrorKind string

const (
	ExportErrorPermission ExportErrorKind = "permission"
	ExportErrorNotFound   ExportErrorKind = "not_found"
	ExportErrorUnexpected ExportErrorKind = "unexpected"
)

// ExportError reports a failed write to an export destination.
type ExportError struct {
	Kind        ExportErrorKind
	Destination string
	Err         error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("%s (%s): %v", e.Message(), e.Destination, e.Err)
}

// Message returns the user-facing text for the failure kind.
func (e *ExportError) Message() string {
	switch e.Kind {
	case ExportErrorPermission:
		return "no permission to write the export file"
	case ExportErrorNotFound:
		return "export directory or file path not found"
	default:
		return "unexpected error while writing the export"
	}
}

// Unwrap exposes both the kind sentinel and the underlying error.
func (e *ExportError) Unwrap() []error {
	return []error{e.sentinel(), e.Err}
}

func (e *ExportError) sentinel() error {
	switch e.Kind {
	case ExportErrorPermission:
		return ErrDestinationPermission
	case ExportErrorNotFound:
		return ErrDestinationNotFound
	default:
		return ErrDestinationUnexpected
	}
}

// ClassifyWriteError wraps err into an *ExportError.
func ClassifyWriteError(destination string, err error) *ExportError {
	kind := ExportErrorUnexpected
	switch {
	case errors.Is(err, fs.ErrPermission):
		kind = ExportErrorPermission
	case errors.Is(err, fs.ErrNotExist):
		kind = ExportErrorNotFound
	}
	return &ExportError{Kind: kind, Destination: destination, Err: err}
}

// Destination receives a fully rendered document.
type Destination interface {
	Name() string
	Write(ctx context.Context, data []byte) error
}

// FileDestination writes the document to a file. The parent directory must exist.
type FileDestination struct {
	Path string
	Perm fs.FileMode
}

// Name returns the file path.
func (d FileDestination) Name() string { return d.Path }

// Write creates or truncates the file.
func (d FileDestination) Write(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(d.Path) == "" {
		return &fs.PathError{Op: "open", Path: d.Path, Err: fs.ErrNotExist}
	}
	perm := d.Perm
	if perm == 0 {
		perm = 0o644
	}
	return os.WriteFile(d.Path, data, perm)
}

// WriterDestination streams the document to w.
type WriterDestination struct {
	Label  string
	Writer io.Writer
}

// Name returns the label.
func (d WriterDestination) Name() string {
	if d.Label == "" {
		return "stream"
	}
	return d.Label
}

// Write copies data to the writer.
func (d WriterDestination) Write(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d.Writer == nil {
		return errors.New("export: nil writer")
	}
	_, err := d.Writer.Write(data)
	return err
}

// DefaultFileName returns the conventional export file name for a month.
func DefaultFileName(period billing.Period, format string) string {
	return fmt.Sprintf("Sammelabrechnung_%s.%s", period.String(), strings.ToLower(format))
}

// SafeFileName reduces name to its base and appends the format extension when missing.
func SafeFileName(name, format string) (string, error) {
	base := filepath.Base(strings.TrimSpace(name))
	if base == "." || base == string(filepath.Separator) || base == "" || base == ".." {
		return "", fmt.Errorf("export: invalid file name %q", name)
	}
	ext := "." + strings.ToLower(format)
	if !strings.EqualFold(filepath.Ext(base), ext) {
		base += ext
	}
	return base, nil
}
