package analyzer

import (
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
)

// MaxUploadBytes is the largest resume accepted (10 MB).
const MaxUploadBytes int64 = 10 << 20

// SniffLen is how many leading bytes ValidateUpload needs to see.
const SniffLen = 512

var (
	ErrNotPDF       = errors.New("only PDF files are accepted")
	ErrFileTooLarge = errors.New("file exceeds the 10 MB limit")
	ErrEmptyFile    = errors.New("file is empty")
)

// ValidateUpload checks an upload before any pipeline stage runs.
// head is the start of the file, at most SniffLen bytes are looked at.
func ValidateUpload(name string, size int64, head []byte) error {
	if size <= 0 || len(head) == 0 {
		return ErrEmptyFile
	}
	if size > MaxUploadBytes {
		return fmt.Errorf("%w: %d bytes", ErrFileTooLarge, size)
	}
	if !strings.EqualFold(filepath.Ext(name), ".pdf") {
		return fmt.Errorf("%w: %q", ErrNotPDF, name)
	}
	if len(head) > SniffLen {
		head = head[:SniffLen]
	}
	if ct := http.DetectContentType(head); ct != "application/pdf" {
		return fmt.Errorf("%w: content looks like %s", ErrNotPDF, ct)
	}
	return nil
}
