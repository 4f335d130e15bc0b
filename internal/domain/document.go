package domain

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// MaxUploadBytes caps a single document upload at 10 MiB.
const MaxUploadBytes = 10 << 20

var allowedUploads = map[string][]string{
	".pdf":  {"application/pdf"},
	".doc":  {"application/msword"},
	".docx": {"application/vnd.openxmlformats-officedocument.wordprocessingml.document"},
	".xls":  {"application/vnd.ms-excel"},
	".xlsx": {"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"},
	".csv":  {"text/csv", "application/csv"},
	".txt":  {"text/plain"},
	".png":  {"image/png"},
	".jpg":  {"image/jpeg"},
	".jpeg": {"image/jpeg"},
}

var (
	ErrEmptyFile       = fmt.Errorf("%w: file is empty", ErrInvalid)
	ErrFileTooLarge    = fmt.Errorf("%w: file exceeds %d bytes", ErrInvalid, MaxUploadBytes)
	ErrUnsupportedType = fmt.Errorf("%w: unsupported file type", ErrInvalid)
)

// ValidateFile checks an upload's size, extension and declared content type.
// An empty or octet-stream content type is accepted when the extension is known.
func ValidateFile(name, contentType string, size int64) error {
	if size <= 0 {
		return ErrEmptyFile
	}
	if size > MaxUploadBytes {
		return ErrFileTooLarge
	}
	ext := strings.ToLower(filepath.Ext(name))
	types, ok := allowedUploads[ext]
	if !ok {
		return fmt.Errorf("%w: extension %q", ErrUnsupportedType, ext)
	}
	ct := strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))
	if ct == "" || ct == "application/octet-stream" {
		return nil
	}
	for _, t := range types {
		if t == ct {
			return nil
		}
	}
	return fmt.Errorf("%w: %q does not match %s", ErrUnsupportedType, ct, ext)
}

type Document struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Category    string    `json:"category"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	ObjectKey   string    `json:"object_key"`
	UploadedBy  string    `json:"uploaded_by"`
	CreatedAt   time.Time `json:"created_at"`
}

// SanitizeFilename keeps a base name safe for use inside an object key.
func SanitizeFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		case r == ' ':
			b.WriteRune('_')
		}
	}
	out := b.String()
	if out == "" || out == "." || out == ".." {
		return "file"
	}
	return out
}
