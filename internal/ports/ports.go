package ports

import (
	"context"
	"io"
	"time"

	"fleetops/internal/domain"
)

// ObjectStore holds uploaded document bodies.
type ObjectStore interface {
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// Assistant forwards a module/action/payload request to an LLM gateway.
type Assistant interface {
	Complete(ctx context.Context, req domain.AIRequest) (domain.AIResponse, error)
}

// AuditRecorder records mutations. Implementations must not fail the caller.
type AuditRecorder interface {
	Record(ctx context.Context, e domain.AuditLogEntry)
}

// InvoiceExporter renders invoices into a downloadable format.
type InvoiceExporter interface {
	Format() string
	ContentType() string
	Export(w io.Writer, invoices []domain.Invoice, now time.Time) error
}
