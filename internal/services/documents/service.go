package documents

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"fleetops/internal/domain"
	"fleetops/internal/ports"
	"fleetops/internal/services/auditlog"
)

type Service struct {
	repo       ports.DocumentRepository
	store      ports.ObjectStore
	recorder   ports.AuditRecorder
	log        *zap.Logger
	presignTTL time.Duration
}

func New(repo ports.DocumentRepository, store ports.ObjectStore, recorder ports.AuditRecorder, log *zap.Logger, presignTTL time.Duration) *Service {
	if presignTTL <= 0 {
		presignTTL = 15 * time.Minute
	}
	return &Service{repo: repo, store: store, recorder: recorder, log: log, presignTTL: presignTTL}
}

type Upload struct {
	Name        string
	Category    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// Upload validates the file, stores the body and then the metadata row. The
// object is removed again if the row cannot be written.
func (s *Service) Upload(ctx context.Context, up Upload) (domain.Document, error) {
	if err := domain.ValidateFile(up.Name, up.ContentType, up.Size); err != nil {
		return domain.Document{}, err
	}
	category := strings.ToLower(strings.TrimSpace(up.Category))
	if category == "" {
		category = "general"
	}
	key := fmt.Sprintf("%s/%s-%s", domain.SanitizeFilename(category), uuid.NewString(), domain.SanitizeFilename(up.Name))
	// multipart files seek; the S3 client needs that to sign the payload.
	body := up.Body
	if _, ok := body.(io.ReadSeeker); !ok {
		body = io.LimitReader(body, up.Size)
	}

	if err := s.store.Put(ctx, key, body, up.Size, up.ContentType); err != nil {
		s.log.Error("object put failed", zap.String("key", key), zap.Error(err))
		return domain.Document{}, fmt.Errorf("store %s: %w", up.Name, err)
	}
	doc, err := s.repo.CreateDocument(ctx, domain.Document{
		Name:        up.Name,
		Category:    category,
		ContentType: up.ContentType,
		Size:        up.Size,
		ObjectKey:   key,
		UploadedBy:  auditlog.ActorFrom(ctx),
	})
	if err != nil {
		s.log.Error("document insert failed, removing object", zap.String("key", key), zap.Error(err))
		if derr := s.store.Delete(ctx, key); derr != nil {
			s.log.Warn("orphaned object", zap.String("key", key), zap.Error(derr))
		}
		return domain.Document{}, err
	}
	s.recorder.Record(ctx, domain.AuditLogEntry{
		Actor:        doc.UploadedBy,
		Action:       "document.upload",
		ResourceType: "document",
		ResourceID:   doc.ID,
		Metadata:     map[string]any{"name": doc.Name, "size": doc.Size},
	})
	return doc, nil
}

func (s *Service) Get(ctx context.Context, id string) (domain.Document, error) {
	return s.repo.GetDocument(ctx, id)
}

// Open returns the document metadata and a reader for its body. Callers close it.
func (s *Service) Open(ctx context.Context, id string) (domain.Document, io.ReadCloser, error) {
	doc, err := s.repo.GetDocument(ctx, id)
	if err != nil {
		return doc, nil, err
	}
	rc, err := s.store.Get(ctx, doc.ObjectKey)
	if err != nil {
		s.log.Error("object get failed", zap.String("id", id), zap.String("key", doc.ObjectKey), zap.Error(err))
		return doc, nil, err
	}
	return doc, rc, nil
}

func (s *Service) DownloadURL(ctx context.Context, id string) (string, error) {
	doc, err := s.repo.GetDocument(ctx, id)
	if err != nil {
		return "", err
	}
	return s.store.PresignGet(ctx, doc.ObjectKey, s.presignTTL)
}

func (s *Service) List(ctx context.Context, category string) ([]domain.Document, error) {
	return s.repo.ListDocuments(ctx, strings.ToLower(category))
}

// Delete drops the metadata first so a failed object delete leaves no dangling row.
func (s *Service) Delete(ctx context.Context, id string) error {
	doc, err := s.repo.GetDocument(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteDocument(ctx, id); err != nil {
		s.log.Error("document delete failed", zap.String("id", id), zap.Error(err))
		return err
	}
	if err := s.store.Delete(ctx, doc.ObjectKey); err != nil {
		s.log.Warn("object delete failed", zap.String("key", doc.ObjectKey), zap.Error(err))
	}
	s.recorder.Record(ctx, domain.AuditLogEntry{
		Actor:        auditlog.ActorFrom(ctx),
		Action:       "document.delete",
		ResourceType: "document",
		ResourceID:   id,
	})
	return nil
}
