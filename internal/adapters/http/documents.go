package httpadapter

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"fleetops/internal/domain"
	"fleetops/internal/services/documents"
)

// multipart overhead allowed on top of the file limit
const uploadSlack = 1 << 20

func (s *Server) uploadDocument(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, domain.MaxUploadBytes+uploadSlack)
	if err := r.ParseMultipartForm(8 << 20); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			s.fail(w, r, "upload document", domain.ErrFileTooLarge)
			return
		}
		s.fail(w, r, "upload document", fmt.Errorf("%w: multipart form: %v", domain.ErrInvalid, err))
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("file")
	if err != nil {
		s.fail(w, r, "upload document", fmt.Errorf("%w: missing file field", domain.ErrInvalid))
		return
	}
	defer file.Close()

	doc, err := s.svc.Documents.Upload(r.Context(), documents.Upload{
		Name:        header.Filename,
		Category:    r.FormValue("category"),
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        file,
	})
	if err != nil {
		s.fail(w, r, "upload document", err)
		return
	}
	s.created(w, doc)
}

func (s *Server) listDocuments(w http.ResponseWriter, r *http.Request) {
	var category string
	if err := query(r, "category", &category); err != nil {
		s.fail(w, r, "list documents", err)
		return
	}
	out, err := s.svc.Documents.List(r.Context(), category)
	if err != nil {
		s.fail(w, r, "list documents", err)
		return
	}
	s.ok(w, out)
}

func (s *Server) getDocument(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.fail(w, r, "get document", err)
		return
	}
	out, err := s.svc.Documents.Get(r.Context(), id)
	if err != nil {
		s.fail(w, r, "get document", err)
		return
	}
	s.ok(w, out)
}

func (s *Server) downloadDocument(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.fail(w, r, "download document", err)
		return
	}
	doc, body, err := s.svc.Documents.Open(r.Context(), id)
	if err != nil {
		s.fail(w, r, "download document", err)
		return
	}
	defer body.Close()
	w.Header().Set("Content-Type", doc.ContentType)
	w.Header().Set("Content-Length", strconv.FormatInt(doc.Size, 10))
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename=%q`, domain.SanitizeFilename(doc.Name)))
	if _, err := io.Copy(w, body); err != nil {
		s.log.Warn("document stream interrupted", zap.String("id", id), zap.Error(err))
	}
}

func (s *Server) documentURL(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.fail(w, r, "document url", err)
		return
	}
	url, err := s.svc.Documents.DownloadURL(r.Context(), id)
	if err != nil {
		s.fail(w, r, "document url", err)
		return
	}
	s.ok(w, map[string]string{"url": url})
}

func (s *Server) deleteDocument(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err == nil {
		err = s.svc.Documents.Delete(r.Context(), id)
	}
	if err != nil {
		s.fail(w, r, "delete document", err)
		return
	}
	s.ok(w, nil)
}
