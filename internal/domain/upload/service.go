package upload

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"topglass/internal/domain/lead"
	"topglass/internal/pkg/logger"
	"topglass/internal/pkg/metrics"
	"topglass/internal/pkg/validator"
)

const DefaultMaxBytes = 5 * 1024 * 1024

var imageExtensions = map[string]string{
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"gif":  "image/gif",
	"webp": "image/webp",
	"heic": "image/heic",
	"heif": "image/heif",
}

var imageMimeTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
	"image/heic": true,
	"image/heif": true,
}

// Attacher is the slice of the lead service the upload path needs.
type Attacher interface {
	GetByID(ctx context.Context, id string) (*lead.Lead, error)
	AppendAttachment(ctx context.Context, id, path string) (*lead.Lead, error)
	RemoveAttachment(ctx context.Context, id, path string) (*lead.Lead, error)
}

// Input describes one incoming file.
type Input struct {
	LeadID      string
	Source      Source
	Name        string
	ContentType string
	Size        int64
	Body        io.Reader
}

type Service struct {
	storage  Storage
	repo     Repository
	leads    Attacher
	maxBytes int64
	log      *zap.Logger
	now      func() time.Time
	suffix   func() string
}

func NewService(storage Storage, repo Repository, leads Attacher, maxBytes int64, log *zap.Logger) *Service {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Service{
		storage:  storage,
		repo:     repo,
		leads:    leads,
		maxBytes: maxBytes,
		log:      logger.OrNop(log),
		now:      time.Now,
		suffix:   randomSuffix,
	}
}

func (s *Service) MaxBytes() int64 { return s.maxBytes }

// Upload validates the file, writes it under the lead and appends the path
// to the lead's attachments. If the append fails the blob is removed again.
func (s *Service) Upload(ctx context.Context, in Input) (*Upload, error) {
	u, err := s.upload(ctx, in)
	metrics.Uploads.WithLabelValues(metrics.Outcome(err)).Inc()
	return u, err
}

func (s *Service) upload(ctx context.Context, in Input) (*Upload, error) {
	if !validator.IsUUID(in.LeadID) {
		return nil, ErrInvalidLeadID
	}
	if in.Size == 0 {
		return nil, ErrEmptyFile
	}
	if in.Size > s.maxBytes {
		return nil, ErrFileTooLarge
	}

	ext := extension(in.Name)
	if !allowedExtension(in.Source, ext) {
		return nil, ErrInvalidExtension
	}

	head := make([]byte, 512)
	n, err := io.ReadFull(in.Body, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("read file: %w", err)
	}
	head = head[:n]
	if n == 0 {
		return nil, ErrEmptyFile
	}

	mimeType := detectMimeType(in.ContentType, head, ext)
	if !allowedMimeType(in.Source, mimeType) {
		return nil, ErrInvalidMimeType
	}

	path := fmt.Sprintf("%s/%d-%s.%s", in.LeadID, s.now().UnixMilli(), s.suffix(), ext)
	body := io.LimitReader(io.MultiReader(bytes.NewReader(head), in.Body), s.maxBytes+1)
	written, err := s.storage.Save(ctx, path, body)
	if err != nil {
		return nil, fmt.Errorf("save file: %w", err)
	}
	if written > s.maxBytes {
		s.discard(ctx, path)
		return nil, ErrFileTooLarge
	}

	record := &Upload{
		ID:           uuid.NewString(),
		LeadID:       in.LeadID,
		Path:         path,
		OriginalName: filepath.Base(in.Name),
		MimeType:     mimeType,
		Size:         written,
		Source:       in.Source,
		CreatedAt:    s.now(),
	}
	if err := s.repo.Create(ctx, record); err != nil {
		s.discard(ctx, path)
		return nil, fmt.Errorf("save upload record: %w", err)
	}

	if _, err := s.leads.AppendAttachment(ctx, in.LeadID, path); err != nil {
		s.log.Warn("attachment append failed, removing blob", zap.String("lead_id", in.LeadID), zap.String("file", path), zap.Error(err))
		s.discard(ctx, path)
		if delErr := s.repo.DeleteByPath(ctx, path); delErr != nil {
			s.log.Warn("upload record rollback failed", zap.String("file", path), zap.Error(delErr))
		}
		return nil, err
	}

	s.log.Info("attachment stored", zap.String("lead_id", in.LeadID), zap.String("file", path), zap.Int64("size", written))
	return record, nil
}

// Attachments lists the lead's attachments, enriched with stored metadata.
func (s *Service) Attachments(ctx context.Context, leadID string) (*lead.Lead, map[string]*Upload, error) {
	l, err := s.leads.GetByID(ctx, leadID)
	if err != nil {
		return nil, nil, err
	}
	rows, err := s.repo.ListByLead(ctx, leadID)
	if err != nil {
		return nil, nil, err
	}
	byPath := make(map[string]*Upload, len(rows))
	for _, r := range rows {
		byPath[r.Path] = r
	}
	return l, byPath, nil
}

// Detach drops path from the lead, then deletes the blob best effort.
func (s *Service) Detach(ctx context.Context, leadID, path string) (*lead.Lead, error) {
	l, err := s.leads.RemoveAttachment(ctx, leadID, path)
	if err != nil {
		return nil, err
	}
	if err := s.Delete(ctx, path); err != nil {
		s.log.Warn("attachment blob delete failed", zap.String("lead_id", leadID), zap.String("file", path), zap.Error(err))
	}
	return l, nil
}

// Delete removes the blob and its metadata row.
func (s *Service) Delete(ctx context.Context, path string) error {
	return NewRemover(s.storage, s.repo).Delete(ctx, path)
}

// Remover deletes blobs together with their metadata. It is what the lead
// service uses to clean up after a lead is deleted.
type Remover struct {
	storage Storage
	repo    Repository
}

func NewRemover(storage Storage, repo Repository) *Remover {
	return &Remover{storage: storage, repo: repo}
}

func (r *Remover) Delete(ctx context.Context, path string) error {
	if err := r.storage.Delete(ctx, path); err != nil {
		return err
	}
	return r.repo.DeleteByPath(ctx, path)
}

// Open returns the blob and the content type it should be served with.
func (s *Service) Open(ctx context.Context, path string) (io.ReadCloser, int64, string, error) {
	rc, size, err := s.storage.Open(ctx, path)
	if err != nil {
		return nil, 0, "", err
	}
	contentType := mime.TypeByExtension(filepath.Ext(path))
	if meta, err := s.repo.GetByPath(ctx, path); err == nil && meta.MimeType != "" {
		contentType = meta.MimeType
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return rc, size, contentType, nil
}

func (s *Service) discard(ctx context.Context, path string) {
	if err := s.storage.Delete(ctx, path); err != nil {
		s.log.Warn("blob rollback failed", zap.String("file", path), zap.Error(err))
	}
}

func extension(name string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
}

func allowedExtension(src Source, ext string) bool {
	if _, ok := imageExtensions[ext]; ok {
		return true
	}
	return src == SourceAdmin && ext == "pdf"
}

func allowedMimeType(src Source, mimeType string) bool {
	if imageMimeTypes[mimeType] {
		return true
	}
	return src == SourceAdmin && mimeType == "application/pdf"
}

// detectMimeType prefers the declared type. Sniffing only runs when the
// client sent nothing useful; HEIC is not sniffable so the extension decides.
func detectMimeType(declared string, head []byte, ext string) string {
	declared = strings.ToLower(strings.TrimSpace(strings.Split(declared, ";")[0]))
	if declared != "" && declared != "application/octet-stream" {
		return declared
	}
	sniffed := strings.Split(http.DetectContentType(head), ";")[0]
	if sniffed != "application/octet-stream" {
		return sniffed
	}
	if t, ok := imageExtensions[ext]; ok {
		return t
	}
	return sniffed
}

func randomSuffix() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}
