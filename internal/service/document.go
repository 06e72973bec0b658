package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"patentcheck/internal/intake"
	"patentcheck/internal/model"
	"patentcheck/internal/repository"
	"patentcheck/internal/storage"
)

var (
	ErrIDRequired = errors.New("id is required")
	ErrNotFound   = errors.New("document not found")
	ErrReaderNil  = errors.New("reader is nil")
)

// downloadURLExpiry bounds how long a presigned download link stays valid.
const downloadURLExpiry = 15 * time.Minute

// DocumentListResult is the service-level DTO for paginated documents.
type DocumentListResult struct {
	Items []model.Document `json:"data"`
	Total int              `json:"total"`
}

// DocumentService defines the use cases for handling documents.
type DocumentService interface {
	// Validate runs the intake gate without storing anything.
	Validate(c intake.Candidate) intake.Outcome

	// Upload runs the intake gate, uploads accepted content to object storage, saves metadata to DB,
	// and rolls back storage if DB save fails. A rejection is returned as an *intake.RejectionError.
	// - originalFilename is used for its extension and kept as OriginalName; stored filename is UUID + extension.
	Upload(ctx context.Context, r io.Reader, originalFilename string, contentType string, size int64) (*model.Document, error)

	// List returns documents using limit/offset and a total count. A non-empty
	// contentType keeps only documents of that media type.
	List(ctx context.Context, contentType string, limit, offset int) (*DocumentListResult, error)

	// Get returns a single document by its ID.
	Get(ctx context.Context, id string) (*model.Document, error)

	// DownloadURL returns a short-lived link serving the stored bytes under the original name.
	DownloadURL(ctx context.Context, id string) (string, error)

	// Delete removes a document by ID from both storage and repository.
	Delete(ctx context.Context, id string) error
}

type documentService struct {
	store   storage.Storage
	repo    repository.DocumentRepository
	gate    *intake.Gate
	metrics *intake.Metrics
}

// NewDocumentService constructs a new DocumentService. A nil gate means the default policy;
// metrics may be nil.
func NewDocumentService(store storage.Storage, repo repository.DocumentRepository, gate *intake.Gate, metrics *intake.Metrics) DocumentService {
	if gate == nil {
		gate = intake.DefaultGate()
	}
	return &documentService{store: store, repo: repo, gate: gate, metrics: metrics}
}

func (s *documentService) Validate(c intake.Candidate) intake.Outcome {
	out := s.gate.Validate(c)
	s.metrics.Observe(out)
	return out
}

func (s *documentService) Upload(ctx context.Context, r io.Reader, originalFilename string, contentType string, size int64) (*model.Document, error) {
	if r == nil {
		return nil, ErrReaderNil
	}

	out := s.Validate(intake.Candidate{Filename: originalFilename, ContentType: contentType, Size: size})
	if err := out.Err(); err != nil {
		return nil, err
	}
	contentType = intake.NormalizeType(contentType)

	// Generate filename using UUID + extension
	ext := strings.ToLower(filepath.Ext(originalFilename))
	genName := uuid.New().String() + ext
	key := storage.DocumentKey(genName)

	objInfo, err := s.store.Put(ctx, key, r, storage.PutObjectOptions{
		Size:        size,
		ContentType: contentType,
		Metadata: map[string]string{
			"original-filename": originalFilename,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("upload to storage: %w", err)
	}

	doc := &model.Document{
		ID:           uuid.New().String(),
		Filename:     genName,
		OriginalName: originalFilename,
		StoragePath:  objInfo.Key,
		Size:         objInfo.Size,
		ContentType:  contentType,
		CreatedAt:    time.Now().UTC(),
	}
	stored, err := s.repo.Create(ctx, doc)
	if err != nil {
		// Rollback: delete the object from storage
		if delErr := s.store.Delete(ctx, key); delErr != nil {
			return nil, fmt.Errorf("db save failed: %v; rollback delete failed: %v", err, delErr)
		}
		return nil, fmt.Errorf("db save failed: %w", err)
	}
	return stored, nil
}

// List returns paginated documents without exposing repository types.
func (s *documentService) List(ctx context.Context, contentType string, limit, offset int) (*DocumentListResult, error) {
	limit, offset = normalizePage(limit, offset)
	if contentType != "" {
		contentType = intake.NormalizeType(contentType)
	}

	res, err := s.repo.List(ctx, contentType, repository.PageQuery{Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}
	return &DocumentListResult{Items: res.Items, Total: res.Total}, nil
}

// Get returns a document by ID.
func (s *documentService) Get(ctx context.Context, id string) (*model.Document, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	doc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return doc, nil
}

func (s *documentService) DownloadURL(ctx context.Context, id string) (string, error) {
	doc, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}
	name := doc.OriginalName
	if name == "" {
		name = doc.Filename
	}
	u, err := s.store.PresignGet(ctx, doc.StoragePath, name, downloadURLExpiry)
	if err != nil {
		return "", fmt.Errorf("presign download: %w", err)
	}
	return u, nil
}

// Delete removes a document from storage, then deletes its record. Analyses of
// the document are removed with it by the database.
func (s *documentService) Delete(ctx context.Context, id string) error {
	doc, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	// Delete from storage first; if this fails, keep DB row to avoid orphaned storage reference loss
	if err := s.store.Delete(ctx, doc.StoragePath); err != nil {
		return fmt.Errorf("delete storage: %w", err)
	}
	return s.repo.Delete(ctx, id)
}

func normalizePage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
