package mocks

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"patentcheck/internal/intake"
	"patentcheck/internal/model"
	"patentcheck/internal/service"
)

type MockDocumentService struct {
	mock.Mock
}

func (m *MockDocumentService) Validate(c intake.Candidate) intake.Outcome {
	args := m.Called(c)
	return args.Get(0).(intake.Outcome)
}

func (m *MockDocumentService) Upload(ctx context.Context, r io.Reader, originalFilename string, contentType string, size int64) (*model.Document, error) {
	args := m.Called(ctx, r, originalFilename, contentType, size)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *MockDocumentService) List(ctx context.Context, contentType string, limit, offset int) (*service.DocumentListResult, error) {
	args := m.Called(ctx, contentType, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.DocumentListResult), args.Error(1)
}

func (m *MockDocumentService) Get(ctx context.Context, id string) (*model.Document, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *MockDocumentService) DownloadURL(ctx context.Context, id string) (string, error) {
	args := m.Called(ctx, id)
	return args.String(0), args.Error(1)
}

func (m *MockDocumentService) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
