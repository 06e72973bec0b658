package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"patentcheck/internal/model"
	"patentcheck/internal/service"
)

type MockAnalysisService struct {
	mock.Mock
}

func (m *MockAnalysisService) analysis(args mock.Arguments) (*model.Analysis, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Analysis), args.Error(1)
}

func (m *MockAnalysisService) StartDocument(ctx context.Context, documentID string) (*model.Analysis, error) {
	return m.analysis(m.Called(ctx, documentID))
}

func (m *MockAnalysisService) StartText(ctx context.Context, text string) (*model.Analysis, error) {
	return m.analysis(m.Called(ctx, text))
}

func (m *MockAnalysisService) Get(ctx context.Context, id string) (*model.Analysis, error) {
	return m.analysis(m.Called(ctx, id))
}

func (m *MockAnalysisService) Cancel(ctx context.Context, id string) (*model.Analysis, error) {
	return m.analysis(m.Called(ctx, id))
}

func (m *MockAnalysisService) List(ctx context.Context, documentID string, limit, offset int) (*service.AnalysisListResult, error) {
	args := m.Called(ctx, documentID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.AnalysisListResult), args.Error(1)
}

func (m *MockAnalysisService) Export(ctx context.Context, id, format string) (*service.Export, error) {
	args := m.Called(ctx, id, format)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Export), args.Error(1)
}
