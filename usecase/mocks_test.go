package usecase

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/atlas-vision/backend/domain"
)

type MockLlm struct {
	mock.Mock
}

func (m *MockLlm) Generate(ctx context.Context, req domain.GenerationRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

type MockClassifier struct {
	mock.Mock
}

func (m *MockClassifier) Classify(ctx context.Context, image []byte) ([]domain.Prediction, error) {
	args := m.Called(ctx, image)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Prediction), args.Error(1)
}

type MockGenerator struct {
	mock.Mock
}

func (m *MockGenerator) Generate(ctx context.Context, req domain.GenerationRequest) domain.GenerationResult {
	args := m.Called(ctx, req)
	return args.Get(0).(domain.GenerationResult)
}

type MockTranscriber struct {
	mock.Mock
}

func (m *MockTranscriber) Transcribe(ctx context.Context, audio []byte, language string) (string, error) {
	args := m.Called(ctx, audio, language)
	return args.String(0), args.Error(1)
}

type MockNarrator struct {
	mock.Mock
}

func (m *MockNarrator) Synthesize(ctx context.Context, text, language string) ([]byte, error) {
	args := m.Called(ctx, text, language)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

type panickingLlm struct{}

func (panickingLlm) Generate(context.Context, domain.GenerationRequest) (string, error) {
	panic("sdk exploded")
}

type blockingLlm struct{}

func (blockingLlm) Generate(ctx context.Context, _ domain.GenerationRequest) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}
