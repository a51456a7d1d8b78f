package usecase

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/atlas-vision/backend/domain"
	"github.com/atlas-vision/backend/utils/log"
)

// OversizedMessage is returned with a not-found analysis when the upload is too large.
const OversizedMessage = "Image trop volumineuse"

// Analysis is the merged outcome of classification and description.
type Analysis struct {
	Found         bool     `json:"found"`
	Name          string   `json:"name,omitempty"`
	Confidence    *float64 `json:"confidence,omitempty"`
	AIDescription string   `json:"ai_description,omitempty"`
	Message       string   `json:"message,omitempty"`
}

type LandmarkService struct {
	classifier      domain.Classifier
	generator       Generator
	hasher          domain.Hasher
	defaultLanguage string
}

func NewLandmarkService(classifier domain.Classifier, generator Generator, hasher domain.Hasher, defaultLanguage string) *LandmarkService {
	return &LandmarkService{
		classifier:      classifier,
		generator:       generator,
		hasher:          hasher,
		defaultLanguage: defaultLanguage,
	}
}

// Analyze identifies the landmark in image and describes it in language.
// Classifier failures are returned wrapped in domain.ErrClassification;
// generation failures never are.
func (s *LandmarkService) Analyze(ctx context.Context, image []byte, language string) (*Analysis, error) {
	if s.hasher != nil {
		ctx = log.WithImageDigest(ctx, s.hasher.Hash(image))
	}
	logger := log.WithCtx(ctx)

	if len(image) > domain.MaxImageSize {
		logger.Info("Image rejected, too large", zap.Int("size", len(image)))
		return &Analysis{Found: false, Message: OversizedMessage}, nil
	}

	predictions, err := s.classifier.Classify(ctx, image)
	if err != nil {
		logger.Error("Landmark classification failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", domain.ErrClassification, err)
	}

	result := domain.SelectBest(predictions)
	if !result.Found {
		logger.Info("No landmark recognized", zap.Int("predictions", len(predictions)))
		return &Analysis{Found: false}, nil
	}
	logger.Info("Landmark recognized",
		zap.String("label", result.Label),
		zap.Float64("confidence", result.Confidence))

	if language == "" {
		language = s.defaultLanguage
	}
	description := s.generator.Generate(ctx, DescriptionRequest(result.Label, language))

	confidence := result.Confidence
	return &Analysis{
		Found:         true,
		Name:          result.Label,
		Confidence:    &confidence,
		AIDescription: description.Text,
	}, nil
}

// DescriptionRequest asks for a short tour-guide description of a landmark.
func DescriptionRequest(label, language string) domain.GenerationRequest {
	return domain.GenerationRequest{
		Prompt:            fmt.Sprintf("Donne une description courte (2 phrases max) du monument : %s.", label),
		SystemInstruction: fmt.Sprintf("Tu es un guide touristique expert. Tu réponds en %s.", language),
	}
}
