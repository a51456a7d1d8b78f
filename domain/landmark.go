package domain

import (
	"context"
	"errors"
)

const (
	// MaxImageSize is the largest accepted upload, inclusive.
	MaxImageSize = 4_000_000
	// AcceptanceThreshold is the minimum probability of a positive match.
	AcceptanceThreshold = 0.5
)

var (
	ErrClassification = errors.New("landmark classification failed")
	ErrInvalidRequest = errors.New("invalid request")
	ErrVoiceDisabled  = errors.New("voice features disabled")
	ErrVoiceProvider  = errors.New("voice provider failed")
)

// Classifier submits image bytes to a remote model and returns its raw predictions.
type Classifier interface {
	Classify(ctx context.Context, image []byte) ([]Prediction, error)
}

type Prediction struct {
	Label       string  `json:"tagName"`
	Probability float64 `json:"probability"`
}

type ClassificationResult struct {
	Found      bool
	Label      string
	Confidence float64
}

// SelectBest picks the highest-probability labelled prediction and applies
// the acceptance threshold. Ties keep the first prediction encountered.
func SelectBest(predictions []Prediction) ClassificationResult {
	var (
		best  Prediction
		found bool
	)
	for _, p := range predictions {
		if p.Label == "" {
			continue
		}
		if !found || p.Probability > best.Probability {
			best, found = p, true
		}
	}

	if !found || best.Probability < AcceptanceThreshold {
		return ClassificationResult{}
	}

	return ClassificationResult{
		Found:      true,
		Label:      best.Label,
		Confidence: best.Probability,
	}
}
