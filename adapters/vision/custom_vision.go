package vision

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/atlas-vision/backend/domain"
)

// APIError is returned when the prediction endpoint answers with a non-2xx status.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("custom vision returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("custom vision returned status %d: %s", e.StatusCode, e.Body)
}

type predictionResponse struct {
	ID          string              `json:"id"`
	Iteration   string              `json:"iteration"`
	Predictions []domain.Prediction `json:"predictions"`
}

// CustomVisionClient calls the Azure Custom Vision classification endpoint.
type CustomVisionClient struct {
	predictionURL string
	predictionKey string
	httpClient    *http.Client
}

// NewCustomVisionClient builds a classifier for the given published iteration.
func NewCustomVisionClient(endpoint, predictionKey, projectID, iteration string, timeout time.Duration) domain.Classifier {
	return &CustomVisionClient{
		predictionURL: PredictionURL(endpoint, projectID, iteration),
		predictionKey: predictionKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// PredictionURL returns the image classification URL of a published iteration.
func PredictionURL(endpoint, projectID, iteration string) string {
	return fmt.Sprintf("%s/customvision/v3.0/Prediction/%s/classify/iterations/%s/image",
		strings.TrimRight(endpoint, "/"),
		url.PathEscape(projectID),
		url.PathEscape(iteration),
	)
}

// Classify posts the raw image and returns every prediction of the model.
func (c *CustomVisionClient) Classify(ctx context.Context, image []byte) ([]domain.Prediction, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.predictionURL, bytes.NewReader(image))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Prediction-Key", c.predictionKey)
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var result predictionResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return result.Predictions, nil
}
