package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/atlas-vision/backend/domain"
	"github.com/atlas-vision/backend/usecase"
)

type MockLandmarkAnalyzer struct {
	mock.Mock
}

func (m *MockLandmarkAnalyzer) Analyze(ctx context.Context, image []byte, language string) (*usecase.Analysis, error) {
	args := m.Called(ctx, image, language)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.Analysis), args.Error(1)
}

type MockChatter struct {
	mock.Mock
}

func (m *MockChatter) Ask(ctx context.Context, turn domain.ChatTurn) (string, error) {
	args := m.Called(ctx, turn)
	return args.String(0), args.Error(1)
}

type MockVoiceAssistant struct {
	mock.Mock
}

func (m *MockVoiceAssistant) Enabled() bool {
	return m.Called().Bool(0)
}

func (m *MockVoiceAssistant) AskByVoice(ctx context.Context, monument string, audio []byte, language string) (*usecase.VoiceReply, error) {
	args := m.Called(ctx, monument, audio, language)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.VoiceReply), args.Error(1)
}

func (m *MockVoiceAssistant) Narrate(ctx context.Context, text, language string) ([]byte, error) {
	args := m.Called(ctx, text, language)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

type failingLlm struct{}

func (failingLlm) Generate(context.Context, domain.GenerationRequest) (string, error) {
	return "", errors.New("provider unavailable")
}

func setupTestRouter(h *LandmarkHandler) *echo.Echo {
	return NewRouter(h, nil)
}

func multipartBody(t *testing.T, field, filename string, content []byte, values map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	part, err := w.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	for k, v := range values {
		require.NoError(t, w.WriteField(k, v))
	}
	require.NoError(t, w.Close())
	return body, w.FormDataContentType()
}

func serve(router *echo.Echo, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestAnalyzeLandmark_Found(t *testing.T) {
	analyzer := new(MockLandmarkAnalyzer)
	voice := new(MockVoiceAssistant)
	router := setupTestRouter(NewLandmarkHandler(analyzer, new(MockChatter), voice, nil, ProviderStatus{}))

	confidence := 0.92
	analyzer.On("Analyze", mock.Anything, []byte("jpeg"), "en").Return(&usecase.Analysis{
		Found:         true,
		Name:          "Eiffel Tower",
		Confidence:    &confidence,
		AIDescription: "Iron lattice tower.",
	}, nil)

	body, contentType := multipartBody(t, "file", "tower.jpg", []byte("jpeg"), map[string]string{"language": "en"})
	req := httptest.NewRequest(http.MethodPost, "/analyze-landmark", body)
	req.Header.Set("Content-Type", contentType)

	w := serve(router, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"found":true,"name":"Eiffel Tower","confidence":0.92,"ai_description":"Iron lattice tower."}`, w.Body.String())
	analyzer.AssertExpectations(t)
}

func TestAnalyzeLandmark_NotFound(t *testing.T) {
	analyzer := new(MockLandmarkAnalyzer)
	router := setupTestRouter(NewLandmarkHandler(analyzer, new(MockChatter), new(MockVoiceAssistant), nil, ProviderStatus{}))
	analyzer.On("Analyze", mock.Anything, mock.Anything, "").Return(&usecase.Analysis{Found: false}, nil)

	body, contentType := multipartBody(t, "file", "blur.jpg", []byte("jpeg"), nil)
	req := httptest.NewRequest(http.MethodPost, "/analyze-landmark", body)
	req.Header.Set("Content-Type", contentType)

	w := serve(router, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"found":false}`, w.Body.String())
}

func TestAnalyzeLandmark_Oversized(t *testing.T) {
	classifierCalls := 0
	classifier := classifierFunc(func(context.Context, []byte) ([]domain.Prediction, error) {
		classifierCalls++
		return nil, nil
	})
	service := usecase.NewLandmarkService(classifier, usecase.NewFallbackGenerator(failingLlm{}, failingLlm{}, 0), nil, "fr")
	router := setupTestRouter(NewLandmarkHandler(service, new(MockChatter), new(MockVoiceAssistant), nil, ProviderStatus{}))

	body, contentType := multipartBody(t, "file", "huge.jpg", make([]byte, domain.MaxImageSize+1), nil)
	req := httptest.NewRequest(http.MethodPost, "/analyze-landmark", body)
	req.Header.Set("Content-Type", contentType)

	w := serve(router, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"found":false,"message":"Image trop volumineuse"}`, w.Body.String())
	assert.Equal(t, 0, classifierCalls)
}

func TestAnalyzeLandmark_FarPastBodyLimit(t *testing.T) {
	classifierCalls := 0
	classifier := classifierFunc(func(context.Context, []byte) ([]domain.Prediction, error) {
		classifierCalls++
		return nil, nil
	})
	service := usecase.NewLandmarkService(classifier, usecase.NewFallbackGenerator(failingLlm{}, failingLlm{}, 0), nil, "fr")
	router := setupTestRouter(NewLandmarkHandler(service, new(MockChatter), new(MockVoiceAssistant), nil, ProviderStatus{}))

	body, contentType := multipartBody(t, "file", "panorama.jpg", make([]byte, 13_000_000), nil)
	req := httptest.NewRequest(http.MethodPost, "/analyze-landmark", body)
	req.Header.Set("Content-Type", contentType)

	w := serve(router, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"found":false,"message":"Image trop volumineuse"}`, w.Body.String())
	assert.Equal(t, 0, classifierCalls)
}

func TestAnalyzeLandmark_LanguageFromQuery(t *testing.T) {
	analyzer := new(MockLandmarkAnalyzer)
	router := setupTestRouter(NewLandmarkHandler(analyzer, new(MockChatter), new(MockVoiceAssistant), nil, ProviderStatus{}))
	analyzer.On("Analyze", mock.Anything, []byte("jpeg"), "es").Return(&usecase.Analysis{Found: false}, nil)

	body, contentType := multipartBody(t, "file", "tower.jpg", []byte("jpeg"), nil)
	req := httptest.NewRequest(http.MethodPost, "/analyze-landmark?language=es", body)
	req.Header.Set("Content-Type", contentType)

	w := serve(router, req)

	assert.Equal(t, http.StatusOK, w.Code)
	analyzer.AssertExpectations(t)
}

func TestChat_BodyLimit(t *testing.T) {
	router := setupTestRouter(NewLandmarkHandler(new(MockLandmarkAnalyzer), new(MockChatter), new(MockVoiceAssistant), nil, ProviderStatus{}))

	question := strings.Repeat("a", 13_000_000)
	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(`{"monument_name":"Louvre","question":"`+question+`"}`))
	req.Header.Set("Content-Type", "application/json")

	w := serve(router, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestAnalyzeLandmark_ClassifierFailure(t *testing.T) {
	analyzer := new(MockLandmarkAnalyzer)
	router := setupTestRouter(NewLandmarkHandler(analyzer, new(MockChatter), new(MockVoiceAssistant), nil, ProviderStatus{}))
	analyzer.On("Analyze", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.Join(domain.ErrClassification, errors.New("status 500")))

	body, contentType := multipartBody(t, "file", "tower.jpg", []byte("jpeg"), nil)
	req := httptest.NewRequest(http.MethodPost, "/analyze-landmark", body)
	req.Header.Set("Content-Type", contentType)

	w := serve(router, req)

	assert.Equal(t, http.StatusBadGateway, w.Code)
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "CLASSIFIER_UNAVAILABLE", resp.Code)
}

func TestAnalyzeLandmark_MissingFile(t *testing.T) {
	analyzer := new(MockLandmarkAnalyzer)
	router := setupTestRouter(NewLandmarkHandler(analyzer, new(MockChatter), new(MockVoiceAssistant), nil, ProviderStatus{}))

	body, contentType := multipartBody(t, "image", "tower.jpg", []byte("jpeg"), nil)
	req := httptest.NewRequest(http.MethodPost, "/analyze-landmark", body)
	req.Header.Set("Content-Type", contentType)

	w := serve(router, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	analyzer.AssertNotCalled(t, "Analyze", mock.Anything, mock.Anything, mock.Anything)
}

func TestChat_Success(t *testing.T) {
	chatter := new(MockChatter)
	router := setupTestRouter(NewLandmarkHandler(new(MockLandmarkAnalyzer), chatter, new(MockVoiceAssistant), nil, ProviderStatus{}))
	chatter.On("Ask", mock.Anything, domain.ChatTurn{MonumentName: "Louvre", Question: "Qui t'a construit ?"}).
		Return("Philippe Auguste.", nil)

	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(`{"monument_name":"Louvre","question":"Qui t'a construit ?"}`))
	req.Header.Set("Content-Type", "application/json")

	w := serve(router, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"reply":"Philippe Auguste."}`, w.Body.String())
}

func TestChat_BothProvidersDown(t *testing.T) {
	chat := usecase.NewChatService(usecase.NewFallbackGenerator(failingLlm{}, failingLlm{}, 0))
	router := setupTestRouter(NewLandmarkHandler(new(MockLandmarkAnalyzer), chat, new(MockVoiceAssistant), nil, ProviderStatus{}))

	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(`{"monument_name":"Eiffel Tower","question":"How tall are you?"}`))
	req.Header.Set("Content-Type", "application/json")

	w := serve(router, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp ChatResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, domain.UnavailableText, resp.Reply)
}

func TestChat_InvalidRequest(t *testing.T) {
	chat := usecase.NewChatService(usecase.NewFallbackGenerator(failingLlm{}, failingLlm{}, 0))
	router := setupTestRouter(NewLandmarkHandler(new(MockLandmarkAnalyzer), chat, new(MockVoiceAssistant), nil, ProviderStatus{}))

	for _, body := range []string{`{"monument_name":"Louvre"}`, `{not json`} {
		req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")

		w := serve(router, req)

		assert.Equal(t, http.StatusBadRequest, w.Code, body)
	}
}

func TestVoiceEndpoints_Disabled(t *testing.T) {
	voice := new(MockVoiceAssistant)
	voice.On("Enabled").Return(false)
	router := setupTestRouter(NewLandmarkHandler(new(MockLandmarkAnalyzer), new(MockChatter), voice, nil, ProviderStatus{}))

	req := httptest.NewRequest(http.MethodPost, "/narrate", strings.NewReader(`{"text":"Bonjour"}`))
	req.Header.Set("Content-Type", "application/json")
	w := serve(router, req)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	body, contentType := multipartBody(t, "audio", "q.wav", []byte("RIFF"), map[string]string{"monument_name": "Louvre"})
	req = httptest.NewRequest(http.MethodPost, "/chat/voice", body)
	req.Header.Set("Content-Type", contentType)
	w = serve(router, req)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestVoiceChat_Success(t *testing.T) {
	voice := new(MockVoiceAssistant)
	voice.On("Enabled").Return(true)
	voice.On("AskByVoice", mock.Anything, "Louvre", []byte("RIFF"), "fr").
		Return(&usecase.VoiceReply{Question: "Quel âge as-tu ?", Reply: "Huit siècles."}, nil)
	router := setupTestRouter(NewLandmarkHandler(new(MockLandmarkAnalyzer), new(MockChatter), voice, nil, ProviderStatus{}))

	body, contentType := multipartBody(t, "audio", "q.wav", []byte("RIFF"), map[string]string{"monument_name": "Louvre", "language": "fr"})
	req := httptest.NewRequest(http.MethodPost, "/chat/voice", body)
	req.Header.Set("Content-Type", contentType)

	w := serve(router, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"question":"Quel âge as-tu ?","reply":"Huit siècles."}`, w.Body.String())
}

func TestNarrate_Success(t *testing.T) {
	voice := new(MockVoiceAssistant)
	voice.On("Enabled").Return(true)
	voice.On("Narrate", mock.Anything, "Bonjour", "").Return([]byte("ID3"), nil)
	router := setupTestRouter(NewLandmarkHandler(new(MockLandmarkAnalyzer), new(MockChatter), voice, nil, ProviderStatus{}))

	req := httptest.NewRequest(http.MethodPost, "/narrate", strings.NewReader(`{"text":"Bonjour"}`))
	req.Header.Set("Content-Type", "application/json")

	w := serve(router, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "audio/mpeg", w.Header().Get("Content-Type"))
	assert.Equal(t, []byte("ID3"), w.Body.Bytes())
}

func TestHealthCheck(t *testing.T) {
	voice := new(MockVoiceAssistant)
	voice.On("Enabled").Return(false)
	router := setupTestRouter(NewLandmarkHandler(new(MockLandmarkAnalyzer), new(MockChatter), voice, nil, ProviderStatus{Gemini: true}))

	w := serve(router, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp["status"])
	assert.Equal(t, map[string]interface{}{"gemini": true, "mistral": false}, resp["providers"])
	assert.NotEmpty(t, w.Header().Get(echo.HeaderXRequestID))
}

func TestCORS_Preflight(t *testing.T) {
	router := setupTestRouter(NewLandmarkHandler(new(MockLandmarkAnalyzer), new(MockChatter), new(MockVoiceAssistant), nil, ProviderStatus{}))

	req := httptest.NewRequest(http.MethodOptions, "/chat", nil)
	req.Header.Set(echo.HeaderOrigin, "https://atlas.example")
	req.Header.Set(echo.HeaderAccessControlRequestMethod, http.MethodPost)

	w := serve(router, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get(echo.HeaderAccessControlAllowOrigin))
}

type classifierFunc func(context.Context, []byte) ([]domain.Prediction, error)

func (f classifierFunc) Classify(ctx context.Context, image []byte) ([]domain.Prediction, error) {
	return f(ctx, image)
}
