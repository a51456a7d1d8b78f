package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/atlas-vision/backend/domain"
	"github.com/atlas-vision/backend/usecase"
)

const (
	// MaxRequestSize bounds any request body, multipart overhead included.
	MaxRequestSize = "12M"
	// MaxAudioSize bounds a recorded voice question.
	MaxAudioSize = 10 * 1024 * 1024

	maxFieldSize = 64
)

type LandmarkAnalyzer interface {
	Analyze(ctx context.Context, image []byte, language string) (*usecase.Analysis, error)
}

type Chatter interface {
	Ask(ctx context.Context, turn domain.ChatTurn) (string, error)
}

type VoiceAssistant interface {
	Enabled() bool
	AskByVoice(ctx context.Context, monument string, audio []byte, language string) (*usecase.VoiceReply, error)
	Narrate(ctx context.Context, text, language string) ([]byte, error)
}

type ClientCounter interface {
	ClientCount() int
}

// ProviderStatus reports which text providers were configured at startup.
type ProviderStatus struct {
	Gemini  bool `json:"gemini"`
	Mistral bool `json:"mistral"`
}

type LandmarkHandler struct {
	landmarks LandmarkAnalyzer
	chat      Chatter
	voice     VoiceAssistant
	clients   ClientCounter
	providers ProviderStatus
}

type ChatRequest struct {
	MonumentName string `json:"monument_name"`
	Question     string `json:"question"`
}

type ChatResponse struct {
	Reply string `json:"reply"`
}

type NarrateRequest struct {
	Text     string `json:"text"`
	Language string `json:"language"`
}

func NewLandmarkHandler(landmarks LandmarkAnalyzer, chat Chatter, voice VoiceAssistant, clients ClientCounter, providers ProviderStatus) *LandmarkHandler {
	return &LandmarkHandler{
		landmarks: landmarks,
		chat:      chat,
		voice:     voice,
		clients:   clients,
		providers: providers,
	}
}

// AnalyzeLandmark classifies the uploaded "file" and describes the landmark.
// The body is streamed so that uploads of any size reach the size check.
func (h *LandmarkHandler) AnalyzeLandmark(c echo.Context) error {
	image, lang, err := readAnalyzeForm(c.Request())
	if err != nil {
		return respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
	}
	if lang == "" {
		lang = strings.TrimSpace(c.QueryParam("language"))
	}

	analysis, err := h.landmarks.Analyze(c.Request().Context(), image, lang)
	if err != nil {
		return HandleError(c, err)
	}

	return c.JSON(http.StatusOK, analysis)
}

// Chat answers a single question as the named monument.
func (h *LandmarkHandler) Chat(c echo.Context) error {
	var req ChatRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, http.StatusBadRequest, "INVALID_REQUEST", "invalid JSON body")
	}

	reply, err := h.chat.Ask(c.Request().Context(), domain.ChatTurn{
		MonumentName: req.MonumentName,
		Question:     req.Question,
	})
	if err != nil {
		return HandleError(c, err)
	}

	return c.JSON(http.StatusOK, ChatResponse{Reply: reply})
}

// VoiceChat transcribes the uploaded "audio" question and answers it.
func (h *LandmarkHandler) VoiceChat(c echo.Context) error {
	if !h.voice.Enabled() {
		return HandleError(c, domain.ErrVoiceDisabled)
	}

	fh, err := c.FormFile("audio")
	if err != nil {
		return respondError(c, http.StatusBadRequest, "INVALID_REQUEST", "multipart field \"audio\" is required")
	}
	if fh.Size > MaxAudioSize {
		return respondError(c, http.StatusRequestEntityTooLarge, "TOO_LARGE", "audio too large")
	}
	audio, err := readUpload(fh, MaxAudioSize)
	if err != nil {
		return respondError(c, http.StatusBadRequest, "INVALID_REQUEST", "unreadable upload")
	}

	reply, err := h.voice.AskByVoice(c.Request().Context(), c.FormValue("monument_name"), audio, language(c))
	if err != nil {
		return HandleError(c, err)
	}

	return c.JSON(http.StatusOK, reply)
}

// Narrate reads text aloud and returns MP3 audio.
func (h *LandmarkHandler) Narrate(c echo.Context) error {
	if !h.voice.Enabled() {
		return HandleError(c, domain.ErrVoiceDisabled)
	}

	var req NarrateRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, http.StatusBadRequest, "INVALID_REQUEST", "invalid JSON body")
	}

	audio, err := h.voice.Narrate(c.Request().Context(), req.Text, req.Language)
	if err != nil {
		return HandleError(c, err)
	}

	return c.Blob(http.StatusOK, "audio/mpeg", audio)
}

// HealthCheck reports configuration-level readiness. Remote APIs are not probed.
func (h *LandmarkHandler) HealthCheck(c echo.Context) error {
	clients := 0
	if h.clients != nil {
		clients = h.clients.ClientCount()
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":     "healthy",
		"timestamp":  time.Now().UTC(),
		"service":    "atlas-vision",
		"providers":  h.providers,
		"voice":      h.voice.Enabled(),
		"ws_clients": clients,
	})
}

// readAnalyzeForm reads the "file" part one byte past domain.MaxImageSize and
// stops there; an oversized image is returned truncated, and the rest of the
// body is left unread.
func readAnalyzeForm(r *http.Request) ([]byte, string, error) {
	mr, err := r.MultipartReader()
	if err != nil {
		return nil, "", errors.New("multipart body is required")
	}

	var (
		image []byte
		lang  string
		found bool
	)
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, "", errors.New("malformed multipart body")
		}

		switch part.FormName() {
		case "file":
			image, err = io.ReadAll(io.LimitReader(part, domain.MaxImageSize+1))
			if err != nil {
				return nil, "", errors.New("unreadable upload")
			}
			found = true
			if len(image) > domain.MaxImageSize {
				return image, lang, nil
			}
		case "language":
			raw, err := io.ReadAll(io.LimitReader(part, maxFieldSize))
			if err != nil {
				return nil, "", errors.New("unreadable language field")
			}
			lang = strings.TrimSpace(string(raw))
		}
		part.Close()
	}

	if !found {
		return nil, "", errors.New("multipart field \"file\" is required")
	}
	return image, lang, nil
}

func readUpload(fh *multipart.FileHeader, limit int64) ([]byte, error) {
	src, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	data, err := io.ReadAll(io.LimitReader(src, limit))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	return data, nil
}

func language(c echo.Context) string {
	if lang := strings.TrimSpace(c.FormValue("language")); lang != "" {
		return lang
	}
	return strings.TrimSpace(c.QueryParam("language"))
}
