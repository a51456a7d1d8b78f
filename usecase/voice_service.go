package usecase

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/atlas-vision/backend/domain"
	"github.com/atlas-vision/backend/utils/log"
)

// VoiceService wraps the chat flow with speech recognition and synthesis.
// Both capabilities are optional; a nil one yields domain.ErrVoiceDisabled.
type VoiceService struct {
	chat            *ChatService
	transcriber     domain.Transcriber
	narrator        domain.Narrator
	defaultLanguage string
}

func NewVoiceService(chat *ChatService, transcriber domain.Transcriber, narrator domain.Narrator, defaultLanguage string) *VoiceService {
	return &VoiceService{
		chat:            chat,
		transcriber:     transcriber,
		narrator:        narrator,
		defaultLanguage: defaultLanguage,
	}
}

func (s *VoiceService) Enabled() bool {
	return s.transcriber != nil && s.narrator != nil
}

// VoiceReply carries the recognized question along with the answer.
type VoiceReply struct {
	Question string `json:"question"`
	Reply    string `json:"reply"`
}

func (s *VoiceService) AskByVoice(ctx context.Context, monument string, audio []byte, language string) (*VoiceReply, error) {
	if s.transcriber == nil {
		return nil, domain.ErrVoiceDisabled
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("%w: audio is required", domain.ErrInvalidRequest)
	}
	if language == "" {
		language = s.defaultLanguage
	}

	question, err := s.transcriber.Transcribe(ctx, audio, language)
	if err != nil {
		log.WithCtx(ctx).Error("Transcription failed", zap.Error(err))
		return nil, fmt.Errorf("%w: transcribe question: %w", domain.ErrVoiceProvider, err)
	}
	if strings.TrimSpace(question) == "" {
		return nil, fmt.Errorf("%w: no speech recognized", domain.ErrInvalidRequest)
	}

	reply, err := s.chat.Ask(ctx, domain.ChatTurn{MonumentName: monument, Question: question})
	if err != nil {
		return nil, err
	}
	return &VoiceReply{Question: question, Reply: reply}, nil
}

func (s *VoiceService) Narrate(ctx context.Context, text, language string) ([]byte, error) {
	if s.narrator == nil {
		return nil, domain.ErrVoiceDisabled
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: text is required", domain.ErrInvalidRequest)
	}
	if language == "" {
		language = s.defaultLanguage
	}

	audio, err := s.narrator.Synthesize(ctx, text, language)
	if err != nil {
		log.WithCtx(ctx).Error("Narration failed", zap.Error(err))
		return nil, fmt.Errorf("%w: narrate: %w", domain.ErrVoiceProvider, err)
	}
	return audio, nil
}
