package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/atlas-vision/backend/domain"
	"github.com/atlas-vision/backend/utils/log"
)

// ChatService answers questions addressed to a monument. Nothing is kept
// between calls.
type ChatService struct {
	generator Generator
}

func NewChatService(generator Generator) *ChatService {
	return &ChatService{generator: generator}
}

// Ask returns the monument's reply. The only error is domain.ErrInvalidRequest.
func (s *ChatService) Ask(ctx context.Context, turn domain.ChatTurn) (string, error) {
	monument := strings.TrimSpace(turn.MonumentName)
	question := strings.TrimSpace(turn.Question)
	if monument == "" || question == "" {
		return "", fmt.Errorf("%w: monument_name and question are required", domain.ErrInvalidRequest)
	}

	ctx = log.WithMonument(ctx, monument)
	result := s.generator.Generate(ctx, GuideRequest(monument, question))
	return result.Text, nil
}

// GuideRequest makes the model answer as the monument itself.
func GuideRequest(monument, question string) domain.GenerationRequest {
	return domain.GenerationRequest{
		Prompt:            question,
		SystemInstruction: fmt.Sprintf("Tu es le monument : %s. Réponds comme un guide.", monument),
	}
}
