package domain

import (
	"context"
	"errors"
)

// UnavailableText is returned in place of generated text when every provider failed.
const UnavailableText = "Description indisponible."

// ErrEmptyCompletion is returned by providers that answered without any text.
var ErrEmptyCompletion = errors.New("empty completion")

// Llm abstracts any text-generation provider.
type Llm interface {
	// Generate sends the request in a single shot and returns the model's reply.
	Generate(ctx context.Context, req GenerationRequest) (string, error)
}

type GenerationRequest struct {
	Prompt            string
	SystemInstruction string
}

// CombinedPrompt folds the system instruction into the prompt for providers
// without a separate instruction channel.
func (r GenerationRequest) CombinedPrompt() string {
	if r.SystemInstruction == "" {
		return r.Prompt
	}
	return r.SystemInstruction + "\n\n" + r.Prompt
}

// Messages returns the request as role-tagged chat messages.
func (r GenerationRequest) Messages() []ChatMessage {
	messages := make([]ChatMessage, 0, 2)
	if r.SystemInstruction != "" {
		messages = append(messages, ChatMessage{Role: SystemRole, Content: r.SystemInstruction})
	}
	return append(messages, ChatMessage{Role: UserRole, Content: r.Prompt})
}

type Provider string

const (
	ProviderPrimary   Provider = "primary"
	ProviderSecondary Provider = "secondary"
	ProviderNone      Provider = "none"
)

type GenerationResult struct {
	Text         string
	ProviderUsed Provider
}

type ChatMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

type Role string

const (
	UserRole      Role = "user"
	AssistantRole Role = "assistant"
	SystemRole    Role = "system"
)

// ChatTurn is a single stateless question addressed to a monument.
type ChatTurn struct {
	MonumentName string `json:"monument_name"`
	Question     string `json:"question"`
}
