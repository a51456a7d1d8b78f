package domain

import "context"

// Transcriber turns a recorded question into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, language string) (string, error)
}

// Narrator reads text aloud and returns encoded audio.
type Narrator interface {
	Synthesize(ctx context.Context, text, language string) ([]byte, error)
}
