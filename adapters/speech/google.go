package speech

import (
	"context"
	"fmt"
	"strings"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"

	"github.com/atlas-vision/backend/adapters/language"
	"github.com/atlas-vision/backend/domain"
)

type GoogleSpeech struct {
	client *speech.Client
}

// NewGoogleSpeech uses Application Default Credentials.
func NewGoogleSpeech(ctx context.Context) (domain.Transcriber, func() error, error) {
	client, err := speech.NewClient(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("creating Google speech client: %w", err)
	}
	return &GoogleSpeech{client: client}, client.Close, nil
}

// Transcribe recognizes a short recording. The encoding is read from the
// WAV or FLAC header.
func (g *GoogleSpeech) Transcribe(ctx context.Context, audio []byte, lang string) (string, error) {
	resp, err := g.client.Recognize(ctx, &speechpb.RecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			Encoding:                   speechpb.RecognitionConfig_ENCODING_UNSPECIFIED,
			LanguageCode:               language.BCP47(lang),
			EnableAutomaticPunctuation: true,
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: audio},
		},
	})
	if err != nil {
		return "", fmt.Errorf("recognizing speech: %w", err)
	}

	var parts []string
	for _, result := range resp.GetResults() {
		if alts := result.GetAlternatives(); len(alts) > 0 {
			parts = append(parts, strings.TrimSpace(alts[0].GetTranscript()))
		}
	}

	return strings.Join(parts, " "), nil
}
