// Package speech holds the external audio capabilities the agent depends on:
// speech-to-text and text-to-speech. Both are consumed through small
// interfaces so services can be tested with in-process fakes and so the
// providers can be swapped without touching business logic.
package speech

import (
	"context"
	"os"

	openai "github.com/sashabaranov/go-openai"
)

// Transcription is the result of converting caller audio into text.
// Language is the provider's detected language code (e.g. "ar", "arabic");
// callers map it onto the supported set themselves.
type Transcription struct {
	Text     string
	Language string
}

// Transcriber converts an audio file on disk into text.
type Transcriber interface {
	Transcribe(ctx context.Context, filePath string) (Transcription, error)
}

// WhisperTranscriber implements Transcriber with OpenAI's Whisper API.
type WhisperTranscriber struct {
	client *openai.Client
	model  string
}

// NewWhisperTranscriber returns a transcriber using the whisper-1 model.
func NewWhisperTranscriber(apiKey string) *WhisperTranscriber {
	return &WhisperTranscriber{
		client: openai.NewClient(apiKey),
		model:  openai.Whisper1,
	}
}

// Transcribe sends the audio file to Whisper and returns the transcribed text
// together with the detected language. The verbose response format is
// requested because the plain one omits the language field.
func (w *WhisperTranscriber) Transcribe(ctx context.Context, filePath string) (Transcription, error) {
	// Surface missing files as plain os errors before paying for a round trip.
	f, err := os.Open(filePath)
	if err != nil {
		return Transcription{}, err
	}
	f.Close()

	resp, err := w.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    w.model,
		FilePath: filePath,
		Format:   openai.AudioResponseFormatVerboseJSON,
	})
	if err != nil {
		return Transcription{}, err
	}
	return Transcription{Text: resp.Text, Language: resp.Language}, nil
}
