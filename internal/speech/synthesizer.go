package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// defaultElevenLabsBaseURL is the production ElevenLabs API root.
const defaultElevenLabsBaseURL = "https://api.elevenlabs.io"

// Synthesizer converts reply text into spoken audio (MP3 bytes).
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// ElevenLabsSynthesizer implements Synthesizer against the ElevenLabs
// text-to-speech HTTP API. The multilingual model is required because replies
// are produced in Arabic, English and Turkish.
type ElevenLabsSynthesizer struct {
	apiKey  string
	voiceID string
	baseURL string
	client  *http.Client
}

// NewElevenLabsSynthesizer returns a synthesizer for the given voice.
// The http.Client's timeout (if any) is a coarse backstop; per-call deadlines
// come from the context.
func NewElevenLabsSynthesizer(apiKey, voiceID string, client *http.Client) *ElevenLabsSynthesizer {
	if client == nil {
		client = http.DefaultClient
	}
	return &ElevenLabsSynthesizer{
		apiKey:  apiKey,
		voiceID: voiceID,
		baseURL: defaultElevenLabsBaseURL,
		client:  client,
	}
}

// WithBaseURL overrides the API root. Used by tests to point at a local server.
func (s *ElevenLabsSynthesizer) WithBaseURL(u string) *ElevenLabsSynthesizer {
	s.baseURL = u
	return s
}

// Synthesize posts text to the voice endpoint and returns the MP3 payload.
func (s *ElevenLabsSynthesizer) Synthesize(ctx context.Context, text string) ([]byte, error) {
	body := map[string]any{
		"text":     text,
		"model_id": "eleven_multilingual_v2",
		"voice_settings": map[string]any{
			"stability":         0.5,
			"similarity_boost":  0.8,
			"style":             0.0,
			"use_speaker_boost": true,
		},
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	url := s.baseURL + "/v1/text-to-speech/" + s.voiceID
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "audio/mpeg")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("xi-api-key", s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("elevenlabs: unexpected status %s", resp.Status)
	}
	return io.ReadAll(resp.Body)
}
