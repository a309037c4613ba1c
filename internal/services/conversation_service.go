// Package services – ConversationService
//
// This file implements ConversationService, the orchestrator of a single voice
// interaction: persist the uploaded audio to a scoped temp file, transcribe it,
// resolve the reply language, classify intent and extract items, render the
// localized reply, synthesize reply audio, and record the turn durably in both
// the database and the append-only conversation log.
//
// Failure policy:
//   - Transcription failure is a hard error: an apology turn is still recorded
//     (in the fallback language) and ErrTranscriptionFailed is returned. A nil
//     Transcriber (text-only deployments) is treated the same way.
//   - Synthesis failure is degradation: speak reports ErrSynthesisFailed, the
//     turn succeeds with text only.
//
// Observability: public methods are OpenTelemetry-instrumented, and classified
// intents feed the voice_intents_total Prometheus counter.
package services

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/shamstack/voice-order-backend/internal/domain"
	"github.com/shamstack/voice-order-backend/internal/lexicon"
	"github.com/shamstack/voice-order-backend/internal/nlu"
	"github.com/shamstack/voice-order-backend/internal/repo"
	"github.com/shamstack/voice-order-backend/internal/speech"
	"github.com/shamstack/voice-order-backend/internal/translog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// intentsTotal counts classified turns by intent and reply language.
// Both label sets are closed, so cardinality stays bounded.
var intentsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "voice_intents_total",
		Help: "Total classified conversation turns by intent and language.",
	},
	[]string{"intent", "language"},
)

func init() {
	prometheus.MustRegister(intentsTotal)
}

// TurnResult is the outcome of one processed recording.
type TurnResult struct {
	Turn      *domain.ConversationTurn
	ReplyText string
	// AudioPath is the file name of the synthesized reply under the audio
	// directory, empty when synthesis was unavailable.
	AudioPath string
}

// ConversationService orchestrates the transcribe-classify-reply-speak cycle.
type ConversationService struct {
	DB         *gorm.DB
	Log        *translog.Logger
	Transcribe speech.Transcriber
	Synthesize speech.Synthesizer

	Lexicon    *lexicon.Lexicon
	Classifier *nlu.Classifier
	Generator  *nlu.Generator

	// AudioDir is where synthesized reply audio is written. Synthesis is
	// skipped entirely when empty or when Synthesize is nil.
	AudioDir string
}

// HandleRecording processes one uploaded audio recording end to end.
//
// The upload is staged to a temp file that is always removed before the method
// returns. On transcription failure the apology turn is recorded and the
// returned error wraps ErrTranscriptionFailed; the TurnResult still carries
// the apology text so callers can decide what to surface.
func (s *ConversationService) HandleRecording(ctx context.Context, audio io.Reader) (*TurnResult, error) {
	tr := otel.Tracer("services/ConversationService")
	ctx, span := tr.Start(ctx, "HandleRecording")
	defer span.End()

	// Text-only deployments ship no transcriber; treat the turn like any other
	// transcription failure instead of dereferencing nil.
	if s.Transcribe == nil {
		log.Warn().Msg("no transcriber configured, recording apology turn")
		res, _ := s.apologyTurn(ctx)
		return res, fmt.Errorf("%w: no transcriber configured", ErrTranscriptionFailed)
	}

	tmpPath, err := s.stageUpload(audio)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTranscriptionFailed, err)
	}
	defer os.Remove(tmpPath)

	tx, err := s.Transcribe.Transcribe(ctx, tmpPath)
	if err != nil {
		log.Warn().Err(err).Msg("transcription failed")
		res, _ := s.apologyTurn(ctx)
		return res, fmt.Errorf("%w: %v", ErrTranscriptionFailed, err)
	}

	detected, _ := lexicon.ParseLanguage(tx.Language)
	lang := s.Lexicon.Resolve(detected)
	intent, entities := s.Classifier.Classify(tx.Text, lang)
	intentsTotal.WithLabelValues(string(intent), string(lang)).Inc()
	span.SetAttributes(
		attribute.String("turn.intent", string(intent)),
		attribute.String("turn.language", string(lang)),
	)

	reply, err := s.Generator.Generate(intent, entities, lang)
	if err != nil {
		// Resolve() guarantees a supported language; reaching this means a
		// lexicon misconfiguration.
		return nil, err
	}

	audioName, synthErr := s.speak(ctx, reply)
	if synthErr != nil {
		log.Warn().Err(synthErr).Msg("returning text-only reply")
	}

	turn, err := s.record(ctx, tx.Text, lang, intent, entities.Items, reply, audioName)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("intent", string(intent)).
		Str("language", string(lang)).
		Int("items", len(entities.Items)).
		Msg("turn processed")

	return &TurnResult{Turn: turn, ReplyText: reply, AudioPath: audioName}, nil
}

// ListTurnsPage returns paginated conversation turns, oldest first, plus the
// total count.
func (s *ConversationService) ListTurnsPage(ctx context.Context, page, pageSize int) ([]domain.ConversationTurn, int64, error) {
	tr := otel.Tracer("services/ConversationService")
	ctx, span := tr.Start(ctx, "ListTurnsPage",
		trace.WithAttributes(
			attribute.Int("page", page),
			attribute.Int("page_size", pageSize),
		),
	)
	defer span.End()

	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	total, err := repo.CountTurns(ctx, s.DB)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.ConversationTurn{}, 0, nil
	}

	items, err := repo.ListTurnsPage(ctx, s.DB, offset, pageSize)
	return items, total, err
}

// stageUpload copies the upload to a temp file so the transcription client can
// re-read it. The caller removes the file.
func (s *ConversationService) stageUpload(audio io.Reader) (string, error) {
	f, err := os.CreateTemp("", "voice-upload-*.wav")
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, audio); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}

// speak synthesizes reply audio and writes it under AudioDir, returning the
// file name. When no synthesizer is configured the turn is text-only by
// design and no error is reported; provider or write failures return an error
// wrapping ErrSynthesisFailed so callers can log the degradation.
func (s *ConversationService) speak(ctx context.Context, reply string) (string, error) {
	if s.Synthesize == nil || s.AudioDir == "" {
		return "", nil
	}
	data, err := s.Synthesize.Synthesize(ctx, reply)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSynthesisFailed, err)
	}
	name := uuid.NewString() + ".mp3"
	if err := os.WriteFile(filepath.Join(s.AudioDir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("%w: persist audio: %v", ErrSynthesisFailed, err)
	}
	return name, nil
}

// apologyTurn records a fallback-language apology after a transcription
// failure so the conversation log reflects every interaction, failed ones
// included. The apology is spoken when a synthesizer is available.
func (s *ConversationService) apologyTurn(ctx context.Context) (*TurnResult, error) {
	lang := s.Lexicon.Fallback()
	reply, err := s.Generator.Apology(lang)
	if err != nil {
		return nil, err
	}
	audioName, synthErr := s.speak(ctx, reply)
	if synthErr != nil {
		log.Warn().Err(synthErr).Msg("apology is text-only")
	}
	turn, err := s.record(ctx, "", lang, lexicon.IntentUnknown, nil, reply, audioName)
	if err != nil {
		return nil, err
	}
	return &TurnResult{Turn: turn, ReplyText: reply, AudioPath: audioName}, nil
}

// record persists the turn to the database and appends it to the NDJSON log.
func (s *ConversationService) record(ctx context.Context, input string, lang lexicon.Language, intent lexicon.Intent, items []string, reply, audioName string) (*domain.ConversationTurn, error) {
	turn, err := repo.CreateTurn(ctx, s.DB, input, string(lang), string(intent), items, reply, audioName)
	if err != nil {
		return nil, err
	}
	if s.Log != nil {
		if lerr := s.Log.Append(translog.Entry{
			TurnID:    turn.ID,
			Timestamp: time.Now().UTC(),
			InputText: input,
			Language:  string(lang),
			Intent:    string(intent),
			Items:     items,
			ReplyText: reply,
			AudioPath: audioName,
		}); lerr != nil {
			// The DB row is the source of truth; a log append failure is
			// observability loss, not turn failure.
			log.Error().Err(lerr).Msg("conversation log append failed")
		}
	}
	return turn, nil
}
