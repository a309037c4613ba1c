// Package nlu – reply generation.
//
// Generate is a pure template lookup keyed on (intent, entities, language).
// It never touches I/O; the only failure mode is an unsupported language,
// which indicates a programming or configuration error upstream — callers are
// expected to pass detected languages through lexicon.Lexicon.Resolve first.
package nlu

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shamstack/voice-order-backend/internal/lexicon"
)

// ErrUnsupportedLanguage is returned by Generate when the language is outside
// the closed supported set. It should not occur in normal operation.
var ErrUnsupportedLanguage = errors.New("unsupported language")

// itemSeparator joins recognized items inside the order confirmation.
const itemSeparator = ", "

// Generator renders localized reply text for a classified utterance.
type Generator struct {
	lex *lexicon.Lexicon
}

// NewGenerator returns a Generator backed by lex.
func NewGenerator(lex *lexicon.Lexicon) *Generator {
	return &Generator{lex: lex}
}

// Generate renders the reply for (intent, entities) in lang.
//
//   - order with recognized items: confirmation listing the items
//   - order with no items: clarification prompt ("what would you like?")
//   - complaint / question / unknown: the corresponding static template
//
// Calling Generate twice with identical inputs yields identical output.
func (g *Generator) Generate(intent lexicon.Intent, entities Entities, lang lexicon.Language) (string, error) {
	t, ok := g.lex.Templates(lang)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedLanguage, lang)
	}

	switch intent {
	case lexicon.IntentOrder:
		if entities.Empty() {
			return t.OrderClarify, nil
		}
		return fmt.Sprintf(t.OrderConfirm, strings.Join(entities.Items, itemSeparator)), nil
	case lexicon.IntentComplaint:
		return t.Complaint, nil
	case lexicon.IntentQuestion:
		return t.Question, nil
	default:
		return t.Unknown, nil
	}
}

// Apology renders the localized fallback line used when transcription fails
// and no intent could be determined.
func (g *Generator) Apology(lang lexicon.Language) (string, error) {
	t, ok := g.lex.Templates(lang)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedLanguage, lang)
	}
	return t.Apology, nil
}
