// Package nlu implements the deterministic language-understanding core of the
// voice agent: intent classification and reply generation over the static
// lexicon. Both operations are pure functions of their inputs — no I/O, no
// shared mutable state — and are therefore safe to call from any number of
// concurrent requests.
//
// Classification is total: any string input, including empty or non-linguistic
// text, yields a well-formed result and never an error. Matching is
// case-insensitive substring containment over the lexicon's trigger phrases,
// evaluated in a fixed priority order (order, complaint, question); the first
// category with a hit wins and there is no scoring or multi-intent output.
package nlu

import (
	"sort"
	"strings"

	"github.com/shamstack/voice-order-backend/internal/lexicon"
)

// Entities carries the structured slots extracted from an utterance.
// For order intents, Items holds the recognized item names in order of
// appearance in the text, duplicates preserved. It is empty for every other
// intent, and may be empty for an order whose items were not recognized.
type Entities struct {
	Items []string `json:"items"`
}

// Empty reports whether no slots were extracted.
func (e Entities) Empty() bool { return len(e.Items) == 0 }

// Classifier assigns an intent and extracts entities from transcribed text.
type Classifier struct {
	lex *lexicon.Lexicon
}

// NewClassifier returns a Classifier backed by lex.
func NewClassifier(lex *lexicon.Lexicon) *Classifier {
	return &Classifier{lex: lex}
}

// Classify determines the caller's intent for text. The language hint selects
// which trigger list is consulted first, but phrases from all supported
// languages are always checked — callers code-switch mid-sentence and the
// transcription engine's language guess is not always right.
//
// Order triggers additionally run item extraction; all other intents carry
// empty entities. Empty or whitespace-only input classifies as unknown.
func (c *Classifier) Classify(text string, hint lexicon.Language) (lexicon.Intent, Entities) {
	lowered := strings.ToLower(text)
	if strings.TrimSpace(lowered) == "" {
		return lexicon.IntentUnknown, Entities{}
	}

	for _, intent := range lexicon.Priority() {
		if !containsAny(lowered, c.lex.AllTriggers(hint, intent)) {
			continue
		}
		if intent == lexicon.IntentOrder {
			return intent, Entities{Items: c.extractItems(lowered)}
		}
		return intent, Entities{}
	}
	return lexicon.IntentUnknown, Entities{}
}

// extractItems scans lowered text for every occurrence of every configured
// item keyword, across all languages, and returns the matches ordered by
// position of first byte. Keywords are matched independently, so ranges from
// different keywords may overlap; occurrences of the same keyword do not.
func (c *Classifier) extractItems(lowered string) []string {
	type hit struct {
		pos  int
		item string
	}
	var hits []hit
	for _, kw := range c.lex.AllItems() {
		if kw == "" {
			continue
		}
		for from := 0; ; {
			i := strings.Index(lowered[from:], kw)
			if i < 0 {
				break
			}
			hits = append(hits, hit{pos: from + i, item: kw})
			from += i + len(kw)
		}
	}
	if len(hits) == 0 {
		return []string{}
	}
	// Stable: hits for the same position keep lexicon order.
	sort.SliceStable(hits, func(a, b int) bool { return hits[a].pos < hits[b].pos })
	out := make([]string, len(hits))
	for i, h := range hits {
		out[i] = h.item
	}
	return out
}

// containsAny reports whether any phrase occurs as a substring of lowered.
// Phrases are stored lower-cased in the lexicon.
func containsAny(lowered string, phrases []string) bool {
	for _, p := range phrases {
		if p != "" && strings.Contains(lowered, p) {
			return true
		}
	}
	return false
}
