// Package lexicon holds the static language data that drives intent detection
// and reply generation: trigger phrases per (language, intent), menu item
// keywords, and localized response templates.
//
// The lexicon is read-only after construction and therefore safe for
// unrestricted concurrent use. Matching semantics are deliberately simple —
// case-insensitive substring containment, no tokenization — because callers
// (internal/nlu) depend on that exact behavior for compatibility with the
// phone-agent data this service was trained against. Swapping in a tokenizer
// or a learned classifier only requires replacing this package and the
// classifier behind their interfaces; HTTP and service layers are unaffected.
package lexicon

import (
	"strings"

	"golang.org/x/text/language"
)

// Language is the closed set of languages the agent understands and speaks.
type Language string

const (
	Arabic  Language = "ar"
	English Language = "en"
	Turkish Language = "tr"
)

// Supported lists every valid Language in a stable order.
func Supported() []Language { return []Language{Arabic, English, Turkish} }

// Valid reports whether l is a member of the closed language set.
func (l Language) Valid() bool {
	switch l {
	case Arabic, English, Turkish:
		return true
	}
	return false
}

// Intent is the closed set of caller purposes the classifier can assign.
type Intent string

const (
	IntentOrder     Intent = "order"
	IntentComplaint Intent = "complaint"
	IntentQuestion  Intent = "question"
	IntentUnknown   Intent = "unknown"
)

// Priority returns the intent categories that carry trigger phrases, in the
// fixed evaluation order: the first category with a matching phrase wins.
// Unknown is not listed; it is the fallback when nothing matches.
func Priority() []Intent { return []Intent{IntentOrder, IntentComplaint, IntentQuestion} }

// ParseLanguage maps a transcription engine's language code (BCP 47-ish,
// e.g. "ar", "ar-SY", "arabic", "tr-TR") onto the closed Language set.
// The boolean is false when the code does not resolve to a supported language.
func ParseLanguage(code string) (Language, bool) {
	code = strings.TrimSpace(strings.ToLower(code))
	switch code {
	case "arabic":
		return Arabic, true
	case "english":
		return English, true
	case "turkish":
		return Turkish, true
	}
	tag, err := language.Parse(code)
	if err != nil {
		return "", false
	}
	base, conf := tag.Base()
	if conf == language.No {
		return "", false
	}
	l := Language(base.String())
	return l, l.Valid()
}

// Lexicon is the immutable phrase and template store consulted by the
// classifier and the response generator.
type Lexicon struct {
	triggers  map[Language]map[Intent][]string
	items     map[Language][]string
	templates map[Language]TemplateSet
	fallback  Language
}

// TemplateSet holds the localized reply templates for one language.
// OrderConfirm is a format string with a single %s slot for the joined items;
// the remaining templates are static.
type TemplateSet struct {
	OrderConfirm string
	OrderClarify string
	Complaint    string
	Question     string
	Unknown      string
	Apology      string
}

// Option customizes Lexicon construction.
type Option func(*Lexicon)

// WithFallback sets the language used by Resolve when a detected language is
// outside the supported set. Invalid values are ignored.
func WithFallback(l Language) Option {
	return func(lx *Lexicon) {
		if l.Valid() {
			lx.fallback = l
		}
	}
}

// WithItems replaces the item keyword list for one language, e.g. to load a
// menu from configuration instead of the built-in defaults.
func WithItems(l Language, items []string) Option {
	return func(lx *Lexicon) {
		if !l.Valid() {
			return
		}
		out := make([]string, 0, len(items))
		for _, it := range items {
			if it = strings.ToLower(strings.TrimSpace(it)); it != "" {
				out = append(out, it)
			}
		}
		lx.items[l] = out
	}
}

// New builds the default lexicon. The built-in phrase and item data mirror the
// production phone agent: English, Syrian Arabic, and Turkish trigger words,
// and the small shawarma-shop menu vocabulary.
func New(opts ...Option) *Lexicon {
	lx := &Lexicon{
		triggers: map[Language]map[Intent][]string{
			English: {
				IntentOrder:     {"order"},
				IntentComplaint: {"complaint"},
				IntentQuestion:  {"question"},
			},
			Arabic: {
				IntentOrder:     {"طلب"},
				IntentComplaint: {"شكوى"},
				IntentQuestion:  {"سؤال"},
			},
			Turkish: {
				IntentOrder:     {"sipariş"},
				IntentComplaint: {"şikayet"},
				IntentQuestion:  {"soru"},
			},
		},
		items: map[Language][]string{
			English: {"chicken", "shawarma", "fries"},
			Arabic:  {"دجاج", "شاورما", "بطاطس"},
			Turkish: {},
		},
		templates: map[Language]TemplateSet{
			English: {
				OrderConfirm: "Thank you for your order! You ordered: %s. Order will be confirmed soon.",
				OrderClarify: "Please clarify what you want to order.",
				Complaint:    "Sorry for any inconvenience! Can you clarify the complaint?",
				Question:     "Any questions? We're here to help!",
				Unknown:      "I didn't understand, can you clarify?",
				Apology:      "Sorry, something went wrong. Please try again.",
			},
			Arabic: {
				OrderConfirm: "شكراً على طلبك! طلبت: %s. بيتم تأكيد الطلب قريباً.",
				OrderClarify: "ممكن توضح وش تبغى تطلب؟",
				Complaint:    "آسفين على أي إزعاج! ممكن توضح الشكوى ونحلها فوراً؟",
				Question:     "أي سؤال عندك؟ جاهزين نساعد!",
				Unknown:      "ما فهمت، ممكن توضح أكثر؟",
				Apology:      "عذراً، فيه مشكلة. حاول مرة ثانية.",
			},
			Turkish: {
				OrderConfirm: "Siparişiniz için teşekkürler! Sipariş ettiniz: %s. Sipariş yakında onaylanacak.",
				OrderClarify: "Lütfen ne sipariş etmek istediğinizi belirtin.",
				Complaint:    "Herhangi bir rahatsızlık için üzgünüz! Şikayeti açıklayabilir misiniz?",
				Question:     "Sorunuz mu var? Yardımcı olmaya hazırız!",
				Unknown:      "Anlamadım, daha fazla açıklayabilir misiniz?",
				Apology:      "Üzgünüz, bir sorun oluştu. Lütfen tekrar deneyin.",
			},
		},
		fallback: Arabic,
	}
	for _, o := range opts {
		o(lx)
	}
	return lx
}

// Fallback returns the configured fallback language.
func (lx *Lexicon) Fallback() Language { return lx.fallback }

// Resolve maps any language value onto a supported one: members of the closed
// set map to themselves, everything else maps to the configured fallback.
// It is total — there is no silent cascade to the "last" language.
func (lx *Lexicon) Resolve(l Language) Language {
	if l.Valid() {
		return l
	}
	return lx.fallback
}

// Triggers returns the trigger phrases for (l, intent). The returned slice
// must not be mutated.
func (lx *Lexicon) Triggers(l Language, intent Intent) []string {
	return lx.triggers[l][intent]
}

// AllTriggers returns the trigger phrases for intent across every supported
// language, language-hint first. The agent matches keywords from all three
// languages regardless of the detected language, so a Turkish "sipariş" in an
// otherwise-Arabic transcript still signals an order.
func (lx *Lexicon) AllTriggers(hint Language, intent Intent) []string {
	out := make([]string, 0, 4)
	out = append(out, lx.triggers[hint][intent]...)
	for _, l := range Supported() {
		if l == hint {
			continue
		}
		out = append(out, lx.triggers[l][intent]...)
	}
	return out
}

// AllItems returns every configured item keyword across all languages, in the
// stable Supported() order. The returned slice must not be mutated.
func (lx *Lexicon) AllItems() []string {
	out := make([]string, 0, 8)
	for _, l := range Supported() {
		out = append(out, lx.items[l]...)
	}
	return out
}

// Templates returns the template set for l. The boolean is false when l is
// outside the supported set; callers that want fallback behavior instead of
// an error should pass the language through Resolve first.
func (lx *Lexicon) Templates(l Language) (TemplateSet, bool) {
	t, ok := lx.templates[l]
	return t, ok
}
