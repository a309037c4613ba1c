package nlu

import (
	"reflect"
	"testing"

	"github.com/shamstack/voice-order-backend/internal/lexicon"
)

func newClassifier() *Classifier {
	return NewClassifier(lexicon.New())
}

func TestClassify_OrderWithItems(t *testing.T) {
	c := newClassifier()
	intent, ents := c.Classify("I want to order chicken and fries", lexicon.English)
	if intent != lexicon.IntentOrder {
		t.Fatalf("intent = %q, want order", intent)
	}
	if !reflect.DeepEqual(ents.Items, []string{"chicken", "fries"}) {
		t.Fatalf("items = %v, want [chicken fries]", ents.Items)
	}
}

func TestClassify_ArabicComplaint(t *testing.T) {
	c := newClassifier()
	intent, ents := c.Classify("عندي شكوى", lexicon.Arabic)
	if intent != lexicon.IntentComplaint {
		t.Fatalf("intent = %q, want complaint", intent)
	}
	if !ents.Empty() {
		t.Fatalf("complaint should carry no entities, got %v", ents.Items)
	}
}

func TestClassify_EmptyInputIsUnknown(t *testing.T) {
	c := newClassifier()
	for _, in := range []string{"", "   ", "\n\t"} {
		intent, ents := c.Classify(in, lexicon.English)
		if intent != lexicon.IntentUnknown || !ents.Empty() {
			t.Fatalf("Classify(%q) = (%q, %v), want unknown/empty", in, intent, ents.Items)
		}
	}
}

func TestClassify_PriorityOrderBeatsComplaintAndQuestion(t *testing.T) {
	c := newClassifier()
	// All three trigger families present; order must win.
	intent, _ := c.Classify("I have a complaint and a question about my order", lexicon.English)
	if intent != lexicon.IntentOrder {
		t.Fatalf("intent = %q, want order (highest priority)", intent)
	}
	// Complaint beats question.
	intent, _ = c.Classify("a complaint, also a question", lexicon.English)
	if intent != lexicon.IntentComplaint {
		t.Fatalf("intent = %q, want complaint", intent)
	}
}

func TestClassify_CrossLanguageTriggers(t *testing.T) {
	c := newClassifier()
	// Turkish trigger word in a transcript hinted as Arabic still matches.
	intent, _ := c.Classify("merhaba sipariş vermek istiyorum", lexicon.Arabic)
	if intent != lexicon.IntentOrder {
		t.Fatalf("intent = %q, want order from Turkish trigger", intent)
	}
	// Arabic item keyword recognized under an English hint.
	intent, ents := c.Classify("order: شاورما please", lexicon.English)
	if intent != lexicon.IntentOrder {
		t.Fatalf("intent = %q, want order", intent)
	}
	if !reflect.DeepEqual(ents.Items, []string{"شاورما"}) {
		t.Fatalf("items = %v, want [شاورما]", ents.Items)
	}
}

func TestClassify_CaseInsensitive(t *testing.T) {
	c := newClassifier()
	intent, ents := c.Classify("ORDER CHICKEN", lexicon.English)
	if intent != lexicon.IntentOrder || len(ents.Items) != 1 || ents.Items[0] != "chicken" {
		t.Fatalf("got (%q, %v)", intent, ents.Items)
	}
}

func TestClassify_ItemsOrderedByPosition(t *testing.T) {
	c := newClassifier()
	_, ents := c.Classify("order fries then chicken then fries again", lexicon.English)
	want := []string{"fries", "chicken", "fries"}
	if !reflect.DeepEqual(ents.Items, want) {
		t.Fatalf("items = %v, want %v (position order, duplicates kept)", ents.Items, want)
	}
}

func TestClassify_NonOrderIntentsCarryNoItems(t *testing.T) {
	c := newClassifier()
	_, ents := c.Classify("question about chicken", lexicon.English)
	if !ents.Empty() {
		t.Fatalf("question intent should not extract items, got %v", ents.Items)
	}
}

func TestClassify_Idempotent(t *testing.T) {
	c := newClassifier()
	in := "sipariş: chicken, شاورما, fries"
	i1, e1 := c.Classify(in, lexicon.Turkish)
	i2, e2 := c.Classify(in, lexicon.Turkish)
	if i1 != i2 || !reflect.DeepEqual(e1, e2) {
		t.Fatalf("classification not deterministic: (%q,%v) vs (%q,%v)", i1, e1.Items, i2, e2.Items)
	}
}

func TestClassify_UnrecognizedItemsYieldEmptySlice(t *testing.T) {
	c := newClassifier()
	intent, ents := c.Classify("I want to order a pizza", lexicon.English)
	if intent != lexicon.IntentOrder {
		t.Fatalf("intent = %q, want order", intent)
	}
	if ents.Items == nil || len(ents.Items) != 0 {
		t.Fatalf("items = %#v, want empty non-nil slice", ents.Items)
	}
}
