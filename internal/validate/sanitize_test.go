package validate

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSanitizeForStorage_DropsNilKeys(t *testing.T) {
	in := map[string]any{"keep": "value", "drop": nil}
	out := SanitizeForStorage(in, 10, 100).(map[string]any)

	if _, ok := out["drop"]; ok {
		t.Error("nil-valued key should be dropped")
	}
	if out["keep"] != "value" {
		t.Errorf("keep = %v, want %q", out["keep"], "value")
	}
}

func TestSanitizeForStorage_TruncatesStrings(t *testing.T) {
	in := map[string]any{"body": strings.Repeat("x", 50)}
	out := SanitizeForStorage(in, 10, 10).(map[string]any)

	if got := out["body"].(string); len(got) != 10 {
		t.Errorf("string length = %d, want 10", len(got))
	}
}

func TestSanitizeForStorage_TruncatesOnRuneBoundary(t *testing.T) {
	// 3-byte runes: a byte-based cut at 10 would split the fourth rune.
	in := map[string]any{"body": strings.Repeat("日", 20)}
	out := SanitizeForStorage(in, 10, 10).(map[string]any)

	got := out["body"].(string)
	if !utf8.ValidString(got) {
		t.Errorf("truncated string is not valid UTF-8: %q", got)
	}
	if n := utf8.RuneCountInString(got); n != 10 {
		t.Errorf("rune count = %d, want 10", n)
	}
}

func TestSanitizeForStorage_CapsLists(t *testing.T) {
	list := make([]any, 150)
	for i := range list {
		list[i] = i
	}
	out := SanitizeForStorage([]any{list}, 10, 100).([]any)

	if got := len(out[0].([]any)); got != 100 {
		t.Errorf("list length = %d, want 100", got)
	}
}

func TestSanitizeForStorage_ReplacesDeepNesting(t *testing.T) {
	deep := any("leaf")
	for i := 0; i < 8; i++ {
		deep = map[string]any{"next": deep}
	}

	out := SanitizeForStorage(deep, 3, 100)

	// Values at depth maxDepth are kept; the first level beyond it is
	// replaced with the sentinel.
	cur := out
	for i := 0; i < 4; i++ {
		m, ok := cur.(map[string]any)
		if !ok {
			t.Fatalf("level %d: expected map, got %T", i, cur)
		}
		cur = m["next"]
	}
	if cur != DepthSentinel {
		t.Errorf("beyond maxDepth: got %v, want sentinel", cur)
	}
}

func TestSanitizeForStorage_DoesNotMutateInput(t *testing.T) {
	in := map[string]any{"drop": nil, "body": strings.Repeat("y", 50)}
	SanitizeForStorage(in, 10, 10)

	if _, ok := in["drop"]; !ok {
		t.Error("input map was mutated")
	}
	if len(in["body"].(string)) != 50 {
		t.Error("input string was mutated")
	}
}
