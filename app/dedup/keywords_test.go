package dedup

import (
	"reflect"
	"strings"
	"testing"
)

func TestExtractKeywords(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{
			name:     "folds accents and drops stop words",
			input:    "Un chat bloque le métro",
			expected: []string{"chat", "bloque", "metro"},
		},
		{
			name:     "drops short tokens",
			input:    "Un vol de gaz à Lyon",
			expected: []string{"lyon"},
		},
		{
			name:     "strips punctuation",
			input:    "Moutarde : pénurie, panique !",
			expected: []string{"moutarde", "penurie", "panique"},
		},
		{
			name:     "deduplicates tokens",
			input:    "Chat contre chat : le match",
			expected: []string{"chat", "contre", "match"},
		},
		{
			name:     "empty input",
			input:    "",
			expected: nil,
		},
	}

	for _, tt := range tests {
		got := ExtractKeywords(tt.input)
		if !reflect.DeepEqual(got, tt.expected) {
			t.Errorf("%s: ExtractKeywords(%q) = %v, expected %v", tt.name, tt.input, got, tt.expected)
		}
	}
}

func TestExtractKeywordsIdempotent(t *testing.T) {
	titles := []string{
		"Un chat paralyse le métro parisien",
		"Pénurie de café : l'Élysée décrète l'état d'urgence",
	}

	for _, title := range titles {
		first := ExtractKeywords(title)
		second := ExtractKeywords(strings.Join(first, " "))
		if !reflect.DeepEqual(first, second) {
			t.Errorf("extraction not idempotent for %q: %v then %v", title, first, second)
		}
	}
}

func TestOverlapRatio(t *testing.T) {
	candidate := []string{"chat", "bloque", "metro"}
	reference := []string{"chat", "paralyse", "metro", "parisien"}

	ratio, shared := OverlapRatio(candidate, reference)
	if shared != 2 {
		t.Errorf("expected 2 shared keywords, got %d", shared)
	}
	if ratio < 0.66 || ratio > 0.67 {
		t.Errorf("expected ratio 2/3, got %f", ratio)
	}
}

func TestOverlapRatioDisjoint(t *testing.T) {
	ratio, shared := OverlapRatio([]string{"chien", "aboie", "fort"}, []string{"chat", "miaule", "doucement"})
	if ratio != 0 || shared != 0 {
		t.Errorf("expected no overlap, got ratio %f shared %d", ratio, shared)
	}
}

func TestOverlapRatioEmptySets(t *testing.T) {
	if ratio, _ := OverlapRatio(nil, []string{"chat"}); ratio != 0 {
		t.Errorf("empty candidate should yield 0, got %f", ratio)
	}
	if ratio, _ := OverlapRatio([]string{"chat"}, nil); ratio != 0 {
		t.Errorf("empty reference should yield 0, got %f", ratio)
	}
}
