package aitext

import (
	"math"
	"strings"
	"testing"
)

func TestStepTableApply(t *testing.T) {
	table := DefaultTables().Burstiness
	tests := []struct {
		cv   float64
		want float64
	}{
		{0, 0.9},
		{0.19, 0.9},
		{0.2, 0.7},
		{0.29, 0.7},
		{0.3, 0.5},
		{0.4, 0.3},
		{0.5, 0.1},
		{3, 0.1},
	}
	for _, tt := range tests {
		if got := table.Apply(tt.cv); got != tt.want {
			t.Errorf("Apply(%v) = %v, want %v", tt.cv, got, tt.want)
		}
	}
}

func TestPerplexityShortText(t *testing.T) {
	if got := Perplexity("one two three four five six seven eight nine"); got != 0 {
		t.Errorf("Perplexity of 9 words = %v, want 0", got)
	}
}

func TestPerplexityRepetitionRaisesScore(t *testing.T) {
	varied := "the quick brown fox jumps over a lazy dog while seven wizards quietly hum"
	repetitive := "the plan the plan the plan the plan the plan the plan the plan"

	v, r := Perplexity(varied), Perplexity(repetitive)
	if r <= v {
		t.Errorf("repetitive text should score higher: repetitive=%v varied=%v", r, v)
	}
	// two equally likely tokens carry exactly one bit
	if want := 1 - 1.0/8; math.Abs(r-want) > 1e-9 {
		t.Errorf("Perplexity(repetitive) = %v, want %v", r, want)
	}
}

func TestSentenceSignalsNeedThreeSentences(t *testing.T) {
	text := "This is the first sentence of the text. And this one is the second one!"
	tables := DefaultTables()
	lex := DefaultLexicon()

	if got := Burstiness(text, tables.Burstiness); got != 0 {
		t.Errorf("Burstiness = %v, want 0", got)
	}
	if got := Uniformity(text, tables.Uniformity); got != 0 {
		t.Errorf("Uniformity = %v, want 0", got)
	}
	if got := StructureComplexity(text, lex); got != 0 {
		t.Errorf("StructureComplexity = %v, want 0", got)
	}
}

func TestBurstinessUniformSentences(t *testing.T) {
	text := "We ship the order today. We pack the box today. We send the note today."
	if got := Burstiness(text, DefaultTables().Burstiness); got != 0.9 {
		t.Errorf("Burstiness = %v, want 0.9", got)
	}
}

func TestUniformityRepeatedStarts(t *testing.T) {
	text := "We go. We stay. We run. We walk. We sit. They sit."
	// 2 distinct starts over 6 sentences
	if got := Uniformity(text, DefaultTables().Uniformity); got != 0.8 {
		t.Errorf("Uniformity = %v, want 0.8", got)
	}
}

func TestVocabularyDiversityNeutralBelowFiftyWords(t *testing.T) {
	text := strings.Repeat("same ", 49)
	if got := VocabularyDiversity(text, DefaultTables().Vocabulary); got != 0.5 {
		t.Errorf("VocabularyDiversity = %v, want 0.5", got)
	}
}

func TestVocabularyDiversityLowTTR(t *testing.T) {
	text := strings.Repeat("alpha beta ", 30)
	if got := VocabularyDiversity(text, DefaultTables().Vocabulary); got != 0.2 {
		t.Errorf("VocabularyDiversity = %v, want 0.2", got)
	}
}

func TestPatternScore(t *testing.T) {
	lex := DefaultLexicon()

	if got := PatternScore("", lex); got != 0 {
		t.Errorf("PatternScore(empty) = %v, want 0", got)
	}

	plain := "Lunch at noon works for me, see you at the cafe on Main Street."
	if got := PatternScore(plain, lex); got != 0 {
		t.Errorf("PatternScore(plain) = %v, want 0", got)
	}

	formal := "Furthermore, we leverage synergies. Moreover, in conclusion, results follow."
	if got := PatternScore(formal, lex); got != 1.0 {
		t.Errorf("PatternScore(formal) = %v, want capped 1.0", got)
	}
}

func TestStructureComplexityUniformCommas(t *testing.T) {
	lex := DefaultLexicon()
	text := "First, we plan, then act. Next, we test, then ship. Finally, we rest, then repeat."
	if got := StructureComplexity(text, lex); got != 0.7 {
		t.Errorf("StructureComplexity = %v, want 0.7", got)
	}

	plain := "We plan. We act. We ship."
	if got := StructureComplexity(plain, lex); got != 0.3 {
		t.Errorf("StructureComplexity(plain) = %v, want 0.3", got)
	}
}

func TestConfidenceLabel(t *testing.T) {
	tests := []struct {
		conf float64
		want string
	}{
		{0, "LOW - Likely Human-Written"},
		{0.3, "MEDIUM-LOW - Possibly Human"},
		{0.5, "MEDIUM - Uncertain"},
		{0.65, "MEDIUM-HIGH - Likely AI"},
		{0.8, "HIGH - Very Likely AI"},
		{0.9, "VERY HIGH - Almost Certainly AI"},
		{1, "VERY HIGH - Almost Certainly AI"},
	}
	for _, tt := range tests {
		if got := ConfidenceLabel(tt.conf); got != tt.want {
			t.Errorf("ConfidenceLabel(%v) = %q, want %q", tt.conf, got, tt.want)
		}
	}
}

func TestNewLexiconRejectsBadPattern(t *testing.T) {
	src := DefaultLexiconSource()
	src.SuspiciousPatterns = append(src.SuspiciousPatterns, "(unclosed")
	if _, err := NewLexicon(src); err == nil {
		t.Fatal("expected error for invalid pattern")
	}
}
