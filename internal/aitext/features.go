package aitext

import (
	"math"
	"regexp"
	"strings"
)

const (
	minPerplexityWords  = 10
	minSentences        = 3
	minVocabularyWords  = 50
	maxExpectedEntropy  = 8.0
	neutralVocabulary   = 0.5
	uniformStructure    = 0.7
	clauseHeavy         = 0.6
	plainStructure      = 0.3
	uniformCommaStd     = 0.5
	minUniformCommas    = 1.0
	maxUniformCommas    = 2.5
	clauseHeavyAverage  = 1.5
	patternWeight       = 0.1
	connectorWeight     = 0.3
	hedgeWeight         = 0.2
	suspiciousHitWeight = 2
)

var (
	sentenceSplit = regexp.MustCompile(`[.!?]+`)
	wordPattern   = regexp.MustCompile(`[\p{L}\p{N}_]+`)
)

// Perplexity approximates predictability as the inverted, normalized Shannon
// entropy of the lower-cased whitespace tokens. Fewer than ten tokens score 0.
func Perplexity(text string) float64 {
	words := strings.Fields(strings.ToLower(text))
	if len(words) < minPerplexityWords {
		return 0
	}

	counts := make(map[string]int, len(words))
	order := make([]string, 0, len(words))
	for _, w := range words {
		if counts[w] == 0 {
			order = append(order, w)
		}
		counts[w]++
	}

	total := float64(len(words))
	entropy := 0.0
	for _, w := range order {
		p := float64(counts[w]) / total
		entropy -= p * math.Log2(p)
	}

	return 1.0 - math.Min(entropy/maxExpectedEntropy, 1.0)
}

// Burstiness maps the coefficient of variation of sentence lengths through
// the table. Fewer than three sentences score 0.
func Burstiness(text string, table StepTable) float64 {
	sentences := splitSentences(text)
	if len(sentences) < minSentences {
		return 0
	}

	lengths := make([]float64, len(sentences))
	for i, s := range sentences {
		lengths[i] = float64(len(strings.Fields(s)))
	}

	mean, std := meanStd(lengths)
	if mean <= 0 {
		return 0
	}
	return table.Apply(std / mean)
}

// PatternScore combines phrase and pattern hits with connector and hedge
// density, both taken as a percentage of the word count. Capped at 1.
func PatternScore(text string, lex *Lexicon) float64 {
	lower := strings.ToLower(text)

	hits := 0
	for _, phrase := range lex.commonPhrases {
		if strings.Contains(lower, phrase) {
			hits++
		}
	}
	for _, re := range lex.suspiciousPatterns {
		if re.MatchString(lower) {
			hits += suspiciousHitWeight
		}
	}

	connectors := 0
	for _, c := range lex.connectors {
		if strings.Contains(lower, c) {
			connectors++
		}
	}

	hedges := 0
	for _, h := range lex.hedges {
		hedges += strings.Count(lower, h)
	}

	wordCount := len(strings.Fields(text))
	if wordCount == 0 {
		return 0
	}

	connectorRatio := float64(connectors) / float64(wordCount) * 100
	hedgeRatio := float64(hedges) / float64(wordCount) * 100
	score := float64(hits)*patternWeight + connectorRatio*connectorWeight + hedgeRatio*hedgeWeight
	return math.Min(score, 1.0)
}

// Uniformity maps the ratio of distinct sentence-start words through the
// table. Fewer than three sentences score 0.
func Uniformity(text string, table StepTable) float64 {
	sentences := splitSentences(text)
	if len(sentences) < minSentences {
		return 0
	}

	starts := make([]string, 0, len(sentences))
	for _, s := range sentences {
		if words := strings.Fields(s); len(words) > 0 {
			starts = append(starts, strings.ToLower(words[0]))
		}
	}
	if len(starts) == 0 {
		return 0
	}

	unique := make(map[string]struct{}, len(starts))
	for _, w := range starts {
		unique[w] = struct{}{}
	}
	return table.Apply(float64(len(unique)) / float64(len(starts)))
}

// VocabularyDiversity maps the type-token ratio through the table; higher
// means more human-like. Fewer than fifty words score exactly 0.5.
func VocabularyDiversity(text string, table StepTable) float64 {
	words := wordPattern.FindAllString(strings.ToLower(text), -1)
	if len(words) < minVocabularyWords {
		return neutralVocabulary
	}

	unique := make(map[string]struct{}, len(words))
	for _, w := range words {
		unique[w] = struct{}{}
	}
	return table.Apply(float64(len(unique)) / float64(len(words)))
}

// StructureComplexity flags uniform comma usage around a mid-range mean, or a
// high rate of subordinate clause markers. Fewer than three sentences score 0.
func StructureComplexity(text string, lex *Lexicon) float64 {
	sentences := splitSentences(text)
	if len(sentences) < minSentences {
		return 0
	}

	commas := make([]float64, len(sentences))
	clauses := 0
	for i, s := range sentences {
		commas[i] = float64(strings.Count(s, ","))
		lower := strings.ToLower(s)
		for _, marker := range lex.clauseMarkers {
			if strings.Contains(lower, marker) {
				clauses++
			}
		}
	}

	avgCommas, commaStd := meanStd(commas)
	avgClauses := float64(clauses) / float64(len(sentences))

	switch {
	case commaStd < uniformCommaStd && avgCommas > minUniformCommas && avgCommas < maxUniformCommas:
		return uniformStructure
	case avgClauses > clauseHeavyAverage:
		return clauseHeavy
	default:
		return plainStructure
	}
}

// splitSentences splits on runs of terminal punctuation and drops blanks
func splitSentences(text string) []string {
	parts := sentenceSplit.Split(text, -1)
	sentences := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			sentences = append(sentences, s)
		}
	}
	return sentences
}

// meanStd returns the mean and population standard deviation
func meanStd(xs []float64) (float64, float64) {
	if len(xs) == 0 {
		return 0, 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	mean := sum / float64(len(xs))

	sq := 0.0
	for _, x := range xs {
		d := x - mean
		sq += d * d
	}
	return mean, math.Sqrt(sq / float64(len(xs)))
}
