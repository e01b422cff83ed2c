package aitext

import (
	"fmt"
	"regexp"
	"strings"
)

// Lexicon is the curated word and pattern data used by the pattern and
// structure signals. It is copied on construction and never mutated.
type Lexicon struct {
	commonPhrases      []string
	suspiciousPatterns []*regexp.Regexp
	connectors         []string
	hedges             []string
	clauseMarkers      []string
}

// LexiconSource is the raw, uncompiled form of a Lexicon
type LexiconSource struct {
	CommonPhrases      []string
	SuspiciousPatterns []string
	Connectors         []string
	Hedges             []string
	ClauseMarkers      []string
}

// DefaultLexiconSource returns the built-in phrase and pattern lists
func DefaultLexiconSource() LexiconSource {
	return LexiconSource{
		CommonPhrases: []string{
			// assistant boilerplate
			"as an ai", "language model", "i don't have personal",
			"i cannot", "i'm sorry, but", "i apologize",
			// transitions
			"it's worth noting", "it is important to note",
			"it's important to understand", "keep in mind",
			// filler connectors
			"furthermore", "moreover", "additionally", "consequently",
			"nevertheless", "nonetheless", "hence", "thus",
			// hedging
			"it seems that", "it appears that", "one might say",
			"it could be argued", "some may argue",
			// generic conclusions
			"in conclusion", "to summarize", "in summary",
			"ultimately", "overall", "all in all",
		},
		SuspiciousPatterns: []string{
			"utilize", "leverage", "facilitate", "endeavor",
			"subsequent", "aforementioned", "heretofore",
			"delve into", "delve deeper", "explore the nuances",
			"navigate the landscape", "unpack",
			"not only.*but also", "on the one hand.*on the other hand",
			"while.*it is also important",
		},
		Connectors: []string{
			"furthermore", "moreover", "however", "therefore",
			"thus", "hence", "consequently", "additionally",
		},
		Hedges:        []string{"perhaps", "possibly", "might", "could", "may", "seems"},
		ClauseMarkers: []string{"which", "that", "who", "where", "when"},
	}
}

// NewLexicon compiles a lexicon source. Phrases are matched lower-cased.
func NewLexicon(src LexiconSource) (*Lexicon, error) {
	patterns := make([]*regexp.Regexp, 0, len(src.SuspiciousPatterns))
	for _, p := range src.SuspiciousPatterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid suspicious pattern %q: %w", p, err)
		}
		patterns = append(patterns, re)
	}

	return &Lexicon{
		commonPhrases:      lowerAll(src.CommonPhrases),
		suspiciousPatterns: patterns,
		connectors:         lowerAll(src.Connectors),
		hedges:             lowerAll(src.Hedges),
		clauseMarkers:      lowerAll(src.ClauseMarkers),
	}, nil
}

// DefaultLexicon returns the compiled built-in lexicon
func DefaultLexicon() *Lexicon {
	lex, err := NewLexicon(DefaultLexiconSource())
	if err != nil {
		panic(err)
	}
	return lex
}

func lowerAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToLower(s)
	}
	return out
}
