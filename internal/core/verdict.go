package core

import (
	"fmt"
)

// scoreLevels maps an additive URL risk score to a level; the first bound
// the score falls under wins
var scoreLevels = []struct {
	below int
	level RiskLevel
}{
	{20, RiskLow},
	{50, RiskMedium},
	{75, RiskHigh},
}

// SuspiciousScore is the URL risk score at which a URL is considered phishing
const SuspiciousScore = 50

// ScoreLevel returns the risk level for a URL risk score
func ScoreLevel(score int) RiskLevel {
	for _, b := range scoreLevels {
		if score < b.below {
			return b.level
		}
	}
	return RiskCritical
}

// Category is the per-run counter bucket a message verdict falls into
type Category int

const (
	CategorySafe Category = iota
	CategoryPhishing
	CategoryAIPhishing
)

// DeriveRisk reduces the link and text sub-results of a message to its final
// risk level and counter bucket
func DeriveRisk(isPhishing, isAIGenerated bool, maxScore int) (RiskLevel, Category) {
	switch {
	case isPhishing && isAIGenerated:
		return RiskCritical, CategoryAIPhishing
	case isPhishing:
		return ScoreLevel(maxScore), CategoryPhishing
	default:
		return RiskSafe, CategorySafe
	}
}

// ParseMessageFilter validates a message list filter, treating empty as all
func ParseMessageFilter(s string) (MessageFilter, error) {
	switch f := MessageFilter(s); f {
	case "":
		return FilterAll, nil
	case FilterAll, FilterPhishing, FilterAIPhishing, FilterSafe:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidFilter, s)
	}
}

func (s *ScanStats) add(c Category) {
	s.Total++
	switch c {
	case CategoryAIPhishing:
		s.AIPhishing++
	case CategoryPhishing:
		s.Phishing++
	default:
		s.Safe++
	}
}
