package core

import (
	"errors"
	"testing"
)

func TestScoreLevel(t *testing.T) {
	tests := []struct {
		score int
		want  RiskLevel
	}{
		{0, RiskLow},
		{19, RiskLow},
		{20, RiskMedium},
		{49, RiskMedium},
		{50, RiskHigh},
		{74, RiskHigh},
		{75, RiskCritical},
		{100, RiskCritical},
	}
	for _, tt := range tests {
		if got := ScoreLevel(tt.score); got != tt.want {
			t.Errorf("ScoreLevel(%d) = %s, want %s", tt.score, got, tt.want)
		}
	}
}

func TestDeriveRisk(t *testing.T) {
	tests := []struct {
		name         string
		phishing, ai bool
		maxScore     int
		wantLevel    RiskLevel
		wantCategory Category
	}{
		{"phishing and ai", true, true, 55, RiskCritical, CategoryAIPhishing},
		{"phishing only high", true, false, 60, RiskHigh, CategoryPhishing},
		{"phishing only critical", true, false, 90, RiskCritical, CategoryPhishing},
		{"ai only", false, true, 40, RiskSafe, CategorySafe},
		{"clean", false, false, 10, RiskSafe, CategorySafe},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			level, category := DeriveRisk(tt.phishing, tt.ai, tt.maxScore)
			if level != tt.wantLevel || category != tt.wantCategory {
				t.Errorf("DeriveRisk() = %s/%d, want %s/%d", level, category, tt.wantLevel, tt.wantCategory)
			}
		})
	}
}

func TestScanStatsAdd(t *testing.T) {
	var s ScanStats
	for _, c := range []Category{CategorySafe, CategoryPhishing, CategoryAIPhishing, CategorySafe} {
		s.add(c)
	}
	if s.Total != 4 || s.Safe != 2 || s.Phishing != 1 || s.AIPhishing != 1 {
		t.Errorf("stats = %+v", s)
	}
	if s.Total != s.Safe+s.Phishing+s.AIPhishing {
		t.Error("counts do not add up to total")
	}
}

func TestParseMessageFilter(t *testing.T) {
	for in, want := range map[string]MessageFilter{
		"":            FilterAll,
		"all":         FilterAll,
		"phishing":    FilterPhishing,
		"ai_phishing": FilterAIPhishing,
		"safe":        FilterSafe,
	} {
		got, err := ParseMessageFilter(in)
		if err != nil || got != want {
			t.Errorf("ParseMessageFilter(%q) = %q, %v", in, got, err)
		}
	}

	if _, err := ParseMessageFilter("spam"); !errors.Is(err, ErrInvalidFilter) {
		t.Errorf("expected ErrInvalidFilter, got %v", err)
	}
}

func TestScanErrorMessage(t *testing.T) {
	cause := errors.New("token expired")
	err := &ScanError{Message: "authentication error", Details: "authentication error: token expired", Err: cause}
	if !errors.Is(err, cause) {
		t.Error("ScanError should unwrap to its cause")
	}
	if got := (&ScanError{Message: "mailbox account not connected"}).Error(); got != "mailbox account not connected" {
		t.Errorf("Error() = %q", got)
	}
}
