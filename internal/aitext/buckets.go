package aitext

// Step maps every input below Bound to Score
type Step struct {
	Bound float64
	Score float64
}

// StepTable is an ordered boundary table: the first step whose bound is
// greater than the input wins, otherwise Above applies
type StepTable struct {
	Steps []Step
	Above float64
}

// Apply looks x up in the table
func (t StepTable) Apply(x float64) float64 {
	for _, s := range t.Steps {
		if x < s.Bound {
			return s.Score
		}
	}
	return t.Above
}

// Tables groups the step functions used by the signals
type Tables struct {
	// Burstiness maps the sentence-length coefficient of variation
	Burstiness StepTable
	// Uniformity maps the ratio of distinct sentence-start words
	Uniformity StepTable
	// Vocabulary maps the type-token ratio
	Vocabulary StepTable
}

// DefaultTables returns the built-in step tables
func DefaultTables() Tables {
	return Tables{
		Burstiness: StepTable{
			Steps: []Step{{0.2, 0.9}, {0.3, 0.7}, {0.4, 0.5}, {0.5, 0.3}},
			Above: 0.1,
		},
		Uniformity: StepTable{
			Steps: []Step{{0.4, 0.8}, {0.5, 0.6}, {0.6, 0.4}},
			Above: 0.2,
		},
		Vocabulary: StepTable{
			Steps: []Step{{0.4, 0.2}, {0.5, 0.4}, {0.6, 0.6}},
			Above: 0.8,
		},
	}
}

var confidenceLabels = []struct {
	bound float64
	label string
}{
	{0.3, "LOW - Likely Human-Written"},
	{0.5, "MEDIUM-LOW - Possibly Human"},
	{0.65, "MEDIUM - Uncertain"},
	{0.8, "MEDIUM-HIGH - Likely AI"},
	{0.9, "HIGH - Very Likely AI"},
}

// ConfidenceLabel returns the qualitative label of a confidence value
func ConfidenceLabel(confidence float64) string {
	for _, l := range confidenceLabels {
		if confidence < l.bound {
			return l.label
		}
	}
	return "VERY HIGH - Almost Certainly AI"
}
