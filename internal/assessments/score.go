package assessments

// ScoreItem computes the points earned by one item from its typed
// response. Unanswered items score zero. The result is clamped to
// [0, MaxPoints].
func ScoreItem(it Item) float64 {
	if !it.Answered() || it.MaxPoints <= 0 {
		return 0
	}

	var points float64
	switch it.Type {
	case ItemRating:
		scale := 5
		if it.RatingScale != nil && *it.RatingScale > 0 {
			scale = *it.RatingScale
		}
		value := *it.RatingValue
		if it.ReverseScoring {
			value = scale + 1 - value
		}
		points = float64(value) / float64(scale) * it.MaxPoints

	case ItemYesNo:
		positive := true
		if it.PositiveAnswer != nil {
			positive = *it.PositiveAnswer
		}
		if *it.BoolValue == positive {
			points = it.MaxPoints
		}

	case ItemMeasurement:
		points = scoreMeasurement(it)

	case ItemMultipleChoice:
		points = it.ChoicePoints[*it.ChoiceValue]

	case ItemFreeText, ItemPhoto:
		points = *it.ManualPoints
	}

	return clamp(points, 0, it.MaxPoints)
}

// scoreMeasurement grants full points inside [min, max] and linear
// partial credit outside, falling to zero one range-width away from
// the nearest bound.
func scoreMeasurement(it Item) float64 {
	if it.MinAcceptable == nil || it.MaxAcceptable == nil {
		return 0
	}
	min, max := *it.MinAcceptable, *it.MaxAcceptable
	value := *it.MeasuredValue
	if value >= min && value <= max {
		return it.MaxPoints
	}
	span := max - min
	if span <= 0 {
		return 0
	}
	var deviation float64
	if value < min {
		deviation = min - value
	} else {
		deviation = value - max
	}
	credit := 1 - deviation/span
	if credit < 0 {
		credit = 0
	}
	return credit * it.MaxPoints
}

// ScoreSection returns the section percentage: earned over available
// points times 100, capped at the section max score.
func ScoreSection(sec Section) float64 {
	var earned, available float64
	for _, it := range sec.Items {
		available += it.MaxPoints
		earned += ScoreItem(it)
	}
	if available <= 0 {
		return 0
	}
	score := earned / available * 100
	if sec.MaxScore > 0 && score > sec.MaxScore {
		score = sec.MaxScore
	}
	return score
}

// OverallScore is the weighted average of section scores. Sections
// with zero weight are excluded.
func OverallScore(sections []Section) float64 {
	var weighted, totalWeight float64
	for _, sec := range sections {
		if sec.Weight <= 0 {
			continue
		}
		score := ScoreSection(sec)
		weighted += score * sec.Weight
		totalWeight += sec.Weight
	}
	if totalWeight == 0 {
		return 0
	}
	return weighted / totalWeight
}

// RiskThreshold maps a minimum score to a risk level. Tables are
// ordered from best to worst outcome.
type RiskThreshold struct {
	MinScore float64
	Level    RiskLevel
}

var defaultThresholds = []RiskThreshold{
	{MinScore: 80, Level: RiskLow},
	{MinScore: 60, Level: RiskMedium},
	{MinScore: 40, Level: RiskHigh},
	{MinScore: 0, Level: RiskCritical},
}

// serviceThresholds overrides the default table per service type.
// Pest and hygiene audits classify more strictly.
var serviceThresholds = map[string][]RiskThreshold{
	"pest_control": {
		{MinScore: 90, Level: RiskLow},
		{MinScore: 75, Level: RiskMedium},
		{MinScore: 50, Level: RiskHigh},
		{MinScore: 0, Level: RiskCritical},
	},
	"hygiene_audit": {
		{MinScore: 85, Level: RiskLow},
		{MinScore: 70, Level: RiskMedium},
		{MinScore: 50, Level: RiskHigh},
		{MinScore: 0, Level: RiskCritical},
	},
}

// RiskFor classifies an overall score for a service type.
func RiskFor(serviceType string, score float64) RiskLevel {
	table, ok := serviceThresholds[serviceType]
	if !ok {
		table = defaultThresholds
	}
	for _, t := range table {
		if score >= t.MinScore {
			return t.Level
		}
	}
	return RiskCritical
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
