package assessments

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int           { return &v }
func boolPtr(v bool) *bool        { return &v }
func floatPtr(v float64) *float64 { return &v }
func stringPtr(v string) *string  { return &v }

func TestScoreItemUnanswered(t *testing.T) {
	require.Zero(t, ScoreItem(Item{Type: ItemRating, MaxPoints: 10}))
	require.Zero(t, ScoreItem(Item{Type: ItemYesNo, MaxPoints: 10}))
	require.Zero(t, ScoreItem(Item{Type: ItemRating, MaxPoints: 0, RatingValue: intPtr(5)}))
}

func TestScoreItemRating(t *testing.T) {
	it := Item{Type: ItemRating, MaxPoints: 10, RatingValue: intPtr(4)}
	require.InDelta(t, 8.0, ScoreItem(it), 1e-9)

	it.RatingScale = intPtr(10)
	require.InDelta(t, 4.0, ScoreItem(it), 1e-9)
}

func TestScoreItemRatingReversed(t *testing.T) {
	it := Item{Type: ItemRating, MaxPoints: 10, ReverseScoring: true, RatingValue: intPtr(1)}
	require.InDelta(t, 10.0, ScoreItem(it), 1e-9)

	it.RatingValue = intPtr(5)
	require.InDelta(t, 2.0, ScoreItem(it), 1e-9)
}

func TestScoreItemYesNo(t *testing.T) {
	it := Item{Type: ItemYesNo, MaxPoints: 5, BoolValue: boolPtr(true)}
	require.InDelta(t, 5.0, ScoreItem(it), 1e-9)

	it.BoolValue = boolPtr(false)
	require.Zero(t, ScoreItem(it))

	it.PositiveAnswer = boolPtr(false)
	require.InDelta(t, 5.0, ScoreItem(it), 1e-9)
}

func TestScoreItemMeasurement(t *testing.T) {
	it := Item{
		Type:          ItemMeasurement,
		MaxPoints:     10,
		MinAcceptable: floatPtr(2),
		MaxAcceptable: floatPtr(8),
	}

	it.MeasuredValue = floatPtr(5)
	require.InDelta(t, 10.0, ScoreItem(it), 1e-9)

	// One half range-width above max earns half credit.
	it.MeasuredValue = floatPtr(11)
	require.InDelta(t, 5.0, ScoreItem(it), 1e-9)

	it.MeasuredValue = floatPtr(14)
	require.Zero(t, ScoreItem(it))

	it.MeasuredValue = floatPtr(20)
	require.Zero(t, ScoreItem(it))
}

func TestScoreItemMultipleChoice(t *testing.T) {
	it := Item{
		Type:         ItemMultipleChoice,
		MaxPoints:    10,
		ChoicePoints: map[string]float64{"good": 10, "fair": 5, "poor": 0},
		ChoiceValue:  stringPtr("fair"),
	}
	require.InDelta(t, 5.0, ScoreItem(it), 1e-9)

	it.ChoiceValue = stringPtr("unknown")
	require.Zero(t, ScoreItem(it))
}

func TestScoreItemManualClamped(t *testing.T) {
	it := Item{Type: ItemFreeText, MaxPoints: 10, ManualPoints: floatPtr(15)}
	require.InDelta(t, 10.0, ScoreItem(it), 1e-9)

	it.ManualPoints = floatPtr(-5)
	require.Zero(t, ScoreItem(it))

	it = Item{Type: ItemPhoto, MaxPoints: 10, ManualPoints: floatPtr(7)}
	require.InDelta(t, 7.0, ScoreItem(it), 1e-9)
}

func TestScoreSection(t *testing.T) {
	sec := Section{
		Weight: 1,
		Items: []Item{
			{Type: ItemYesNo, MaxPoints: 10, BoolValue: boolPtr(true)},
			{Type: ItemYesNo, MaxPoints: 10, BoolValue: boolPtr(false)},
		},
	}
	require.InDelta(t, 50.0, ScoreSection(sec), 1e-9)
}

func TestScoreSectionCappedAtMaxScore(t *testing.T) {
	sec := Section{
		MaxScore: 80,
		Items: []Item{
			{Type: ItemYesNo, MaxPoints: 10, BoolValue: boolPtr(true)},
		},
	}
	require.InDelta(t, 80.0, ScoreSection(sec), 1e-9)
}

func TestScoreSectionNoItems(t *testing.T) {
	require.Zero(t, ScoreSection(Section{Weight: 1}))
}

func TestOverallScoreWeighted(t *testing.T) {
	sections := []Section{
		{
			Weight: 3,
			Items:  []Item{{Type: ItemYesNo, MaxPoints: 10, BoolValue: boolPtr(true)}},
		},
		{
			Weight: 1,
			Items:  []Item{{Type: ItemYesNo, MaxPoints: 10, BoolValue: boolPtr(false)}},
		},
	}
	require.InDelta(t, 75.0, OverallScore(sections), 1e-9)
}

func TestOverallScoreSkipsZeroWeight(t *testing.T) {
	sections := []Section{
		{
			Weight: 1,
			Items:  []Item{{Type: ItemYesNo, MaxPoints: 10, BoolValue: boolPtr(true)}},
		},
		{
			Weight: 0,
			Items:  []Item{{Type: ItemYesNo, MaxPoints: 10, BoolValue: boolPtr(false)}},
		},
	}
	require.InDelta(t, 100.0, OverallScore(sections), 1e-9)
	require.Zero(t, OverallScore([]Section{{Weight: 0}}))
}

func TestRiskForDefaults(t *testing.T) {
	require.Equal(t, RiskLow, RiskFor("cleaning", 85))
	require.Equal(t, RiskMedium, RiskFor("cleaning", 60))
	require.Equal(t, RiskHigh, RiskFor("cleaning", 45))
	require.Equal(t, RiskCritical, RiskFor("cleaning", 10))
}

func TestRiskForServiceOverrides(t *testing.T) {
	// 85 is low risk by default but only medium for pest control.
	require.Equal(t, RiskMedium, RiskFor("pest_control", 85))
	require.Equal(t, RiskLow, RiskFor("pest_control", 92))
	require.Equal(t, RiskHigh, RiskFor("hygiene_audit", 60))
}

func TestCanTransition(t *testing.T) {
	require.True(t, CanTransition(StatusScheduled, StatusInProgress))
	require.True(t, CanTransition(StatusInProgress, StatusCompleted))
	require.True(t, CanTransition(StatusScheduled, StatusCancelled))

	require.False(t, CanTransition(StatusScheduled, StatusCompleted))
	require.False(t, CanTransition(StatusCompleted, StatusInProgress))
	require.False(t, CanTransition(StatusCancelled, StatusScheduled))
}
