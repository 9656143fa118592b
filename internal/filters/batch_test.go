package filters

import (
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"almanac/internal/bars"
	apperrors "almanac/internal/errors"
	"almanac/internal/shared/testutil"
)

func TestEvaluateBatch_IsolatesFailures(t *testing.T) {
	logger, handler := testutil.NewTestLogger(t)
	engine := NewEngine(logger)

	days := scenarioDays()
	days[3].Close = 0 // prior close of day 4 becomes zero

	predicates := []Predicate{
		{Asset: AssetStudied, Metric: MetricVolume, Comparator: GT, Threshold: Threshold(0)},
		{Asset: AssetStudied, Metric: MetricGap, Comparator: GT, Threshold: Threshold(0)},
		{Asset: "unknown", Metric: MetricGap, Comparator: GT, Threshold: Threshold(0)},
		{Asset: AssetStudied, Metric: MetricDailyRange, Comparator: GT, Threshold: Threshold(0)},
	}

	outcomes := engine.EvaluateBatch(days, nil, predicates)
	require.Len(t, outcomes, 4)

	assert.True(t, outcomes[0].OK())
	assert.Equal(t, 5, outcomes[0].Stats.FilteredDays)

	assert.False(t, outcomes[1].OK())
	assert.True(t, apperrors.IsNumeric(outcomes[1].Err))
	assert.Nil(t, outcomes[1].Mask)
	assert.Equal(t, 0, outcomes[1].Stats.FilteredDays)

	assert.False(t, outcomes[2].OK())
	assert.True(t, apperrors.IsValidation(outcomes[2].Err))

	assert.True(t, outcomes[3].OK(), "a sibling failure must not abort later predicates")
	assert.Equal(t, 3, outcomes[3].Index)

	assert.Len(t, Masks(outcomes), 2)
	testutil.AssertLogContains(t, handler, slog.LevelWarn, "filter batch had failures")
	assert.True(t, handler.ContainsAttr("component", "filter_engine"))
}

func TestEvaluateBatch_RecoversPanics(t *testing.T) {
	engine := NewEngine(nil)
	// a zero-value engine has no validator; Evaluate panics on the nil pointer
	broken := &Engine{logger: engine.logger}

	outcomes := broken.EvaluateBatch(scenarioDays(), nil, []Predicate{
		{Asset: AssetStudied, Metric: MetricVolume, Comparator: GT, Threshold: Threshold(0)},
	})
	require.Len(t, outcomes, 1)
	assert.Error(t, outcomes[0].Err)
	assert.True(t, apperrors.IsNumeric(outcomes[0].Err))
	assert.Contains(t, outcomes[0].Err.Error(), "panicked")
}

func TestOutcome_MarshalJSON(t *testing.T) {
	outcomes := NewEngine(nil).EvaluateBatch(scenarioDays(), nil, []Predicate{
		{Asset: AssetIntermarket, Metric: MetricVolume, Comparator: GT, Threshold: Threshold(1500000)},
	})
	raw, err := json.Marshal(outcomes[0])
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, "Intermarket Product Volume > 1,500,000", decoded["description"])
	errDetail, ok := decoded["error"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "VALIDATION", errDetail["type"])
	assert.Equal(t, "asset", errDetail["field"])
}

func TestNewSampleStats(t *testing.T) {
	s := NewSampleStats(200, 30)
	assert.InDelta(t, 15.0, s.Percentage, 1e-12)
	assert.True(t, s.IsSufficient)

	s = NewSampleStats(0, 0)
	assert.Equal(t, 0.0, s.Percentage)
	assert.False(t, s.IsSufficient)
	assert.False(t, NewSampleStats(100, 29).IsSufficient)
}

func TestCombine(t *testing.T) {
	a := Mask{true, true, false, false}
	b := Mask{true, false, true, false}

	and, err := Combine([]Mask{a, nil, b, {}}, AND, 4)
	require.NoError(t, err)
	assert.Equal(t, Mask{true, false, false, false}, and)

	or, err := Combine([]Mask{a, b}, OR, 4)
	require.NoError(t, err)
	assert.Equal(t, Mask{true, true, true, false}, or)
	assert.Equal(t, Mask{true, true, false, false}, a, "inputs must not be modified")

	t.Run("empty defaults", func(t *testing.T) {
		all, err := Combine(nil, AND, 3)
		require.NoError(t, err)
		assert.Equal(t, Mask{true, true, true}, all)

		none, err := Combine([]Mask{nil, {}}, OR, 3)
		require.NoError(t, err)
		assert.Equal(t, Mask{false, false, false}, none)
	})

	t.Run("errors", func(t *testing.T) {
		_, err := Combine([]Mask{a}, "XOR", 4)
		assert.True(t, apperrors.IsValidation(err))

		_, err = Combine([]Mask{a, {true}}, AND, 4)
		assert.Equal(t, "masks", apperrors.FieldOf(err))
	})
}

func TestProjectToMinuteRows(t *testing.T) {
	days := scenarioDays()
	var minutes []bars.Bar
	for _, d := range days {
		minutes = append(minutes, testutil.MinuteSeries(d.Time, 9, 30, []float64{d.Open, d.Close})...)
	}

	bull, err := NewEngine(nil).Quick(days, QuickBull)
	require.NoError(t, err)

	got, err := ProjectToMinuteRows(days, bull, minutes)
	require.NoError(t, err)
	require.Len(t, got, 6)
	for _, b := range got {
		assert.NotEqual(t, days[1].Date, b.Date())
		assert.NotEqual(t, days[4].Date, b.Date())
	}

	_, err = ProjectToMinuteRows(days, Mask{true}, minutes)
	assert.True(t, apperrors.IsValidation(err))

	none, err := ProjectToMinuteRows(days, Fill(len(days), false), minutes)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		name string
		pred Predicate
		want string
	}{
		{
			name: "return percentage",
			pred: Predicate{Asset: AssetStudied, Metric: MetricDailyReturn, Comparator: GT, Threshold: Threshold(0.015)},
			want: "Studied Product Daily Return > 1.50%",
		},
		{
			name: "negative gap",
			pred: Predicate{Asset: AssetIntermarket, Metric: MetricGap, Comparator: LTE, Threshold: Threshold(-0.005)},
			want: "Intermarket Product Gap <= -0.50%",
		},
		{
			name: "volume grouping",
			pred: Predicate{Asset: AssetStudied, Metric: MetricVolume, Comparator: GTE, Threshold: Threshold(2500000.4)},
			want: "Studied Product Volume >= 2,500,000",
		},
		{
			name: "missing threshold",
			pred: Predicate{Asset: AssetStudied, Metric: MetricDailyRange, Comparator: EQ},
			want: "Studied Product Daily Range = ?",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Describe(tt.pred))
		})
	}
}
