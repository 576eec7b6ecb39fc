package risk

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustContext(t *testing.T, temperature, rainfall, visibility, distance float64, tod string, experience int) RiderContext {
	t.Helper()
	rc, err := NewRiderContext(temperature, rainfall, visibility, distance, tod, experience)
	require.NoError(t, err)
	return rc
}

func stubPredictor(score float64) Predictor {
	return PredictorFunc(func(ctx context.Context, v FeatureVector) (float64, error) {
		return score, nil
	})
}

func TestNewRiderContext(t *testing.T) {
	tests := []struct {
		name        string
		temperature float64
		rainfall    float64
		visibility  float64
		distance    float64
		tod         string
		experience  int
		badFields   []string
	}{
		{name: "accepts typical input", temperature: 20, rainfall: 0, visibility: 10, distance: 30, tod: "morning", experience: 5},
		{name: "accepts inclusive upper bounds", temperature: 59.9, rainfall: 200, visibility: 50, distance: 2000, tod: "night", experience: 50},
		{name: "accepts mixed case time of day", temperature: 20, rainfall: 0, visibility: 10, distance: 30, tod: " Evening ", experience: 5},
		{name: "rejects temperature at lower bound", temperature: -20, rainfall: 0, visibility: 10, distance: 30, tod: "morning", experience: 5, badFields: []string{"temperature"}},
		{name: "rejects temperature at upper bound", temperature: 60, rainfall: 0, visibility: 10, distance: 30, tod: "morning", experience: 5, badFields: []string{"temperature"}},
		{name: "rejects negative rainfall", temperature: 20, rainfall: -1, visibility: 10, distance: 30, tod: "morning", experience: 5, badFields: []string{"rainfall"}},
		{name: "rejects visibility above range", temperature: 20, rainfall: 0, visibility: 50.1, distance: 30, tod: "morning", experience: 5, badFields: []string{"visibility"}},
		{name: "rejects distance above range", temperature: 20, rainfall: 0, visibility: 10, distance: 2001, tod: "morning", experience: 5, badFields: []string{"distance"}},
		{name: "rejects experience above range", temperature: 20, rainfall: 0, visibility: 10, distance: 30, tod: "morning", experience: 51, badFields: []string{"experience"}},
		{name: "rejects unknown time of day", temperature: 20, rainfall: 0, visibility: 10, distance: 30, tod: "dusk", experience: 5, badFields: []string{"time_of_day"}},
		{name: "rejects NaN", temperature: math.NaN(), rainfall: 0, visibility: 10, distance: 30, tod: "morning", experience: 5, badFields: []string{"temperature"}},
		{name: "reports every bad field", temperature: 99, rainfall: 500, visibility: 10, distance: 30, tod: "", experience: -1, badFields: []string{"temperature", "rainfall", "time_of_day", "experience"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRiderContext(tt.temperature, tt.rainfall, tt.visibility, tt.distance, tt.tod, tt.experience)
			if len(tt.badFields) == 0 {
				assert.NoError(t, err)
				return
			}

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Len(t, verr.Fields, len(tt.badFields))
			for _, f := range tt.badFields {
				assert.Contains(t, verr.Fields, f)
			}
		})
	}
}

func TestEncode(t *testing.T) {
	tests := []struct {
		tod      string
		expected [3]float64 // evening, morning, night
	}{
		{"morning", [3]float64{0, 1, 0}},
		{"afternoon", [3]float64{0, 0, 0}},
		{"evening", [3]float64{1, 0, 0}},
		{"night", [3]float64{0, 0, 1}},
		{"NIGHT", [3]float64{0, 0, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.tod, func(t *testing.T) {
			rc := mustContext(t, 21.5, 3.2, 7, 120, tt.tod, 4)
			v := Encode(rc)

			assert.Equal(t, 21.5, v[FeatTemperature])
			assert.Equal(t, 3.2, v[FeatRainfall])
			assert.Equal(t, 7.0, v[FeatVisibility])
			assert.Equal(t, 120.0, v[FeatDistance])
			assert.Equal(t, 4.0, v[FeatExperience])
			assert.Equal(t, tt.expected, [3]float64{v[FeatEvening], v[FeatMorning], v[FeatNight]})
		})
	}
}

func TestEncode_ExactlyOneIndicatorUnlessAfternoon(t *testing.T) {
	for _, tod := range []TimeOfDay{Morning, Afternoon, Evening, Night} {
		rc := mustContext(t, 10, 0, 10, 10, string(tod), 3)
		v := Encode(rc)
		sum := v[FeatEvening] + v[FeatMorning] + v[FeatNight]
		if tod == Afternoon {
			assert.Equal(t, 0.0, sum, "afternoon is the baseline")
		} else {
			assert.Equal(t, 1.0, sum, "exactly one indicator for %s", tod)
		}
	}
}

func TestFeatureNamesOrder(t *testing.T) {
	assert.Equal(t, "temperature_c", FeatureNames[FeatTemperature])
	assert.Equal(t, "experience", FeatureNames[FeatExperience])
	assert.Equal(t, "time_of_day_evening", FeatureNames[FeatEvening])
	assert.Equal(t, "time_of_day_morning", FeatureNames[FeatMorning])
	assert.Equal(t, "time_of_day_night", FeatureNames[FeatNight])
}

func TestBucket(t *testing.T) {
	tests := []struct {
		score    float64
		expected Level
	}{
		{0, LevelLow},
		{0.329, LevelLow},
		{0.33, LevelMedium},
		{0.5, LevelMedium},
		{0.659, LevelMedium},
		{0.66, LevelHigh},
		{1, LevelHigh},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, Bucket(tt.score), "score %v", tt.score)
	}
}

func TestClampAndRound(t *testing.T) {
	assert.Equal(t, 1.0, Clamp(1.4))
	assert.Equal(t, 0.0, Clamp(-0.2))
	assert.Equal(t, 0.42, Clamp(0.42))

	assert.Equal(t, 0.123, Round3(0.12345))
	assert.Equal(t, 0.124, Round3(0.1236))
	assert.Equal(t, 0.8, Round3(0.8))

	// Rounds the stored binary value, with exact ties going to even
	ties := []struct {
		in, want float64
	}{
		{0.0045, 0.004},
		{0.0095, 0.009},
		{0.0625, 0.062},
		{0.0635, 0.064},
		{0.3295, 0.33},
		{1.0, 1.0},
		{0.0, 0.0},
	}
	for _, tt := range ties {
		assert.Equal(t, tt.want, Round3(tt.in), "Round3(%v)", tt.in)
	}
}

func TestFactors_PriorityOrder(t *testing.T) {
	rc := mustContext(t, 40, 10, 3, 100, "night", 1)
	assert.Equal(t, []Factor{
		FactorRain,
		FactorVisibility,
		FactorDistance,
		FactorHeat,
		FactorLowExperience,
		FactorDarkness,
	}, Factors(rc))

	calm := mustContext(t, 20, 0, 20, 10, "afternoon", 10)
	assert.Empty(t, Factors(calm))
}

func TestAdvise(t *testing.T) {
	rainMsg, _ := FactorMessage(FactorRain)
	visMsg, _ := FactorMessage(FactorVisibility)
	darkMsg, _ := FactorMessage(FactorDarkness)

	tests := []struct {
		name     string
		ctx      RiderContext
		level    Level
		expected string
	}{
		{
			name:     "rain wins over visibility",
			ctx:      mustContext(t, 20, 5, 2, 10, "afternoon", 10),
			level:    LevelLow,
			expected: rainMsg,
		},
		{
			name:     "visibility alone",
			ctx:      mustContext(t, 20, 0, 2, 10, "afternoon", 10),
			level:    LevelLow,
			expected: visMsg,
		},
		{
			name:     "threshold values do not trigger",
			ctx:      mustContext(t, 35, 2, 5, 50, "morning", 2),
			level:    LevelLow,
			expected: "Conditions are generally safe. Stay alert and ride normally.",
		},
		{
			name:     "generic medium message",
			ctx:      mustContext(t, 20, 0, 20, 10, "afternoon", 10),
			level:    LevelMedium,
			expected: "Moderate risk detected. Ride defensively and be prepared for sudden changes.",
		},
		{
			name:     "generic high message",
			ctx:      mustContext(t, 20, 0, 20, 10, "afternoon", 10),
			level:    LevelHigh,
			expected: "High risk detected. Avoid riding if possible, or ride with extreme caution.",
		},
		{
			name:     "medium appends moderate closing",
			ctx:      mustContext(t, 20, 0, 20, 10, "evening", 10),
			level:    LevelMedium,
			expected: darkMsg + " Overall risk is moderate; ride defensively and give yourself extra margin for error.",
		},
		{
			name:     "high appends high closing",
			ctx:      mustContext(t, 20, 0, 20, 10, "night", 10),
			level:    LevelHigh,
			expected: darkMsg + " Overall risk is high; avoid riding if possible.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Advise(tt.ctx, tt.level))
		})
	}
}

func TestService_Assess(t *testing.T) {
	ctx := context.Background()

	t.Run("end to end high risk", func(t *testing.T) {
		svc := NewService(stubPredictor(0.8))
		rc := mustContext(t, 25, 10, 3, 100, "night", 1)

		got, err := svc.Assess(ctx, rc)
		require.NoError(t, err)

		rainMsg, _ := FactorMessage(FactorRain)
		assert.Equal(t, 0.8, got.RiskScore)
		assert.Equal(t, LevelHigh, got.RiskLevel)
		assert.True(t, strings.HasPrefix(got.Advice, rainMsg))
		assert.True(t, strings.HasSuffix(got.Advice, " Overall risk is high; avoid riding if possible."))
		assert.Equal(t, FactorRain, got.Factors[0])
	})

	t.Run("clamps and rounds", func(t *testing.T) {
		rc := mustContext(t, 20, 0, 20, 10, "afternoon", 10)

		got, err := NewService(stubPredictor(1.4)).Assess(ctx, rc)
		require.NoError(t, err)
		assert.Equal(t, 1.0, got.RiskScore)
		assert.Equal(t, 1.4, got.RawScore)

		got, err = NewService(stubPredictor(-0.2)).Assess(ctx, rc)
		require.NoError(t, err)
		assert.Equal(t, 0.0, got.RiskScore)
		assert.Equal(t, LevelLow, got.RiskLevel)

		got, err = NewService(stubPredictor(0.43219)).Assess(ctx, rc)
		require.NoError(t, err)
		assert.Equal(t, 0.432, got.RiskScore)
		assert.Equal(t, LevelMedium, got.RiskLevel)
		assert.Empty(t, got.Factors)

		got, err = NewService(stubPredictor(0.0625)).Assess(ctx, rc)
		require.NoError(t, err)
		assert.Equal(t, 0.062, got.RiskScore)
	})

	t.Run("predictor receives encoded features", func(t *testing.T) {
		var seen FeatureVector
		svc := NewService(PredictorFunc(func(ctx context.Context, v FeatureVector) (float64, error) {
			seen = v
			return 0.1, nil
		}))

		_, err := svc.Assess(ctx, mustContext(t, 12, 1, 9, 40, "morning", 7))
		require.NoError(t, err)
		assert.Equal(t, FeatureVector{12, 1, 9, 40, 7, 0, 1, 0}, seen)
	})

	t.Run("surfaces predictor errors", func(t *testing.T) {
		boom := errors.New("boom")
		svc := NewService(PredictorFunc(func(ctx context.Context, v FeatureVector) (float64, error) {
			return 0, boom
		}))

		_, err := svc.Assess(ctx, mustContext(t, 20, 0, 20, 10, "afternoon", 10))
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInference)
		assert.ErrorIs(t, err, boom)
	})

	t.Run("rejects NaN output", func(t *testing.T) {
		_, err := NewService(stubPredictor(math.NaN())).Assess(ctx, mustContext(t, 20, 0, 20, 10, "afternoon", 10))
		assert.ErrorIs(t, err, ErrInference)
	})
}
