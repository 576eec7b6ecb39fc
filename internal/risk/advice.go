package risk

// Factor is a named condition on the rider context that drives advice selection
type Factor string

const (
	FactorRain          Factor = "rain"
	FactorVisibility    Factor = "visibility"
	FactorDistance      Factor = "distance"
	FactorHeat          Factor = "heat"
	FactorLowExperience Factor = "low_experience"
	FactorDarkness      Factor = "darkness"
)

// Factor trigger thresholds
const (
	RainThreshold          = 2.0
	VisibilityThreshold    = 5.0
	DistanceThreshold      = 50.0
	HeatThreshold          = 35.0
	LowExperienceThreshold = 2
)

type factorRule struct {
	factor  Factor
	trigger func(RiderContext) bool
	message string
}

// factorRules is evaluated top to bottom; the first match names the advice.
var factorRules = []factorRule{
	{
		factor:  FactorRain,
		trigger: func(c RiderContext) bool { return c.rainfall > RainThreshold },
		message: "Rain is increasing your risk. Consider waiting for the rain to ease or reducing your speed significantly.",
	},
	{
		factor:  FactorVisibility,
		trigger: func(c RiderContext) bool { return c.visibility < VisibilityThreshold },
		message: "Low visibility is a major risk. Slow down, increase following distance, and use lights to stay visible.",
	},
	{
		factor:  FactorDistance,
		trigger: func(c RiderContext) bool { return c.distance > DistanceThreshold },
		message: "Long trip distance can cause fatigue. Consider shortening the ride or planning more frequent rest breaks.",
	},
	{
		factor:  FactorHeat,
		trigger: func(c RiderContext) bool { return c.temperature > HeatThreshold },
		message: "High temperature increases fatigue and dehydration risk. Stay hydrated and plan shaded rest stops.",
	},
	{
		factor:  FactorLowExperience,
		trigger: func(c RiderContext) bool { return c.experience < LowExperienceThreshold },
		message: "Given your limited riding experience, conditions today may be challenging. Reduce speed and avoid aggressive maneuvers.",
	},
	{
		factor:  FactorDarkness,
		trigger: func(c RiderContext) bool { return c.timeOfDay.IsDark() },
		message: "Riding in low light increases risk. Ensure your lights are bright and visible, and ride more slowly than usual.",
	},
}

var genericAdvice = map[Level]string{
	LevelLow:    "Conditions are generally safe. Stay alert and ride normally.",
	LevelMedium: "Moderate risk detected. Ride defensively and be prepared for sudden changes.",
	LevelHigh:   "High risk detected. Avoid riding if possible, or ride with extreme caution.",
}

var levelSuffix = map[Level]string{
	LevelMedium: " Overall risk is moderate; ride defensively and give yourself extra margin for error.",
	LevelHigh:   " Overall risk is high; avoid riding if possible.",
}

// Factors returns every triggered factor in priority order
func Factors(c RiderContext) []Factor {
	out := make([]Factor, 0, len(factorRules))
	for _, r := range factorRules {
		if r.trigger(c) {
			out = append(out, r.factor)
		}
	}
	return out
}

// FactorMessage returns the base advice for a factor
func FactorMessage(f Factor) (string, bool) {
	for _, r := range factorRules {
		if r.factor == f {
			return r.message, true
		}
	}
	return "", false
}

// Advise picks the advice text for a context at the given level. Only the
// highest-priority triggered factor is reported.
func Advise(c RiderContext, level Level) string {
	for _, r := range factorRules {
		if r.trigger(c) {
			return r.message + levelSuffix[level]
		}
	}

	if msg, ok := genericAdvice[level]; ok {
		return msg
	}
	return genericAdvice[LevelHigh]
}
