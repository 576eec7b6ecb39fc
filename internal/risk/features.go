package risk

// FeatureCount is the width of the model input
const FeatureCount = 8

// FeatureNames is the column order the model was trained with. Any artifact loaded at
// startup must declare exactly this list.
var FeatureNames = [FeatureCount]string{
	"temperature_c",
	"rainfall_mm",
	"visibility_km",
	"distance_km",
	"experience",
	"time_of_day_evening",
	"time_of_day_morning",
	"time_of_day_night",
}

// Slot indices into a FeatureVector
const (
	FeatTemperature = iota
	FeatRainfall
	FeatVisibility
	FeatDistance
	FeatExperience
	FeatEvening
	FeatMorning
	FeatNight
)

// FeatureVector is the fixed-order numeric model input
type FeatureVector [FeatureCount]float64

// Slice returns a copy of the vector as a slice
func (v FeatureVector) Slice() []float64 {
	out := make([]float64, FeatureCount)
	copy(out, v[:])
	return out
}

// Encode maps a rider context onto the model's feature layout. Afternoon is the
// baseline period and leaves all three time indicators at zero.
func Encode(c RiderContext) FeatureVector {
	var v FeatureVector
	v[FeatTemperature] = c.temperature
	v[FeatRainfall] = c.rainfall
	v[FeatVisibility] = c.visibility
	v[FeatDistance] = c.distance
	v[FeatExperience] = float64(c.experience)

	switch c.timeOfDay {
	case Evening:
		v[FeatEvening] = 1
	case Morning:
		v[FeatMorning] = 1
	case Night:
		v[FeatNight] = 1
	}

	return v
}
