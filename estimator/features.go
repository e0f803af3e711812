package estimator

import (
	"math"
	"strconv"
	"strings"

	"rent-portfolio/models"
	"rent-portfolio/services"
)

// BaseFeatures are the numeric unit attributes at the front of every
// feature vector. Indicator columns follow in encoder order.
var BaseFeatures = []string{"bed_count", "bath_count", "sqft", "floor"}

// FeatureSpace turns units into fixed-width feature vectors. Missing
// values are NaN and get imputed by the model.
type FeatureSpace struct {
	encoder *services.Encoder
	names   []string
}

func NewFeatureSpace(encoder *services.Encoder) *FeatureSpace {
	names := append([]string(nil), BaseFeatures...)
	names = append(names, encoder.Columns()...)
	return &FeatureSpace{encoder: encoder, names: names}
}

// Names returns the feature names in vector order.
func (fs *FeatureSpace) Names() []string {
	return fs.names
}

// Width returns the number of features.
func (fs *FeatureSpace) Width() int {
	return len(fs.names)
}

// Vector builds the feature vector for one unit. Units that were never
// encoded are encoded on the fly without being modified.
func (fs *FeatureSpace) Vector(u *models.UnitRecord) []float64 {
	indicators := u.Indicators
	if indicators == nil {
		indicators = fs.encoder.Encode(u.State, u.City)
	}
	return fs.Compose(intFeature(u.BedCount), intFeature(u.BathCount), intFeature(u.Sqft),
		FloorValue(u.Floor), indicators)
}

// Compose builds a feature vector from already-aggregated attributes.
func (fs *FeatureSpace) Compose(bed, bath, sqft, floor float64, indicators map[string]int) []float64 {
	x := make([]float64, len(fs.names))
	x[0], x[1], x[2], x[3] = bed, bath, sqft, floor
	for i, col := range fs.names[len(BaseFeatures):] {
		x[len(BaseFeatures)+i] = float64(indicators[col])
	}
	return x
}

// FloorValue parses a floor label such as "3" or "12" into a number. Labels
// that are not numeric ("G", "PH") are NaN.
func FloorValue(label string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(label), 64)
	if err != nil {
		return math.NaN()
	}
	return f
}

func intFeature(v *int) float64 {
	if v == nil {
		return math.NaN()
	}
	return float64(*v)
}
