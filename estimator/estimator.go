package estimator

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/stat"

	"rent-portfolio/config"
	"rent-portfolio/models"
	"rent-portfolio/utils"
)

// ErrInsufficientData is returned when there are too few priced units to
// hold out a validation set.
var ErrInsufficientData = errors.New("estimator: not enough priced units to train and validate")

// Report describes one training run.
type Report struct {
	TrainSize  int
	TestSize   int
	Features   int
	MAE        float64
	R2         float64
	AdjustedR2 float64
}

// Model is a fitted rent model plus the column means used to fill missing
// feature values.
type Model struct {
	forest *Forest
	space  *FeatureSpace
	fill   []float64
}

// Estimator trains rent models on the priced part of a portfolio.
type Estimator struct {
	cfg    *config.Config
	space  *FeatureSpace
	logger *utils.Logger
}

func NewEstimator(cfg *config.Config, space *FeatureSpace, logger *utils.Logger) *Estimator {
	return &Estimator{cfg: cfg, space: space, logger: logger}
}

// Train fits a random forest on priced units, holding out a fixed fraction
// of them for validation, and reports MAE, R² and adjusted R² on the
// held-out rows. The returned model is the one fitted on the training
// split.
func (e *Estimator) Train(units []models.UnitRecord) (*Model, *Report, error) {
	var X [][]float64
	var y []float64
	for i := range units {
		if units[i].Price == nil {
			continue
		}
		X = append(X, e.space.Vector(&units[i]))
		y = append(y, float64(*units[i].Price))
	}

	trainIdx, testIdx := holdoutSplit(len(X), e.cfg.HoldoutFraction, e.cfg.ForestSeed)
	if len(trainIdx) == 0 || len(testIdx) == 0 {
		return nil, nil, fmt.Errorf("%w: %d priced units", ErrInsufficientData, len(X))
	}

	trainX, trainY := subset(X, y, trainIdx)
	testX, testY := subset(X, y, testIdx)

	fill := columnMeans(trainX)
	impute(trainX, fill)
	impute(testX, fill)

	e.logger.Info("[estimator] training %d trees on %d rows, validating on %d", e.cfg.ForestTrees, len(trainX), len(testX))
	forest, err := FitForest(trainX, trainY, ForestConfig{
		Trees:   e.cfg.ForestTrees,
		Seed:    e.cfg.ForestSeed,
		Workers: e.cfg.ConcurrencyLimit,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("estimator: fit: %w", err)
	}
	model := &Model{forest: forest, space: e.space, fill: fill}

	predicted := make([]float64, len(testX))
	absErr := make([]float64, len(testX))
	for i, x := range testX {
		predicted[i] = forest.Predict(x)
		absErr[i] = math.Abs(predicted[i] - testY[i])
	}

	report := &Report{
		TrainSize: len(trainX),
		TestSize:  len(testX),
		Features:  e.space.Width(),
		MAE:       stat.Mean(absErr, nil),
		R2:        stat.RSquaredFrom(predicted, testY, nil),
	}
	report.AdjustedR2 = adjustedR2(report.R2, report.TestSize, report.Features)

	e.logger.Info("[estimator] MAE $%.2f, R² %.4f, adjusted R² %.4f", report.MAE, report.R2, report.AdjustedR2)
	return model, report, nil
}

// PredictUnpriced returns a copy of the portfolio where every unit without
// a price carries the model's estimate in AdjustedPrice. Priced units are
// left as they are.
func (e *Estimator) PredictUnpriced(p *models.Portfolio, model *Model) (*models.Portfolio, int) {
	out := &models.Portfolio{
		Units:        make([]models.UnitRecord, len(p.Units)),
		ExtraColumns: append([]string(nil), p.ExtraColumns...),
	}
	copy(out.Units, p.Units)

	n := 0
	for i := range out.Units {
		if out.Units[i].Price != nil {
			continue
		}
		est := model.PredictRent(e.space.Vector(&out.Units[i]))
		out.Units[i].AdjustedPrice = &est
		n++
	}
	e.logger.Info("[estimator] estimated rent for %d unpriced units", n)
	return out, n
}

// PredictRent predicts a monthly rent for one feature vector. NaN entries
// are replaced by training means.
func (m *Model) PredictRent(x []float64) float64 {
	filled := append([]float64(nil), x...)
	for i, v := range filled {
		if math.IsNaN(v) {
			filled[i] = m.fill[i]
		}
	}
	return m.forest.Predict(filled)
}

// holdoutSplit shuffles 0..n-1 with a seeded source and puts
// ceil(n*fraction) of them in the test set.
func holdoutSplit(n int, fraction float64, seed int64) ([]int, []int) {
	if n < 2 {
		return nil, nil
	}
	perm := rand.New(rand.NewSource(seed)).Perm(n)
	nTest := int(math.Ceil(float64(n) * fraction))
	if nTest < 1 {
		nTest = 1
	}
	if nTest >= n {
		nTest = n - 1
	}
	return perm[nTest:], perm[:nTest]
}

func subset(X [][]float64, y []float64, idx []int) ([][]float64, []float64) {
	outX := make([][]float64, len(idx))
	outY := make([]float64, len(idx))
	for k, i := range idx {
		outX[k] = append([]float64(nil), X[i]...)
		outY[k] = y[i]
	}
	return outX, outY
}

// columnMeans averages each column over its non-NaN values. A column with
// no values gets 0.
func columnMeans(X [][]float64) []float64 {
	if len(X) == 0 {
		return nil
	}
	means := make([]float64, len(X[0]))
	col := make([]float64, 0, len(X))
	for j := range means {
		col = col[:0]
		for _, row := range X {
			if !math.IsNaN(row[j]) {
				col = append(col, row[j])
			}
		}
		if len(col) > 0 {
			means[j] = stat.Mean(col, nil)
		}
	}
	return means
}

func impute(X [][]float64, fill []float64) {
	for _, row := range X {
		for j, v := range row {
			if math.IsNaN(v) {
				row[j] = fill[j]
			}
		}
	}
}

// adjustedR2 is NaN when there are not more samples than features plus one.
func adjustedR2(r2 float64, n, p int) float64 {
	if n-p-1 <= 0 {
		return math.NaN()
	}
	return 1 - (1-r2)*float64(n-1)/float64(n-p-1)
}
