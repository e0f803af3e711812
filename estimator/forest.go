package estimator

import (
	"errors"
	"math/rand"

	"rent-portfolio/utils"
)

// ErrNoTrainingData is returned when a forest is fitted on zero rows.
var ErrNoTrainingData = errors.New("estimator: no training rows")

// ForestConfig controls how a random forest is grown.
type ForestConfig struct {
	Trees           int
	Seed            int64
	MinSamplesSplit int
	MinSamplesLeaf  int
	MaxDepth        int // 0 means unlimited
	Workers         int
}

// Forest is a bagged ensemble of regression trees whose prediction is the
// mean of its trees.
type Forest struct {
	trees []*regressionTree
}

// FitForest grows cfg.Trees trees, each on a bootstrap sample of the rows,
// in parallel on a bounded worker pool. Every tree draws from its own seeded
// source so the result does not depend on scheduling.
func FitForest(X [][]float64, y []float64, cfg ForestConfig) (*Forest, error) {
	if len(X) == 0 || len(X) != len(y) {
		return nil, ErrNoTrainingData
	}
	if cfg.Trees < 1 {
		cfg.Trees = 1
	}
	if cfg.MinSamplesSplit < 2 {
		cfg.MinSamplesSplit = 2
	}
	if cfg.Workers < 1 {
		cfg.Workers = 4
	}

	params := treeParams{
		minSamplesSplit: cfg.MinSamplesSplit,
		minSamplesLeaf:  cfg.MinSamplesLeaf,
		maxDepth:        cfg.MaxDepth,
	}

	f := &Forest{trees: make([]*regressionTree, cfg.Trees)}
	pool := utils.NewWorkerPool(cfg.Workers, 0)
	for i := 0; i < cfg.Trees; i++ {
		i := i
		pool.Submit(func() {
			rng := rand.New(rand.NewSource(cfg.Seed + int64(i)))
			sample := make([]int, len(X))
			for k := range sample {
				sample[k] = rng.Intn(len(X))
			}
			f.trees[i] = growTree(X, y, sample, params, rng)
		})
	}
	pool.Wait()

	return f, nil
}

// Predict returns the mean prediction of all trees.
func (f *Forest) Predict(x []float64) float64 {
	var s float64
	for _, t := range f.trees {
		s += t.predict(x)
	}
	return s / float64(len(f.trees))
}

// Size returns the number of trees.
func (f *Forest) Size() int {
	return len(f.trees)
}
