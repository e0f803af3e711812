package estimator

import (
	"math/rand"
	"sort"
)

// node is one split or leaf of a regression tree. Leaves have feature -1.
type node struct {
	feature   int
	threshold float64
	left      int
	right     int
	value     float64
}

// regressionTree is a CART tree grown to purity with variance-reduction
// splits over every feature.
type regressionTree struct {
	nodes []node
}

type treeParams struct {
	minSamplesSplit int
	minSamplesLeaf  int
	maxDepth        int
}

// growTree fits a tree on the rows of X selected by sample. sample may hold
// repeated indices (bootstrap draws).
func growTree(X [][]float64, y []float64, sample []int, params treeParams, rng *rand.Rand) *regressionTree {
	t := &regressionTree{}
	idx := append([]int(nil), sample...)
	t.build(X, y, idx, 0, params, rng)
	return t
}

func (t *regressionTree) build(X [][]float64, y []float64, idx []int, depth int, params treeParams, rng *rand.Rand) int {
	id := len(t.nodes)
	t.nodes = append(t.nodes, node{feature: -1, value: mean(y, idx)})

	if len(idx) < params.minSamplesSplit || (params.maxDepth > 0 && depth >= params.maxDepth) {
		return id
	}

	feature, threshold, ok := bestSplit(X, y, idx, params.minSamplesLeaf, rng)
	if !ok {
		return id
	}

	var leftIdx, rightIdx []int
	for _, i := range idx {
		if X[i][feature] <= threshold {
			leftIdx = append(leftIdx, i)
		} else {
			rightIdx = append(rightIdx, i)
		}
	}

	left := t.build(X, y, leftIdx, depth+1, params, rng)
	right := t.build(X, y, rightIdx, depth+1, params, rng)
	t.nodes[id].feature = feature
	t.nodes[id].threshold = threshold
	t.nodes[id].left = left
	t.nodes[id].right = right
	return id
}

func (t *regressionTree) predict(x []float64) float64 {
	n := &t.nodes[0]
	for n.feature >= 0 {
		if x[n.feature] <= n.threshold {
			n = &t.nodes[n.left]
		} else {
			n = &t.nodes[n.right]
		}
	}
	return n.value
}

// bestSplit scans every feature, visited in random order so ties between
// equally good features depend on the tree's seed, and returns the split
// with the largest reduction in squared error.
func bestSplit(X [][]float64, y []float64, idx []int, minLeaf int, rng *rand.Rand) (int, float64, bool) {
	n := len(idx)
	if minLeaf < 1 {
		minLeaf = 1
	}

	var total, totalSq float64
	for _, i := range idx {
		total += y[i]
		totalSq += y[i] * y[i]
	}
	parentSSE := totalSq - total*total/float64(n)
	if parentSSE <= 1e-12 {
		return 0, 0, false
	}

	bestFeature, bestThreshold := -1, 0.0
	bestGain := 1e-12
	order := make([]int, n)

	for _, f := range rng.Perm(len(X[idx[0]])) {
		copy(order, idx)
		sort.Slice(order, func(a, b int) bool { return X[order[a]][f] < X[order[b]][f] })
		if X[order[0]][f] == X[order[n-1]][f] {
			continue
		}

		var leftSum, leftSq float64
		for k := 0; k < n-1; k++ {
			v := y[order[k]]
			leftSum += v
			leftSq += v * v

			nl, nr := k+1, n-k-1
			if nl < minLeaf || nr < minLeaf {
				continue
			}
			cur, next := X[order[k]][f], X[order[k+1]][f]
			if cur == next {
				continue
			}

			rightSum, rightSq := total-leftSum, totalSq-leftSq
			sse := leftSq - leftSum*leftSum/float64(nl) + rightSq - rightSum*rightSum/float64(nr)
			if gain := parentSSE - sse; gain > bestGain {
				bestGain = gain
				bestFeature = f
				bestThreshold = cur + (next-cur)/2
			}
		}
	}

	return bestFeature, bestThreshold, bestFeature >= 0
}

func mean(y []float64, idx []int) float64 {
	if len(idx) == 0 {
		return 0
	}
	var s float64
	for _, i := range idx {
		s += y[i]
	}
	return s / float64(len(idx))
}
