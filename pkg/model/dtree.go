package model

import (
	"math"
	"math/rand"
	"sort"

	"github.com/cuthie/Data-Science-Portfolio/pkg/core"
)

// ---------------------------
// Types & options
// ---------------------------

// DecisionTreeClassifier is a CART classifier splitting on gini impurity.
type DecisionTreeClassifier struct {
	// Hyperparameters / options
	MaxDepth        int   // maximum depth (root depth = 0). 0 => no limit
	MinSamplesSplit int   // minimum samples to attempt a split
	MinSamplesLeaf  int   // minimum samples required in each leaf
	MaxFeatures     int   // 0 => use all features, >0 => number of features to sample per node
	RandomState     int64 // seed for feature subsampling

	// internals
	root        *dtNode
	classes     []int     // class labels, aligned with probas
	importances []float64 // unnormalised impurity decrease per feature
	nFeatures   int
}

// dtNode holds a node in the tree.
type dtNode struct {
	// internal node fields
	isLeaf    bool
	feature   int
	threshold float64 // numeric threshold: x <= threshold => left
	isCat     bool    // categorical equality split (x == threshold => left)
	nanLeft   bool    // where a missing value goes
	left      *dtNode
	right     *dtNode

	// leaf data
	probas []float64
}

// Option functional config
type Option func(*DecisionTreeClassifier)

func WithMaxDepth(d int) Option { return func(t *DecisionTreeClassifier) { t.MaxDepth = d } }
func WithMinSamplesSplit(n int) Option {
	return func(t *DecisionTreeClassifier) { t.MinSamplesSplit = n }
}
func WithMinSamplesLeaf(n int) Option {
	return func(t *DecisionTreeClassifier) { t.MinSamplesLeaf = n }
}
func WithMaxFeatures(k int) Option { return func(t *DecisionTreeClassifier) { t.MaxFeatures = k } }
func WithRandomState(seed int64) Option {
	return func(t *DecisionTreeClassifier) { t.RandomState = seed }
}

// NewDecisionTreeClassifier returns a classifier with sensible defaults.
func NewDecisionTreeClassifier(opts ...Option) *DecisionTreeClassifier {
	d := &DecisionTreeClassifier{
		MinSamplesSplit: 2,
		MinSamplesLeaf:  1,
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

// ---------------------------
// Public API
// ---------------------------

// Fit trains the tree on every row of X.
func (t *DecisionTreeClassifier) Fit(X [][]float64, y []int) error {
	return t.FitSample(X, y, nil, nil)
}

// FitSample trains the tree on the rows listed in sample, which may repeat
// (a bootstrap draw). A nil sample uses every row. classes fixes the label
// order of PredictProba; nil collects the sorted labels of y.
// Missing values must be math.NaN().
func (t *DecisionTreeClassifier) FitSample(X [][]float64, y []int, sample []int, classes []int) error {
	if len(X) == 0 {
		return core.ConfigError("model.dtree", "no rows to fit")
	}
	if len(y) != len(X) {
		return core.ConfigError("model.dtree", "%d rows but %d labels", len(X), len(y))
	}
	p := len(X[0])
	for i := range X {
		if len(X[i]) != p {
			return core.ConfigError("model.dtree", "row %d has %d features, want %d", i, len(X[i]), p)
		}
	}
	if classes == nil {
		classes = sortedClasses(y)
	}
	t.classes = append([]int(nil), classes...)
	classIdx := make(map[int]int, len(classes))
	for i, c := range classes {
		classIdx[c] = i
	}
	// labels as class positions
	yc := make([]int, len(y))
	for i, lab := range y {
		ci, ok := classIdx[lab]
		if !ok {
			return core.ConfigError("model.dtree", "label %d is not a known class", lab)
		}
		yc[i] = ci
	}

	if sample == nil {
		sample = make([]int, len(X))
		for i := range sample {
			sample[i] = i
		}
	}
	idx := append([]int(nil), sample...)

	b := &builder{
		t:        t,
		X:        X,
		y:        yc,
		p:        p,
		nClasses: len(classes),
		total:    float64(len(idx)),
		rnd:      rand.New(rand.NewSource(t.RandomState)),
	}
	t.nFeatures = p
	t.importances = make([]float64, p)
	t.root = b.build(idx, 0)
	return nil
}

// Classes returns the labels in PredictProba order.
func (t *DecisionTreeClassifier) Classes() []int { return t.classes }

// Predict returns the most probable class of each row.
func (t *DecisionTreeClassifier) Predict(X [][]float64) []int {
	out := make([]int, len(X))
	for i := range X {
		out[i] = t.classes[argmaxFloat(t.predictProbaSingle(X[i]))]
	}
	return out
}

// PredictProba returns the per-class probability vectors for rows in X.
func (t *DecisionTreeClassifier) PredictProba(X [][]float64) [][]float64 {
	out := make([][]float64, len(X))
	for i := range X {
		out[i] = t.predictProbaSingle(X[i])
	}
	return out
}

// FeatureImportances returns the impurity decrease credited to each
// feature, normalised to sum to 1 (all zero for a single-leaf tree).
func (t *DecisionTreeClassifier) FeatureImportances() []float64 {
	out := append([]float64(nil), t.importances...)
	sum := 0.0
	for _, v := range out {
		sum += v
	}
	if sum > 0 {
		for i := range out {
			out[i] /= sum
		}
	}
	return out
}

// Depth returns the depth of the deepest leaf.
func (t *DecisionTreeClassifier) Depth() int { return depth(t.root) }

func depth(n *dtNode) int {
	if n == nil || n.isLeaf {
		return 0
	}
	return 1 + max(depth(n.left), depth(n.right))
}

// ---------------------------
// Internal builders & helpers
// ---------------------------

type builder struct {
	t        *DecisionTreeClassifier
	X        [][]float64
	y        []int
	p        int
	nClasses int
	total    float64
	rnd      *rand.Rand
}

// splitResult holds the best split found for one feature.
type splitResult struct {
	gain      float64
	feature   int
	threshold float64
	isCat     bool
	nanLeft   bool
}

// pair is a named type for a value and its sample index.
type pair struct {
	v float64
	i int
}

func (b *builder) leaf(node *dtNode, counts []int) *dtNode {
	node.isLeaf = true
	node.probas = countsToProbas(counts)
	return node
}

func (b *builder) build(idx []int, depth int) *dtNode {
	t := b.t
	node := &dtNode{}
	counts := make([]int, b.nClasses)
	for _, ii := range idx {
		counts[b.y[ii]]++
	}
	if isPure(counts) || len(idx) < t.MinSamplesSplit || len(idx) < 2*max(t.MinSamplesLeaf, 1) {
		return b.leaf(node, counts)
	}
	if t.MaxDepth > 0 && depth >= t.MaxDepth {
		return b.leaf(node, counts)
	}

	// features to try
	featIndices := make([]int, b.p)
	for j := range featIndices {
		featIndices[j] = j
	}
	if t.MaxFeatures > 0 && t.MaxFeatures < b.p {
		for i := 0; i < t.MaxFeatures; i++ {
			j := i + b.rnd.Intn(b.p-i)
			featIndices[i], featIndices[j] = featIndices[j], featIndices[i]
		}
		featIndices = featIndices[:t.MaxFeatures]
	}

	parentImpurity := giniFromCounts(counts)
	best := splitResult{feature: -1}
	for _, f := range featIndices {
		if r := b.bestSplitForFeature(idx, f, counts, parentImpurity); r.feature >= 0 && r.gain > best.gain {
			best = r
		}
	}
	if best.feature == -1 {
		return b.leaf(node, counts)
	}

	var leftIdx, rightIdx []int
	for _, ii := range idx {
		if goesLeft(b.X[ii][best.feature], best.threshold, best.isCat, best.nanLeft) {
			leftIdx = append(leftIdx, ii)
		} else {
			rightIdx = append(rightIdx, ii)
		}
	}
	t.importances[best.feature] += best.gain * float64(len(idx)) / b.total

	node.feature = best.feature
	node.threshold = best.threshold
	node.isCat = best.isCat
	node.nanLeft = best.nanLeft
	node.left = b.build(leftIdx, depth+1)
	node.right = b.build(rightIdx, depth+1)
	return node
}

func goesLeft(v, threshold float64, isCat, nanLeft bool) bool {
	switch {
	case math.IsNaN(v):
		return nanLeft
	case isCat:
		return v == threshold
	default:
		return v <= threshold
	}
}

// bestSplitForFeature sorts the node's rows by feature f and scans the
// boundaries between distinct values with running class counts. Rows with a
// missing value are tried on both sides. Integer-valued features with at
// most 30 distinct values also try one-vs-rest equality splits.
func (b *builder) bestSplitForFeature(idx []int, f int, counts []int, parentImpurity float64) splitResult {
	result := splitResult{feature: -1}
	minLeaf := max(b.t.MinSamplesLeaf, 1)
	n := float64(len(idx))

	valid := make([]pair, 0, len(idx))
	nanCounts := make([]int, b.nClasses)
	nNaN := 0
	for _, ii := range idx {
		v := b.X[ii][f]
		if math.IsNaN(v) {
			nanCounts[b.y[ii]]++
			nNaN++
			continue
		}
		valid = append(valid, pair{v, ii})
	}
	if len(valid) < 2 {
		return result
	}
	sort.Slice(valid, func(a, c int) bool { return valid[a].v < valid[c].v })

	validCounts := make([]int, b.nClasses)
	for ci := range counts {
		validCounts[ci] = counts[ci] - nanCounts[ci]
	}
	left := make([]int, b.nClasses)
	right := make([]int, b.nClasses)

	consider := func(leftBase []int, nLeft int, threshold float64, isCat bool) {
		for _, nanLeft := range [2]bool{true, false} {
			if nNaN == 0 && !nanLeft {
				continue
			}
			nl, nr := nLeft, len(valid)-nLeft
			for ci := range left {
				left[ci] = leftBase[ci]
				right[ci] = validCounts[ci] - leftBase[ci]
			}
			if nanLeft {
				nl += nNaN
				for ci := range left {
					left[ci] += nanCounts[ci]
				}
			} else {
				nr += nNaN
				for ci := range right {
					right[ci] += nanCounts[ci]
				}
			}
			if nl < minLeaf || nr < minLeaf {
				continue
			}
			weighted := float64(nl)/n*giniFromCounts(left) + float64(nr)/n*giniFromCounts(right)
			if gain := parentImpurity - weighted; gain > result.gain {
				// without missing values in training, later ones join the larger side
				side := nanLeft
				if nNaN == 0 {
					side = nl >= nr
				}
				result = splitResult{gain: gain, feature: f, threshold: threshold, isCat: isCat, nanLeft: side}
			}
		}
	}

	// numeric thresholds
	running := make([]int, b.nClasses)
	distinct := 1
	intLike := almostInt(valid[0].v)
	for s := 1; s < len(valid); s++ {
		running[b.y[valid[s-1].i]]++
		if valid[s].v == valid[s-1].v {
			continue
		}
		distinct++
		intLike = intLike && almostInt(valid[s].v)
		consider(running, s, (valid[s-1].v+valid[s].v)/2, false)
	}

	// categorical equality splits over runs of equal values
	if intLike && distinct <= 30 && distinct > 2 {
		run := make([]int, b.nClasses)
		start := 0
		for s := 1; s <= len(valid); s++ {
			if s < len(valid) && valid[s].v == valid[start].v {
				continue
			}
			for ci := range run {
				run[ci] = 0
			}
			for _, pv := range valid[start:s] {
				run[b.y[pv.i]]++
			}
			consider(run, s-start, valid[start].v, true)
			start = s
		}
	}
	return result
}

// ---------------------------
// Prediction helper
// ---------------------------

func (t *DecisionTreeClassifier) predictProbaSingle(x []float64) []float64 {
	if t.root == nil {
		p := make([]float64, len(t.classes))
		for i := range p {
			p[i] = 1.0 / float64(len(p))
		}
		return p
	}
	node := t.root
	for !node.isLeaf {
		if goesLeft(x[node.feature], node.threshold, node.isCat, node.nanLeft) {
			node = node.left
		} else {
			node = node.right
		}
	}
	return node.probas
}

// ---------------------------
// Utilities: impurity & misc
// ---------------------------

func sortedClasses(y []int) []int {
	seen := map[int]struct{}{}
	var out []int
	for _, v := range y {
		if _, ok := seen[v]; !ok {
			seen[v] = struct{}{}
			out = append(out, v)
		}
	}
	sort.Ints(out)
	return out
}

func almostInt(v float64) bool {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return false
	}
	_, frac := math.Modf(math.Abs(v))
	return frac < 1e-9 || frac > 1-1e-9
}

func giniFromCounts(counts []int) float64 {
	n := 0.0
	for _, c := range counts {
		n += float64(c)
	}
	if n == 0 {
		return 0
	}
	res := 1.0
	for _, c := range counts {
		p := float64(c) / n
		res -= p * p
	}
	return res
}

func isPure(counts []int) bool {
	nonZero := 0
	for _, c := range counts {
		if c > 0 {
			nonZero++
		}
	}
	return nonZero <= 1
}

func countsToProbas(counts []int) []float64 {
	n := 0
	for _, c := range counts {
		n += c
	}
	p := make([]float64, len(counts))
	if n == 0 {
		return p
	}
	for i := range counts {
		p[i] = float64(counts[i]) / float64(n)
	}
	return p
}

func argmaxFloat(arr []float64) int {
	best := 0
	for i := 1; i < len(arr); i++ {
		if arr[i] > arr[best] {
			best = i
		}
	}
	return best
}
