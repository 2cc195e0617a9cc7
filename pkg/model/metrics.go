package model

import (
	"errors"
	"math"
	"sort"
)

func MSE(yTrue, yPred []float64) float64 {
	n := float64(len(yTrue))
	s := 0.0
	for i := range yTrue {
		d := yPred[i] - yTrue[i]
		s += d * d
	}
	return s / n
}

func MAE(yTrue, yPred []float64) float64 {
	n := float64(len(yTrue))
	s := 0.0
	for i := range yTrue {
		s += math.Abs(yPred[i] - yTrue[i])
	}
	return s / n
}

func RMSE(yTrue, yPred []float64) float64 { return math.Sqrt(MSE(yTrue, yPred)) }

func R2(yTrue, yPred []float64) float64 {
	m := 0.0
	for _, v := range yTrue {
		m += v
	}
	m /= float64(len(yTrue))
	ssTot := 0.0
	ssRes := 0.0
	for i := range yTrue {
		d := yTrue[i] - m
		ssTot += d * d
		r := yTrue[i] - yPred[i]
		ssRes += r * r
	}
	if ssTot == 0 {
		return 0
	}
	return 1 - ssRes/ssTot
}

// BinaryPredFromProba labels a row 1 when its score is at least threshold.
func BinaryPredFromProba(proba []float64, threshold float64) []int {
	out := make([]int, len(proba))
	for i, p := range proba {
		if p >= threshold {
			out[i] = 1
		}
	}
	return out
}

// Classification metrics (binary, labels 0/1)
func AccuracyInt(yTrue []int, yPred []int) float64 {
	if len(yTrue) == 0 {
		return 0
	}
	c := 0
	for i := range yTrue {
		if yTrue[i] == yPred[i] {
			c++
		}
	}
	return float64(c) / float64(len(yTrue))
}

func PrecisionRecallF1(yTrue []int, yPred []int) (prec, rec, f1 float64) {
	cm := Confusion(yTrue, yPred)
	return cm.Precision(), cm.Recall(), cm.F1()
}

// ConfusionMatrix counts binary outcomes with 1 as the positive class.
type ConfusionMatrix struct {
	TN, FP, FN, TP int
}

// Confusion tabulates yPred against yTrue.
func Confusion(yTrue, yPred []int) ConfusionMatrix {
	var cm ConfusionMatrix
	for i := range yTrue {
		switch {
		case yTrue[i] == 1 && yPred[i] == 1:
			cm.TP++
		case yTrue[i] == 1:
			cm.FN++
		case yPred[i] == 1:
			cm.FP++
		default:
			cm.TN++
		}
	}
	return cm
}

func (cm ConfusionMatrix) Accuracy() float64 {
	n := cm.TN + cm.FP + cm.FN + cm.TP
	if n == 0 {
		return 0
	}
	return float64(cm.TP+cm.TN) / float64(n)
}

func (cm ConfusionMatrix) Precision() float64 {
	if cm.TP+cm.FP == 0 {
		return 0
	}
	return float64(cm.TP) / float64(cm.TP+cm.FP)
}

func (cm ConfusionMatrix) Recall() float64 {
	if cm.TP+cm.FN == 0 {
		return 0
	}
	return float64(cm.TP) / float64(cm.TP+cm.FN)
}

func (cm ConfusionMatrix) F1() float64 {
	p, r := cm.Precision(), cm.Recall()
	if p+r == 0 {
		return 0
	}
	return 2 * p * r / (p + r)
}

// AUC is the area under the ROC curve of score against 0/1 labels, with
// tied scores credited one half. It is NaN unless both classes occur.
func AUC(yTrue []int, score []float64) float64 {
	idx := make([]int, len(score))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return score[idx[a]] < score[idx[b]] })

	// rank sum of the positives with average ranks for ties
	var nPos, nNeg int
	rankSum := 0.0
	for s := 0; s < len(idx); {
		e := s
		for e < len(idx) && score[idx[e]] == score[idx[s]] {
			e++
		}
		avg := float64(s+e+1) / 2
		for _, i := range idx[s:e] {
			if yTrue[i] == 1 {
				rankSum += avg
				nPos++
			} else {
				nNeg++
			}
		}
		s = e
	}
	if nPos == 0 || nNeg == 0 {
		return math.NaN()
	}
	return (rankSum - float64(nPos)*float64(nPos+1)/2) / (float64(nPos) * float64(nNeg))
}

// LogLoss is the mean binary cross-entropy with probabilities clipped to
// [1e-15, 1-1e-15].
func LogLoss(yTrue []int, score []float64) float64 {
	const eps = 1e-15
	s := 0.0
	for i, p := range score {
		p = math.Min(math.Max(p, eps), 1-eps)
		if yTrue[i] == 1 {
			s -= math.Log(p)
		} else {
			s -= math.Log(1 - p)
		}
	}
	return s / float64(len(score))
}

// MaxF1Threshold returns the score threshold (predict 1 when score >=
// threshold) with the highest F1, and its confusion matrix. Ties keep the
// higher threshold.
func MaxF1Threshold(yTrue []int, score []float64) (float64, ConfusionMatrix) {
	idx := make([]int, len(score))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return score[idx[a]] > score[idx[b]] })
	pos := 0
	for _, v := range yTrue {
		if v == 1 {
			pos++
		}
	}
	neg := len(yTrue) - pos

	best := ConfusionMatrix{TN: neg, FN: pos}
	bestF1, bestThr := -1.0, math.Inf(1)
	tp, fp := 0, 0
	for s := 0; s < len(idx); {
		e := s
		for e < len(idx) && score[idx[e]] == score[idx[s]] {
			if yTrue[idx[e]] == 1 {
				tp++
			} else {
				fp++
			}
			e++
		}
		cm := ConfusionMatrix{TP: tp, FP: fp, FN: pos - tp, TN: neg - fp}
		if f := cm.F1(); f > bestF1 {
			bestF1, bestThr, best = f, score[idx[s]], cm
		}
		s = e
	}
	return bestThr, best
}

// Binomial is a binary classification performance summary.
type Binomial struct {
	N         int
	AUC       float64
	Gini      float64
	LogLoss   float64
	MSE       float64
	RMSE      float64
	Threshold float64 // max-F1 threshold
	Confusion ConfusionMatrix
	Accuracy  float64
	Precision float64
	Recall    float64
	F1        float64
}

// BinomialMetricNames lists the keys of Binomial.Values in display order.
var BinomialMetricNames = []string{"accuracy", "auc", "gini", "logloss", "mse", "rmse", "precision", "recall", "f1"}

// Values returns the scalar metrics keyed by BinomialMetricNames.
func (b Binomial) Values() map[string]float64 {
	return map[string]float64{
		"accuracy":  b.Accuracy,
		"auc":       b.AUC,
		"gini":      b.Gini,
		"logloss":   b.LogLoss,
		"mse":       b.MSE,
		"rmse":      b.RMSE,
		"precision": b.Precision,
		"recall":    b.Recall,
		"f1":        b.F1,
	}
}

// EvaluateBinomial scores p(y=1) predictions against 0/1 labels. Threshold
// metrics use the max-F1 threshold.
func EvaluateBinomial(yTrue []int, score []float64) (Binomial, error) {
	if len(yTrue) == 0 {
		return Binomial{}, errors.New("metrics: no rows to evaluate")
	}
	if len(yTrue) != len(score) {
		return Binomial{}, errors.New("metrics: labels and scores differ in length")
	}
	truth := make([]float64, len(yTrue))
	for i, v := range yTrue {
		if v != 0 && v != 1 {
			return Binomial{}, errors.New("metrics: labels must be 0 or 1")
		}
		truth[i] = float64(v)
	}
	auc := AUC(yTrue, score)
	thr, _ := MaxF1Threshold(yTrue, score)
	pred := BinaryPredFromProba(score, thr)
	cm := Confusion(yTrue, pred)
	prec, rec, f1 := PrecisionRecallF1(yTrue, pred)
	mse := MSE(truth, score)
	return Binomial{
		N:         len(yTrue),
		AUC:       auc,
		Gini:      2*auc - 1,
		LogLoss:   LogLoss(yTrue, score),
		MSE:       mse,
		RMSE:      math.Sqrt(mse),
		Threshold: thr,
		Confusion: cm,
		Accuracy:  AccuracyInt(yTrue, pred),
		Precision: prec,
		Recall:    rec,
		F1:        f1,
	}, nil
}
