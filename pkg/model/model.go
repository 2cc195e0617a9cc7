// Package model holds the fitted estimators (random forest, logistic
// regression, OLS, ARIMA) and their evaluation metrics.
package model

// Classifier predicts class labels and per-class probabilities aligned with
// Classes.
type Classifier interface {
	Classes() []int
	Predict(X [][]float64) []int
	PredictProba(X [][]float64) [][]float64
}

// Forecaster extends a fitted series h steps past its end.
type Forecaster interface {
	Forecast(h int) ([]float64, error)
}

var (
	_ Classifier = (*RandomForest)(nil)
	_ Classifier = (*DecisionTreeClassifier)(nil)
	_ Classifier = (*LogisticRegression)(nil)
	_ Forecaster = (*ARIMA)(nil)
)
