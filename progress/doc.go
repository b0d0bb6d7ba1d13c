// Package progress tracks how far a response body download has got.
//
// Reader wraps a body and reports raw received/total byte counts as chunks
// are read. An Estimator turns those raw counts into a State with a
// percentage, a smoothed transfer rate and an ETA. Estimators keep state
// between calls, so create one per download with NewEstimator.
package progress
