package types

import "errors"

var (
	// ErrInvalidInput is returned for out of range coordinates, empty
	// temperature profiles, and unparseable timestamps.
	ErrInvalidInput = errors.New("invalid input")

	// ErrPredictorUnavailable is returned when the irradiance predictor could
	// not be initialized.
	ErrPredictorUnavailable = errors.New("irradiance predictor unavailable")

	ErrRunNotFound = errors.New("run not found")
)
