package predictor

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"sync"

	"github.com/heliotrack/heliotrack/pkg/log"
	"github.com/heliotrack/heliotrack/pkg/types"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

const (
	// DefaultSeed and DefaultSamples describe the synthetic training set used
	// when Predict is called before Train.
	DefaultSeed    = 42
	DefaultSamples = 1000

	noiseStdDev = 20.0
)

// Sample is one observation used to train a Regression.
type Sample struct {
	Features
	Irradiance float64 `json:"irradiance"`
}

// Regression is a least squares model over
// [1, cos z, cos z * cloud, temperature, hour] where cos z is clamped to the
// daytime half. It trains itself on a fixed synthetic data set on the first
// prediction unless Train was called first.
type Regression struct {
	dataset func() []Sample

	once    sync.Once
	initErr error

	mu       sync.RWMutex
	coeffs   []float64
	rSquared float64
}

var _ Predictor = (*Regression)(nil)

// NewRegression returns an untrained Regression.
func NewRegression() *Regression {
	return &Regression{
		dataset: func() []Sample {
			return SyntheticDataset(DefaultSeed, DefaultSamples)
		},
	}
}

func basis(f Features) []float64 {
	cz := math.Max(0, math.Cos(f.Zenith*math.Pi/180))
	return []float64{1, cz, cz * f.CloudCoverPct / 100, f.TemperatureC, f.Hour}
}

var numBasis = len(basis(Features{}))

// Train fits the model to samples, replacing any previous fit.
func (r *Regression) Train(ctx context.Context, samples []Sample) error {
	if len(samples) < numBasis {
		return fmt.Errorf("need at least %d samples to train, got %d", numBasis, len(samples))
	}

	x := mat.NewDense(len(samples), numBasis, nil)
	y := mat.NewVecDense(len(samples), nil)
	for i, s := range samples {
		x.SetRow(i, basis(s.Features))
		y.SetVec(i, s.Irradiance)
	}

	var qr mat.QR
	qr.Factorize(x)
	solved := mat.NewVecDense(numBasis, nil)
	if err := qr.SolveVecTo(solved, false, y); err != nil {
		return fmt.Errorf("failed to solve least squares: %w", err)
	}

	coeffs := make([]float64, numBasis)
	for i := range coeffs {
		coeffs[i] = solved.AtVec(i)
	}
	estimates := make([]float64, len(samples))
	values := make([]float64, len(samples))
	for i, s := range samples {
		estimates[i] = dot(coeffs, basis(s.Features))
		values[i] = s.Irradiance
	}
	rSquared := stat.RSquaredFrom(estimates, values, nil)

	log.Ctx(ctx).DebugContext(ctx, "trained irradiance regression",
		slog.Int("samples", len(samples)),
		slog.Float64("rSquared", rSquared),
		slog.Any("coefficients", coeffs),
	)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.coeffs = coeffs
	r.rSquared = rSquared
	return nil
}

// RSquared returns the coefficient of determination of the last fit, or 0
// if the model has not been trained.
func (r *Regression) RSquared() float64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.rSquared
}

// Predict implements Predictor.
func (r *Regression) Predict(ctx context.Context, f Features) (float64, error) {
	r.once.Do(func() {
		r.mu.RLock()
		trained := r.coeffs != nil
		r.mu.RUnlock()
		if trained {
			return
		}
		r.initErr = r.Train(ctx, r.dataset())
	})

	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.coeffs == nil {
		if r.initErr != nil {
			return 0, fmt.Errorf("%w: %w", types.ErrPredictorUnavailable, r.initErr)
		}
		return 0, types.ErrPredictorUnavailable
	}
	return math.Max(0, dot(r.coeffs, basis(f))), nil
}

func dot(a, b []float64) float64 {
	var sum float64
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

// SyntheticDataset generates n noisy samples of the Synthetic formula over
// uniformly drawn hours, temperatures, cloud cover and zenith angles. The
// same seed always produces the same samples.
func SyntheticDataset(seed uint64, n int) []Sample {
	rng := rand.New(rand.NewPCG(seed, seed))
	samples := make([]Sample, n)
	for i := range samples {
		f := Features{
			Hour:          rng.Float64() * 24,
			TemperatureC:  -10 + rng.Float64()*55,
			CloudCoverPct: rng.Float64() * 100,
			Zenith:        rng.Float64() * 180,
		}
		irr := syntheticIrradiance(f.Zenith, f.CloudCoverPct) + rng.NormFloat64()*noiseStdDev
		samples[i] = Sample{Features: f, Irradiance: math.Max(0, irr)}
	}
	return samples
}
