// Package predictor estimates plane-of-array irradiance from weather and sun
// position.
package predictor

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/heliotrack/heliotrack/pkg/solar"
	"github.com/levenlabs/go-lflag"
)

// CloudAttenuation is the fraction of irradiance lost under full cloud cover.
const CloudAttenuation = 0.7

// Features are the inputs of a prediction.
type Features struct {
	// Hour is the local clock hour with minutes as a fraction.
	Hour          float64 `json:"hour"`
	TemperatureC  float64 `json:"temperatureC"`
	CloudCoverPct float64 `json:"cloudCoverPct"`
	Zenith        float64 `json:"zenith"`
}

// Predictor predicts irradiance in W/m². Implementations must be safe for
// concurrent use and must never return a negative value.
type Predictor interface {
	Predict(ctx context.Context, f Features) (float64, error)
}

// Synthetic is a deterministic clear-sky formula attenuated by cloud cover.
type Synthetic struct{}

var _ Predictor = Synthetic{}

// Predict implements Predictor.
func (Synthetic) Predict(ctx context.Context, f Features) (float64, error) {
	return syntheticIrradiance(f.Zenith, f.CloudCoverPct), nil
}

func syntheticIrradiance(zenith, cloudCoverPct float64) float64 {
	cloud := math.Max(0, math.Min(100, cloudCoverPct)) / 100
	return math.Max(0, solar.DirectIrradiance(zenith)*(1-cloud*CloudAttenuation))
}

// Fixed always predicts the same irradiance. It is mostly useful in tests.
type Fixed float64

// Predict implements Predictor.
func (f Fixed) Predict(ctx context.Context, _ Features) (float64, error) {
	return math.Max(0, float64(f)), nil
}

// Configured returns the predictor selected by the irradiance-predictor flag.
func Configured() Predictor {
	name := lflag.String("irradiance-predictor", "regression", "Irradiance predictor to use (available: regression, synthetic)")

	m := NewMap()
	var p struct{ Predictor }

	lflag.Do(func() {
		pred, err := m.Get(*name)
		if err != nil {
			panic(fmt.Sprintf("invalid irradiance predictor: %v", err))
		}
		p.Predictor = pred
	})

	return &p
}

// Map holds the named predictors available to the server.
type Map struct {
	mu         sync.Mutex
	predictors map[string]Predictor
}

// NewMap returns a Map with the built-in predictors registered.
func NewMap() *Map {
	return &Map{
		predictors: map[string]Predictor{
			"synthetic":  Synthetic{},
			"regression": NewRegression(),
		},
	}
}

// Get returns the predictor registered under name.
func (m *Map) Get(name string) (Predictor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.predictors[name]
	if !ok {
		return nil, fmt.Errorf("unknown predictor: %s", name)
	}
	return p, nil
}

// Names returns the registered predictor names, sorted.
func (m *Map) Names() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, 0, len(m.predictors))
	for n := range m.predictors {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// SetPredictor registers p under name. This is primarily used for testing.
func (m *Map) SetPredictor(name string, p Predictor) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.predictors[name] = p
}
