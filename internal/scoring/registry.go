package scoring

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"ibis/internal/netlist"
)

const DynamicRange = "dynamic-range"

var (
	ErrScorerExists   = errors.New("scorer already registered")
	ErrScorerNotFound = errors.New("scorer not found")
)

// Scorer produces a scored view of one network output.
type Scorer interface {
	Score() (Result, error)
}

// Factory builds a Scorer for a network output. An empty output selects
// the first declared output.
type Factory func(net *netlist.Network, sensors SensorProvider, output string) Scorer

var scorerRegistry = struct {
	mu sync.RWMutex
	m  map[string]Factory
}{
	m: make(map[string]Factory),
}

func init() {
	initializeBuiltInScorers()
}

func initializeBuiltInScorers() {
	MustRegisterScorer(DynamicRange, func(net *netlist.Network, sensors SensorProvider, output string) Scorer {
		return &CircuitScorer{Network: net, Sensors: sensors, Output: output}
	})
}

func normalizeScorerName(name string) string {
	return strings.ToLower(strings.TrimSpace(strings.ReplaceAll(name, "_", "-")))
}

func RegisterScorer(name string, factory Factory) error {
	name = normalizeScorerName(name)
	if name == "" {
		return errors.New("scorer name is required")
	}
	if factory == nil {
		return errors.New("scorer factory is required")
	}
	scorerRegistry.mu.Lock()
	defer scorerRegistry.mu.Unlock()
	if _, exists := scorerRegistry.m[name]; exists {
		return fmt.Errorf("%w: %s", ErrScorerExists, name)
	}
	scorerRegistry.m[name] = factory
	return nil
}

func MustRegisterScorer(name string, factory Factory) {
	if err := RegisterScorer(name, factory); err != nil {
		panic(err)
	}
}

func GetScorer(name string) (Factory, error) {
	scorerRegistry.mu.RLock()
	factory, ok := scorerRegistry.m[normalizeScorerName(name)]
	scorerRegistry.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrScorerNotFound, name)
	}
	return factory, nil
}

func ListScorers() []string {
	scorerRegistry.mu.RLock()
	defer scorerRegistry.mu.RUnlock()
	names := make([]string, 0, len(scorerRegistry.m))
	for name := range scorerRegistry.m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func resetScorerRegistryForTests() {
	scorerRegistry.mu.Lock()
	scorerRegistry.m = make(map[string]Factory)
	scorerRegistry.mu.Unlock()
	initializeBuiltInScorers()
}
