package scoring

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"gopkg.in/yaml.v2"
)

var ErrUnknownSensor = errors.New("unknown sensor")

// SensorProvider supplies calibrated off/on levels for named inputs.
type SensorProvider interface {
	Signal(name string) (off, on float64, err error)
	Sensors() []string
}

// Sensor is one calibrated input promoter.
type Sensor struct {
	Name string  `yaml:"name" json:"name"`
	Off  float64 `yaml:"off" json:"off"`
	On   float64 `yaml:"on" json:"on"`
}

// SensorTable is an in-memory SensorProvider that keeps insertion order.
type SensorTable struct {
	mu     sync.RWMutex
	order  []string
	levels map[string]Sensor
}

func NewSensorTable(sensors ...Sensor) (*SensorTable, error) {
	t := &SensorTable{levels: make(map[string]Sensor, len(sensors))}
	for _, s := range sensors {
		if err := t.Add(s); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// Add registers s. Names are unique and levels must be non-negative.
func (t *SensorTable) Add(s Sensor) error {
	if s.Name == "" {
		return errors.New("sensor name is required")
	}
	if s.Off < 0 || s.On < 0 {
		return fmt.Errorf("sensor %s: levels must be >= 0", s.Name)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.levels[s.Name]; ok {
		return fmt.Errorf("sensor %s: already registered", s.Name)
	}
	t.order = append(t.order, s.Name)
	t.levels[s.Name] = s
	return nil
}

func (t *SensorTable) Signal(name string) (float64, float64, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	s, ok := t.levels[name]
	if !ok {
		return 0, 0, fmt.Errorf("%w: %s", ErrUnknownSensor, name)
	}
	return s.Off, s.On, nil
}

func (t *SensorTable) Sensors() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]string(nil), t.order...)
}

type sensorFile struct {
	Sensors []Sensor `yaml:"sensors"`
}

// ReadSensorTable decodes a YAML document of the form
//
//	sensors:
//	  - {name: pTet, off: 0.0013, on: 4.4}
func ReadSensorTable(r io.Reader) (*SensorTable, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	var file sensorFile
	if err := yaml.UnmarshalStrict(data, &file); err != nil {
		return nil, fmt.Errorf("decode sensor table: %w", err)
	}
	return NewSensorTable(file.Sensors...)
}

func LoadSensorTable(path string) (*SensorTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadSensorTable(f)
}
