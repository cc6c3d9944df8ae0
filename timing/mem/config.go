// Package mem provides the banked data-memory timing model: a fixed
// number of parallel channels with an externally driven service
// cadence, which is how variable and adversarial latency is injected.
package mem

import (
	"encoding/json"
	"os"

	"github.com/pkg/errors"
)

// Config holds data-memory timing parameters.
type Config struct {
	// Channels is the number of parallel access channels. Up to this
	// many requests are in flight at once; the rest queue FIFO.
	Channels int `json:"channels"`

	// Latency is the number of external Service passes a request must
	// receive once it occupies a channel before it resolves.
	Latency int `json:"latency"`

	// Size is the data-memory size in bytes.
	Size int `json:"size"`
}

// DefaultConfig returns the modeled device's memory configuration:
// four channels, single-pass latency, a 256-byte address space.
func DefaultConfig() Config {
	return Config{
		Channels: 4,
		Latency:  1,
		Size:     256,
	}
}

// Validate checks the configuration for usable values.
func (c Config) Validate() error {
	if c.Channels <= 0 {
		return errors.Errorf("mem: channels must be positive, got %d", c.Channels)
	}
	if c.Latency <= 0 {
		return errors.Errorf("mem: latency must be positive, got %d", c.Latency)
	}
	if c.Size <= 0 {
		return errors.Errorf("mem: size must be positive, got %d", c.Size)
	}
	return nil
}

// LoadConfig reads a Config from a JSON file. Missing fields keep
// their defaults.
func LoadConfig(path string) (Config, error) {
	config := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return config, errors.Wrapf(err, "mem: reading config %s", path)
	}

	if err := json.Unmarshal(data, &config); err != nil {
		return config, errors.Wrapf(err, "mem: parsing config %s", path)
	}

	if err := config.Validate(); err != nil {
		return config, err
	}

	return config, nil
}
