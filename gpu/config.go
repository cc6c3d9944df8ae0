// Package gpu provides the device top: program and data memory, the
// core pool, and the block dispatcher, driven by the external
// reset/start/tick protocol.
package gpu

import (
	"encoding/json"
	"os"

	"github.com/pkg/errors"

	"github.com/sarchlab/tgsim/timing/mem"
)

// MaxThreads is the largest total thread count the 8-bit control
// register can hold.
const MaxThreads = 255

// Config holds device configuration parameters.
type Config struct {
	// NumCores is the number of physical cores.
	NumCores int `json:"num_cores"`

	// ThreadsPerBlock (TPB) is the fixed per-block thread capacity the
	// total thread count is partitioned into.
	ThreadsPerBlock int `json:"threads_per_block"`

	// Memory configures the banked data-memory controller.
	Memory mem.Config `json:"memory"`
}

// DefaultConfig returns the modeled device: two cores, four threads
// per block, four memory channels.
func DefaultConfig() Config {
	return Config{
		NumCores:        2,
		ThreadsPerBlock: 4,
		Memory:          mem.DefaultConfig(),
	}
}

// Validate checks the configuration for usable values.
func (c Config) Validate() error {
	if c.NumCores <= 0 {
		return errors.Errorf("gpu: num_cores must be positive, got %d", c.NumCores)
	}
	if c.ThreadsPerBlock <= 0 || c.ThreadsPerBlock > MaxThreads {
		return errors.Errorf("gpu: threads_per_block must be in 1..%d, got %d",
			MaxThreads, c.ThreadsPerBlock)
	}
	return c.Memory.Validate()
}

// LoadConfig reads a Config from a JSON file. Missing fields keep
// their defaults.
func LoadConfig(path string) (Config, error) {
	config := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return config, errors.Wrapf(err, "gpu: reading config %s", path)
	}

	if err := json.Unmarshal(data, &config); err != nil {
		return config, errors.Wrapf(err, "gpu: parsing config %s", path)
	}

	if err := config.Validate(); err != nil {
		return config, err
	}

	return config, nil
}
