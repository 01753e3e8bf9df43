package main

import (
	"encoding/json"
	"errors"
	"os"
)

const defaultBufferSize uint64 = 32 * 1024

// Config describes the cluster topology plus the per-relay traffic knobs.
// The replica count and port bases come from the orchestration layer that
// assembles the node configuration files; the traffic knobs default to
// plain pass-through.
type Config struct {
	Replicas          int    `json:"replicas"`          // Number of cluster nodes
	NodePortBase      int    `json:"nodePortBase"`      // Node r really listens on nodePortBase + r + 1
	InterceptPortBase int    `json:"interceptPortBase"` // Interception ports start here
	Bandwidth         int64  `json:"bandwidth"`         // Bits per second per relay direction, 0 = unlimited
	BufferSize        uint64 `json:"buffersize"`        // Relay buffer in bytes, 0 = 32768
	MaxConns          int    `json:"maxconns"`          // Accept cap per interceptor, 0 = unbounded
}

func loadConfig(fileName string) (Config, error) {
	config := Config{}

	file, err := os.Open(fileName)
	if err != nil {
		return config, err
	}
	defer file.Close()

	err = json.NewDecoder(file).Decode(&config)
	return config, err
}

// Validate checks the topology integers and fills in buffer defaults.
func (c *Config) Validate() error {
	if c.Replicas < 2 {
		return errors.New("topology needs at least two replicas")
	}

	if c.NodePortBase <= 0 || c.InterceptPortBase <= 0 {
		return errors.New("port bases must be positive")
	}

	if c.BufferSize == 0 {
		c.BufferSize = defaultBufferSize
	}

	return nil
}
