package main

import (
	"fmt"
	"sort"

	"github.com/shanebarnes/goto/logger"
)

// Manager owns the topology, the port map, and every interceptor instance.
// The port map is fully built before any instance starts and is never
// written again, so instances read it concurrently without locking.
type Manager struct {
	config       Config
	portMap      map[int]DirectedEdge
	interceptors []Interceptor
}

func NewManager(config Config) (*Manager, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &Manager{
		config:  config,
		portMap: buildPortMap(config.InterceptPortBase, config.Replicas),
	}, nil
}

func (nm *Manager) Config() Config {
	return nm.config
}

// LookupEdge resolves an interception port to the edge it serves.
func (nm *Manager) LookupEdge(port int) (DirectedEdge, bool) {
	edge, ok := nm.portMap[port]
	return edge, ok
}

// Ports returns the interception ports in ascending order so startup ids
// are deterministic run to run.
func (nm *Manager) Ports() []int {
	ports := make([]int, 0, len(nm.portMap))
	for port := range nm.portMap {
		ports = append(ports, port)
	}
	sort.Ints(ports)

	return ports
}

// Start brings up one TCP interceptor per directed edge. Any bind failure
// aborts startup and shuts down the instances already running.
func (nm *Manager) Start() error {
	logger.PrintlnInfo("Starting", len(nm.portMap), "interceptors for", nm.config.Replicas, "replicas")

	for id, port := range nm.Ports() {
		var ni Interceptor = new(TCPInterceptor)
		ni.Init(id, port, nm)

		if err := ni.Run(); err != nil {
			nm.Shutdown()
			return fmt.Errorf("interceptor %d failed to start on port %d: %w", id, port, err)
		}

		nm.interceptors = append(nm.interceptors, ni)
	}

	return nil
}

// Shutdown stops every instance from accepting new connections. It does
// not wait for in-flight relays to drain.
func (nm *Manager) Shutdown() {
	for _, ni := range nm.interceptors {
		logger.PrintlnInfo("Stopping", ni.GetImpl().Tag, "on port", ni.GetImpl().Port)
		ni.Shutdown()
	}
}
