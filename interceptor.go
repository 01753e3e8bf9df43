package main

import (
	"errors"
	"fmt"
)

// Interceptor is one leg of the cluster's interception mesh: a proxy that
// owns a single listening port and carries whatever connects there to the
// real destination node. The TCP variant forwards immediately; a
// scheduler-coupled variant would hold or reorder delivery instead.
type Interceptor interface {
	Init(id int, port int, manager *Manager)
	Run() error
	Shutdown()
	GetImpl() *InterceptorImpl
}

// InterceptorImpl carries the lifecycle state every variant starts from.
// The manager handle is non-owning and is only consulted for port-map and
// topology lookups.
type InterceptorImpl struct {
	Id      int
	Port    int
	Manager *Manager
	Tag     string

	initialized bool
}

// Init assigns the shared fields. No I/O happens here; it must be called
// exactly once before Run.
func (ii *InterceptorImpl) Init(id int, port int, manager *Manager) {
	ii.Id = id
	ii.Port = port
	ii.Manager = manager
	ii.Tag = fmt.Sprintf("INTERCEPT-%d", id)
	ii.initialized = true
}

// Run performs the variant-independent part of startup, which is nothing
// but a contract check so every variant begins from identical state.
func (ii *InterceptorImpl) Run() error {
	if !ii.initialized {
		return errors.New("interceptor was not initialized")
	}

	return nil
}

func (ii *InterceptorImpl) GetImpl() *InterceptorImpl {
	return ii
}
