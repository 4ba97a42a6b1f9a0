package shmreg_test

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/calvinalkan/shmreg/pkg/shmreg"
)

// mockContainer is a controllable Container used across the test suite. It
// is not a real shared-memory container; it just records calls so tests can
// assert on the Lifecycle Coordinator's contract.
type mockContainer struct {
	mu sync.Mutex

	key   string
	group string
	appID int

	initErrs  []error
	initCalls int

	existsAtInit bool

	loadErr   error
	loadCalls int

	size int64

	panicOnInit bool

	destroyCalls atomic.Int32
}

func newMockFactory(cfg mockConfig) shmreg.ContainerFactory[*mockContainer] {
	return func(key, group string, appID int) (*mockContainer, error) {
		if cfg.factoryErr != nil {
			return nil, cfg.factoryErr
		}

		return &mockContainer{
			key:          key,
			group:        group,
			appID:        appID,
			initErrs:     cfg.initErrs,
			existsAtInit: cfg.existsAtInit,
			loadErr:      cfg.loadErr,
			size:         cfg.size,
			panicOnInit:  cfg.panicOnInit,
		}, nil
	}
}

type mockConfig struct {
	factoryErr   error
	initErrs     []error
	existsAtInit bool
	loadErr      error
	size         int64
	panicOnInit  bool
}

func (c *mockContainer) Init() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	idx := c.initCalls
	c.initCalls++

	if c.panicOnInit {
		panic("mockContainer: simulated panic in Init")
	}

	if idx < len(c.initErrs) {
		return c.initErrs[idx]
	}

	return nil
}

func (c *mockContainer) IsExist() bool { return c.existsAtInit }

func (c *mockContainer) Load() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.loadCalls++

	return c.loadErr
}

func (c *mockContainer) Destroy() { c.destroyCalls.Add(1) }

func (c *mockContainer) Size() int64 { return c.size }

func (c *mockContainer) initCallCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.initCalls
}

// anotherContainer is a second concrete Container type, used to exercise
// ErrType on a wrong-type Get.
type anotherContainer struct{}

func (anotherContainer) Init() error  { return nil }
func (anotherContainer) IsExist() bool { return false }
func (anotherContainer) Load() error  { return nil }
func (anotherContainer) Destroy()     {}
func (anotherContainer) Size() int64  { return 0 }

var errFactoryBoom = errors.New("factory boom")
