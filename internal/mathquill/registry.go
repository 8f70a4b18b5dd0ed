package mathquill

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// LatestVersion is the newest interface version
const LatestVersion = 2

var (
	ErrUnknownVersion = errors.New("unknown interface version")
	ErrNoProvider     = errors.New("no provider registered")
)

// Factory builds an Interface for one version.
type Factory func() Interface

var (
	providersMu sync.RWMutex
	providers   = make(map[int]Factory)
)

// Register makes a factory available for version v.
// It panics if v is out of range, the factory is nil, or v is already registered.
func Register(v int, f Factory) {
	providersMu.Lock()
	defer providersMu.Unlock()
	if v < 1 || v > LatestVersion {
		panic(fmt.Sprintf("mathquill: Register of unknown version %d", v))
	}
	if f == nil {
		panic("mathquill: Register factory is nil")
	}
	if _, dup := providers[v]; dup {
		panic(fmt.Sprintf("mathquill: Register called twice for version %d", v))
	}
	providers[v] = f
}

// GetInterface returns the interface for version v.
func GetInterface(v int) (Interface, error) {
	if v < 1 || v > LatestVersion {
		return nil, fmt.Errorf("%w: %d (latest is %d)", ErrUnknownVersion, v, LatestVersion)
	}
	providersMu.RLock()
	f, ok := providers[v]
	providersMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w for version %d", ErrNoProvider, v)
	}
	return f(), nil
}

// Versions lists registered versions in ascending order
func Versions() []int {
	providersMu.RLock()
	defer providersMu.RUnlock()
	out := make([]int, 0, len(providers))
	for v := range providers {
		out = append(out, v)
	}
	sort.Ints(out)
	return out
}
