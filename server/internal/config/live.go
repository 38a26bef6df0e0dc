package config

import (
	"sync/atomic"

	"github.com/cazuela/gasmonitor/pkg/types"
)

// LiveThresholds holds the thresholds in effect. The server swaps them when
// the config file is reloaded; readers always see a complete value.
type LiveThresholds struct {
	p atomic.Pointer[types.Thresholds]
}

// NewLiveThresholds returns a holder initialised to th.
func NewLiveThresholds(th types.Thresholds) *LiveThresholds {
	l := &LiveThresholds{}
	l.Set(th)
	return l
}

// Get returns the current thresholds.
func (l *LiveThresholds) Get() types.Thresholds {
	return *l.p.Load()
}

// Set replaces the current thresholds.
func (l *LiveThresholds) Set(th types.Thresholds) {
	l.p.Store(&th)
}
