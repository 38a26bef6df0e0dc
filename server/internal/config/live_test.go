package config

import (
	"sync"
	"testing"

	"github.com/cazuela/gasmonitor/pkg/types"
)

func TestLiveThresholds(t *testing.T) {
	l := NewLiveThresholds(types.DefaultThresholds())
	if got := l.Get(); got != types.DefaultThresholds() {
		t.Fatalf("Get: got %+v", got)
	}

	l.Set(types.Thresholds{Warning: 50, Critical: 70, Alert: 65})
	if got := l.Get(); got.Warning != 50 || got.Critical != 70 || got.Alert != 65 {
		t.Errorf("Get after Set: got %+v", got)
	}
}

func TestLiveThresholds_Concurrent(t *testing.T) {
	l := NewLiveThresholds(types.DefaultThresholds())
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			l.Set(types.Thresholds{Warning: float64(i), Critical: float64(i) + 10, Alert: float64(i) + 5})
		}(i)
		go func() {
			defer wg.Done()
			th := l.Get()
			// A torn read would break the relation set by every writer.
			if th != types.DefaultThresholds() && th.Critical != th.Warning+10 {
				t.Errorf("torn read: %+v", th)
			}
		}()
	}
	wg.Wait()
}
