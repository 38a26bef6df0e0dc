package alerts

import (
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/cazuela/gasmonitor/server/internal/config"
)

const (
	defaultCooldown = 15 * time.Minute
	maxHistoryLen   = 200
	recentWindow    = time.Hour
)

// Alert represents a single alert event produced by the rule engine.
type Alert struct {
	ID         string     `json:"id"`
	RuleName   string     `json:"rule_name"`
	SessionID  string     `json:"session_id"`
	Dataset    string     `json:"dataset"`
	Severity   string     `json:"severity"`
	Message    string     `json:"message"`
	Value      float64    `json:"value"`
	FiredAt    time.Time  `json:"fired_at"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
	State      string     `json:"state"` // "firing" | "resolved"
}

// Engine evaluates alert rules against session statuses and delivers
// webhook notifications when rules fire or resolve.
//
// Engine is safe for concurrent use.
type Engine struct {
	rules    []config.AlertRule
	webhooks []config.WebhookConfig

	mu       sync.Mutex
	active   map[string]*Alert    // key: "ruleName:sessionID"
	lastFire map[string]time.Time // last fire time per key (for cooldown)
	history  []*Alert             // recently resolved alerts
	client   *http.Client
	now      func() time.Time
	wg       sync.WaitGroup
}

// New creates an Engine from the server alert configuration.
// An Engine with empty rules is valid; Evaluate becomes a no-op.
func New(cfg config.AlertsConfig) *Engine {
	return &Engine{
		rules:    cfg.Rules,
		webhooks: cfg.Webhooks,
		active:   make(map[string]*Alert),
		lastFire: make(map[string]time.Time),
		client:   &http.Client{Timeout: 10 * time.Second},
		now:      time.Now,
	}
}

// Evaluate tests all configured rules against s.
// Alerts that fire are stored and webhook delivery is triggered asynchronously.
// Alerts that were firing but whose condition is now false are resolved.
// It returns the alerts that fired during this call.
func (e *Engine) Evaluate(s Subject) []*Alert {
	if len(e.rules) == 0 {
		return nil
	}

	now := e.now()
	var fired []*Alert
	for _, rule := range e.rules {
		key := rule.Name + ":" + s.SessionID
		fires, value := evalCondition(rule.Condition, s)

		e.mu.Lock()
		if fires {
			cooldown := rule.Cooldown
			if cooldown <= 0 {
				cooldown = defaultCooldown
			}
			last, seen := e.lastFire[key]
			if seen && now.Sub(last) <= cooldown {
				e.mu.Unlock()
				continue
			}
			sev := rule.Severity
			if sev == "" {
				sev = "warning"
			}
			a := &Alert{
				ID:        fmt.Sprintf("%s:%s:%d", rule.Name, s.SessionID, now.UnixNano()),
				RuleName:  rule.Name,
				SessionID: s.SessionID,
				Dataset:   s.Name,
				Severity:  sev,
				Value:     value,
				Message: fmt.Sprintf("[%s] %s fired on %s: %s (value %.2f, current %s)",
					sev, rule.Name, displayName(s), rule.Condition, value,
					s.Overview.Classification.Label()),
				FiredAt: now,
				State:   "firing",
			}
			e.active[key] = a
			e.lastFire[key] = now
			alertCopy := *a
			e.mu.Unlock()

			slog.Warn("alert fired",
				"rule", rule.Name,
				"session", s.SessionID,
				"value", value,
				"severity", sev,
			)
			fired = append(fired, &alertCopy)
			e.dispatch(&alertCopy)
			continue
		}

		a, ok := e.active[key]
		if !ok {
			e.mu.Unlock()
			continue
		}
		alertCopy := e.resolveLocked(key, a, now)
		e.mu.Unlock()

		slog.Info("alert resolved", "rule", rule.Name, "session", s.SessionID)
		e.dispatch(alertCopy)
	}
	return fired
}

// Forget resolves every firing alert for sessionID and drops its cooldown
// state. It is called when a session is deleted or evicted.
func (e *Engine) Forget(sessionID string) {
	now := e.now()
	suffix := ":" + sessionID

	e.mu.Lock()
	var resolved []*Alert
	for key, a := range e.active {
		if strings.HasSuffix(key, suffix) {
			resolved = append(resolved, e.resolveLocked(key, a, now))
		}
	}
	for key := range e.lastFire {
		if strings.HasSuffix(key, suffix) {
			delete(e.lastFire, key)
		}
	}
	e.mu.Unlock()

	for _, a := range resolved {
		e.dispatch(a)
	}
}

// resolveLocked marks a as resolved and moves it into history.
// e.mu must be held.
func (e *Engine) resolveLocked(key string, a *Alert, now time.Time) *Alert {
	resolved := now
	a.State = "resolved"
	a.ResolvedAt = &resolved
	delete(e.active, key)

	e.history = append(e.history, a)
	if len(e.history) > maxHistoryLen {
		e.history = e.history[len(e.history)-maxHistoryLen:]
	}
	cp := *a
	return &cp
}

// Active returns copies of all currently firing alerts plus any alerts
// resolved within the past hour, sorted newest first.
func (e *Engine) Active() []*Alert {
	e.mu.Lock()
	defer e.mu.Unlock()

	cutoff := e.now().Add(-recentWindow)
	out := make([]*Alert, 0, len(e.active))

	for _, a := range e.active {
		cp := *a
		out = append(out, &cp)
	}
	for _, a := range e.history {
		if a.ResolvedAt != nil && a.ResolvedAt.After(cutoff) {
			cp := *a
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return latest(out[i]).After(latest(out[j]))
	})
	return out
}

// Wait blocks until all in-flight webhook deliveries have finished.
func (e *Engine) Wait() { e.wg.Wait() }

func (e *Engine) dispatch(a *Alert) {
	if len(e.webhooks) == 0 {
		return
	}
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		e.deliver(a)
	}()
}

func latest(a *Alert) time.Time {
	if a.ResolvedAt != nil {
		return *a.ResolvedAt
	}
	return a.FiredAt
}

func displayName(s Subject) string {
	if s.Name != "" {
		return s.Name
	}
	return s.SessionID
}
