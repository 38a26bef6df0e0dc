package alerts

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cazuela/gasmonitor/pkg/types"
	"github.com/cazuela/gasmonitor/server/internal/config"
)

// fixedClock returns a func() time.Time that always returns t.
func fixedClock(t time.Time) func() time.Time { return func() time.Time { return t } }

func newEngine(rules ...config.AlertRule) *Engine {
	return New(config.AlertsConfig{Rules: rules})
}

func TestEvaluate_NoRules_NoOp(t *testing.T) {
	e := newEngine()
	if fired := e.Evaluate(subject()); len(fired) != 0 {
		t.Fatalf("fired: got %d, want 0", len(fired))
	}
	if n := len(e.Active()); n != 0 {
		t.Errorf("Active: got %d, want 0", n)
	}
}

func TestEvaluate_Fires(t *testing.T) {
	e := newEngine(config.AlertRule{Name: "critical-now", Condition: "state == critical", Severity: "critical"})

	fired := e.Evaluate(subject())
	if len(fired) != 1 {
		t.Fatalf("fired: got %d, want 1", len(fired))
	}
	a := fired[0]
	if a.State != "firing" || a.Severity != "critical" || a.SessionID != "s-1" {
		t.Errorf("alert: %+v", a)
	}
	if !strings.Contains(a.Message, "cocina.csv") || !strings.Contains(a.Message, "ALERTA") {
		t.Errorf("message: %q", a.Message)
	}
	if n := len(e.Active()); n != 1 {
		t.Errorf("Active: got %d, want 1", n)
	}
}

func TestEvaluate_DefaultSeverity(t *testing.T) {
	e := newEngine(config.AlertRule{Name: "hot", Condition: "current > 70"})
	fired := e.Evaluate(subject())
	if len(fired) != 1 || fired[0].Severity != "warning" {
		t.Fatalf("fired: %+v", fired)
	}
}

func TestEvaluate_CooldownSuppressesRefire(t *testing.T) {
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	e := newEngine(config.AlertRule{Name: "hot", Condition: "current > 70", Cooldown: time.Minute})
	e.now = fixedClock(base)

	if len(e.Evaluate(subject())) != 1 {
		t.Fatal("first evaluation should fire")
	}
	e.now = fixedClock(base.Add(30 * time.Second))
	if len(e.Evaluate(subject())) != 0 {
		t.Fatal("evaluation inside cooldown should not fire")
	}
	e.now = fixedClock(base.Add(2 * time.Minute))
	if len(e.Evaluate(subject())) != 1 {
		t.Fatal("evaluation after cooldown should fire again")
	}
}

func TestEvaluate_SessionsAreIndependent(t *testing.T) {
	e := newEngine(config.AlertRule{Name: "hot", Condition: "current > 70"})
	a := subject()
	b := subject()
	b.SessionID = "s-2"

	if len(e.Evaluate(a)) != 1 || len(e.Evaluate(b)) != 1 {
		t.Fatal("each session should fire its own alert")
	}
	if n := len(e.Active()); n != 2 {
		t.Errorf("Active: got %d, want 2", n)
	}
}

func TestEvaluate_Resolves(t *testing.T) {
	e := newEngine(config.AlertRule{Name: "hot", Condition: "current > 70"})
	s := subject()
	e.Evaluate(s)

	s.Overview.Current.Value = 40
	s.Overview.Classification = types.Normal
	if fired := e.Evaluate(s); len(fired) != 0 {
		t.Fatalf("fired: got %d, want 0", len(fired))
	}

	active := e.Active()
	if len(active) != 1 {
		t.Fatalf("Active: got %d, want 1 (recently resolved)", len(active))
	}
	if active[0].State != "resolved" || active[0].ResolvedAt == nil {
		t.Errorf("alert not resolved: %+v", active[0])
	}
}

func TestActive_DropsOldResolved(t *testing.T) {
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	e := newEngine(config.AlertRule{Name: "hot", Condition: "current > 70"})
	e.now = fixedClock(base)

	s := subject()
	e.Evaluate(s)
	s.Overview.Current.Value = 10
	e.Evaluate(s)

	e.now = fixedClock(base.Add(2 * time.Hour))
	if n := len(e.Active()); n != 0 {
		t.Errorf("Active: got %d, want 0", n)
	}
}

func TestActive_NewestFirst(t *testing.T) {
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	e := newEngine(config.AlertRule{Name: "hot", Condition: "current > 70"})

	e.now = fixedClock(base)
	first := subject()
	e.Evaluate(first)

	e.now = fixedClock(base.Add(time.Minute))
	second := subject()
	second.SessionID = "s-2"
	e.Evaluate(second)

	active := e.Active()
	if len(active) != 2 || active[0].SessionID != "s-2" {
		t.Fatalf("order: %+v", active)
	}
}

func TestForget_ResolvesSessionAlerts(t *testing.T) {
	e := newEngine(config.AlertRule{Name: "hot", Condition: "current > 70"})
	a := subject()
	b := subject()
	b.SessionID = "s-2"
	e.Evaluate(a)
	e.Evaluate(b)

	e.Forget("s-1")

	var firing, resolved int
	for _, al := range e.Active() {
		switch al.State {
		case "firing":
			firing++
			if al.SessionID != "s-2" {
				t.Errorf("unexpected firing alert for %s", al.SessionID)
			}
		case "resolved":
			resolved++
		}
	}
	if firing != 1 || resolved != 1 {
		t.Errorf("firing=%d resolved=%d, want 1 and 1", firing, resolved)
	}

	// Cooldown state is gone: the same session ID fires immediately.
	if len(e.Evaluate(a)) != 1 {
		t.Error("forgotten session should fire again without cooldown")
	}
}

// recorder is an httptest handler capturing posted bodies.
type recorder struct {
	mu     sync.Mutex
	bodies []string
	status int
}

func (r *recorder) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	b, _ := io.ReadAll(req.Body)
	r.mu.Lock()
	r.bodies = append(r.bodies, string(b))
	r.mu.Unlock()
	if r.status != 0 {
		w.WriteHeader(r.status)
		return
	}
	_, _ = w.Write([]byte("ok"))
}

func (r *recorder) received() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.bodies...)
}

func TestDeliver_Webhooks(t *testing.T) {
	slackRec := &recorder{}
	teamsRec := &recorder{}
	httpRec := &recorder{}
	slackSrv := httptest.NewServer(slackRec)
	teamsSrv := httptest.NewServer(teamsRec)
	httpSrv := httptest.NewServer(httpRec)
	t.Cleanup(slackSrv.Close)
	t.Cleanup(teamsSrv.Close)
	t.Cleanup(httpSrv.Close)

	t.Setenv("GAS_SLACK_URL", slackSrv.URL)
	t.Setenv("GAS_TEAMS_URL", teamsSrv.URL)
	t.Setenv("GAS_HTTP_URL", httpSrv.URL)

	e := New(config.AlertsConfig{
		Rules: []config.AlertRule{{Name: "critical-now", Condition: "state == critical", Severity: "critical"}},
		Webhooks: []config.WebhookConfig{
			{Type: "slack", URLEnv: "GAS_SLACK_URL"},
			{Type: "teams", URLEnv: "GAS_TEAMS_URL"},
			{Type: "http", URLEnv: "GAS_HTTP_URL"},
			{Type: "http", URLEnv: "GAS_UNSET_URL"},
		},
	})
	e.Evaluate(subject())
	e.Wait()

	sb := slackRec.received()
	if len(sb) != 1 {
		t.Fatalf("slack: got %d posts, want 1", len(sb))
	}
	var slackMsg map[string]interface{}
	if err := json.Unmarshal([]byte(sb[0]), &slackMsg); err != nil {
		t.Fatalf("slack body: %v", err)
	}
	if text, _ := slackMsg["text"].(string); !strings.Contains(text, "[CRITICAL]") {
		t.Errorf("slack text: %q", text)
	}
	if _, ok := slackMsg["blocks"]; !ok {
		t.Error("slack message has no blocks")
	}

	tb := teamsRec.received()
	if len(tb) != 1 || !strings.Contains(tb[0], "MessageCard") {
		t.Errorf("teams: %v", tb)
	}

	hb := httpRec.received()
	if len(hb) != 1 {
		t.Fatalf("http: got %d posts, want 1", len(hb))
	}
	var payload struct {
		Alert Alert `json:"alert"`
	}
	if err := json.Unmarshal([]byte(hb[0]), &payload); err != nil {
		t.Fatalf("http body: %v", err)
	}
	if payload.Alert.RuleName != "critical-now" || payload.Alert.State != "firing" {
		t.Errorf("http payload: %+v", payload.Alert)
	}
}

func TestDeliver_ErrorIsNotFatal(t *testing.T) {
	rec := &recorder{status: http.StatusInternalServerError}
	srv := httptest.NewServer(rec)
	t.Cleanup(srv.Close)
	t.Setenv("GAS_HTTP_URL", srv.URL)

	e := New(config.AlertsConfig{
		Rules:    []config.AlertRule{{Name: "hot", Condition: "current > 70"}},
		Webhooks: []config.WebhookConfig{{Type: "http", URLEnv: "GAS_HTTP_URL"}},
	})
	if len(e.Evaluate(subject())) != 1 {
		t.Fatal("alert should fire even when delivery fails")
	}
	e.Wait()
	if n := len(rec.received()); n != 1 {
		t.Errorf("posts: got %d, want 1", n)
	}
}
