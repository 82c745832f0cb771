package subscription

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/cruxifeedsy/cruxifeed-bot/internal/model"
)

var (
	eurusd = model.Symbol{Base: "EUR", Quote: "USD"}
	gbpusd = model.Symbol{Base: "GBP", Quote: "USD"}
)

func newTestStore() *MemoryStore {
	return NewMemoryStore(Options{AccessCodes: []string{"123456", "654321"}})
}

func authorizedStore(t *testing.T, userID int64) *MemoryStore {
	t.Helper()
	st := newTestStore()
	if !st.Authorize(userID, "123456") {
		t.Fatal("Authorize() rejected a valid code")
	}
	return st
}

func TestAuthorize(t *testing.T) {
	tests := []struct {
		name string
		code string
		want bool
	}{
		{"valid code", "654321", true},
		{"wrong code", "000000", false},
		{"prefix of valid code", "1234", false},
		{"empty code", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := newTestStore()
			if got := st.Authorize(1, tt.code); got != tt.want {
				t.Errorf("Authorize(%q) = %v, want %v", tt.code, got, tt.want)
			}
			if got := st.IsAuthorized(1); got != tt.want {
				t.Errorf("IsAuthorized() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEmptyCodeSetRejectsEverything(t *testing.T) {
	st := NewMemoryStore(Options{AccessCodes: []string{""}})
	if st.Authorize(1, "") {
		t.Error("Authorize() accepted an empty code")
	}
}

func TestAuthorizeSeedsDefaults(t *testing.T) {
	st := NewMemoryStore(Options{
		AccessCodes:      []string{"c"},
		DefaultWatchlist: []model.Symbol{eurusd, gbpusd},
		DefaultInterval:  model.Interval15m,
	})
	st.Authorize(7, "c")
	if err := st.RemoveSymbol(7, gbpusd); err != nil {
		t.Fatalf("RemoveSymbol() error = %v", err)
	}
	// A repeated authorization must not restore removed pairs.
	st.Authorize(7, "c")

	iv, syms, ok := st.Targets(7)
	if !ok {
		t.Fatal("Targets() not ok for authorized user")
	}
	if iv != model.Interval15m {
		t.Errorf("interval = %v, want 15m", iv)
	}
	if len(syms) != 1 || syms[0] != eurusd {
		t.Errorf("watchlist = %v, want [EURUSD]", syms)
	}
}

func TestGatedOperations(t *testing.T) {
	st := newTestStore()
	st.Touch(1)

	if err := st.AddSymbol(1, eurusd); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("AddSymbol() error = %v, want ErrUnauthorized", err)
	}
	if err := st.RemoveSymbol(2, eurusd); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("RemoveSymbol() unknown user error = %v, want ErrUnauthorized", err)
	}
	if _, err := st.ToggleSymbol(1, eurusd); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("ToggleSymbol() error = %v, want ErrUnauthorized", err)
	}
	if err := st.SetTimeframe(1, model.Interval1m); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("SetTimeframe() error = %v, want ErrUnauthorized", err)
	}
	if _, _, ok := st.Targets(1); ok {
		t.Error("Targets() ok for unauthorized user")
	}
	if ids := st.AuthorizedUsers(); len(ids) != 0 {
		t.Errorf("AuthorizedUsers() = %v, want none", ids)
	}
}

func TestRecordSignalDedup(t *testing.T) {
	st := authorizedStore(t, 1)
	if err := st.AddSymbol(1, eurusd); err != nil {
		t.Fatalf("AddSymbol() error = %v", err)
	}

	steps := []struct {
		signal  model.Signal
		changed bool
	}{
		{model.SignalBuy, true},
		{model.SignalBuy, false},
		{model.SignalSell, true},
		{model.SignalSell, false},
		{model.SignalWait, true},
		{model.SignalWait, false},
		{model.SignalBuy, true},
	}
	for i, step := range steps {
		if got := st.RecordSignal(1, eurusd, step.signal); got != step.changed {
			t.Fatalf("step %d: RecordSignal(%v) = %v, want %v", i, step.signal, got, step.changed)
		}
	}
}

func TestRemoveResetsDedup(t *testing.T) {
	st := authorizedStore(t, 1)
	st.AddSymbol(1, eurusd)

	if !st.RecordSignal(1, eurusd, model.SignalBuy) {
		t.Fatal("first BUY not reported as change")
	}
	if st.RecordSignal(1, eurusd, model.SignalBuy) {
		t.Fatal("repeated BUY reported as change")
	}

	st.RemoveSymbol(1, eurusd)
	if st.RecordSignal(1, eurusd, model.SignalBuy) {
		t.Fatal("signal recorded for a pair that is no longer watched")
	}
	sess, _ := st.Session(1)
	if _, ok := sess.LastSignal[eurusd]; ok {
		t.Fatal("last signal kept after removal")
	}

	st.AddSymbol(1, eurusd)
	if !st.RecordSignal(1, eurusd, model.SignalBuy) {
		t.Fatal("BUY after re-adding not reported as change")
	}
}

func TestToggleSymbol(t *testing.T) {
	st := authorizedStore(t, 1)

	watching, err := st.ToggleSymbol(1, gbpusd)
	if err != nil || !watching {
		t.Fatalf("ToggleSymbol() = %v, %v; want true, nil", watching, err)
	}
	st.RecordSignal(1, gbpusd, model.SignalSell)

	watching, err = st.ToggleSymbol(1, gbpusd)
	if err != nil || watching {
		t.Fatalf("ToggleSymbol() = %v, %v; want false, nil", watching, err)
	}
	sess, _ := st.Session(1)
	if len(sess.Watchlist) != 0 || len(sess.LastSignal) != 0 {
		t.Errorf("session after toggle off = %+v", sess)
	}
}

func TestSessionIsCopy(t *testing.T) {
	st := authorizedStore(t, 1)
	st.AddSymbol(1, eurusd)
	st.SetExpiration(1, 5)

	sess, ok := st.Session(1)
	if !ok {
		t.Fatal("Session() not found")
	}
	if sess.Expiration != 5 {
		t.Errorf("Expiration = %v, want 5", sess.Expiration)
	}
	sess.Watchlist[0] = gbpusd
	sess.LastSignal[eurusd] = model.SignalBuy

	_, syms, _ := st.Targets(1)
	if syms[0] != eurusd {
		t.Error("mutating the session copy changed the store")
	}
	if !st.RecordSignal(1, eurusd, model.SignalBuy) {
		t.Error("mutating the session copy changed the dedup state")
	}
}

func TestAuthorizedUsersSorted(t *testing.T) {
	st := newTestStore()
	for _, id := range []int64{30, 10, 20} {
		st.Authorize(id, "123456")
	}
	st.Touch(15)

	ids := st.AuthorizedUsers()
	want := []int64{10, 20, 30}
	if len(ids) != len(want) {
		t.Fatalf("AuthorizedUsers() = %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("AuthorizedUsers() = %v, want %v", ids, want)
		}
	}
}

func TestSweep(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := now
	st := NewMemoryStore(Options{
		AccessCodes: []string{"c"},
		IdleTTL:     time.Hour,
		Now:         func() time.Time { return clock },
	})

	st.Touch(1)
	st.Authorize(2, "c")
	clock = now.Add(50 * time.Minute)
	st.Touch(3)

	if n := st.Sweep(now.Add(90 * time.Minute)); n != 1 {
		t.Fatalf("Sweep() = %d, want 1", n)
	}
	if _, ok := st.Session(1); ok {
		t.Error("idle unauthorized session survived")
	}
	if _, ok := st.Session(2); !ok {
		t.Error("authorized session evicted")
	}
	if _, ok := st.Session(3); !ok {
		t.Error("recently active session evicted")
	}
}

func TestConcurrentAccess(t *testing.T) {
	st := newTestStore()
	var wg sync.WaitGroup
	for u := int64(1); u <= 8; u++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			st.Authorize(id, "123456")
			for i := 0; i < 200; i++ {
				st.AddSymbol(id, eurusd)
				st.RecordSignal(id, eurusd, model.Signal(i%3))
				st.AuthorizedUsers()
				st.RemoveSymbol(id, eurusd)
			}
		}(u)
	}
	wg.Wait()

	if got := len(st.AuthorizedUsers()); got != 8 {
		t.Errorf("AuthorizedUsers() = %d users, want 8", got)
	}
}
