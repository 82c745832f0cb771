package command

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/cruxifeedsy/cruxifeed-bot/internal/analyze"
	"github.com/cruxifeedsy/cruxifeed-bot/internal/market"
	"github.com/cruxifeedsy/cruxifeed-bot/internal/model"
	"github.com/cruxifeedsy/cruxifeed-bot/internal/subscription"
)

var gbpusd = model.Symbol{Base: "GBP", Quote: "USD"}

type fakeSignals struct {
	results map[model.Symbol]analyze.Result
}

func (f fakeSignals) Signal(_ context.Context, sym model.Symbol, _ model.Interval) (analyze.Result, error) {
	res, ok := f.results[sym]
	if !ok {
		return analyze.Result{}, market.Unavailable("no data", nil)
	}
	return res, nil
}

func newTestService() (*Service, *subscription.MemoryStore) {
	store := subscription.NewMemoryStore(subscription.Options{AccessCodes: []string{"123456"}})
	signals := fakeSignals{results: map[model.Symbol]analyze.Result{
		eurusd: {Signal: model.SignalBuy, Snapshot: model.IndicatorSnapshot{RSI: 20, MovingAverage: 1.08, MACD: 0.002, MACDSignal: 0.001, Price: 1.1}},
	}}
	return NewService(store, signals, "@cruxifeed", nil), store
}

func TestHandleUnauthorized(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	reply := svc.Handle(ctx, 1, Action{Kind: KindStart})
	if !strings.Contains(reply.Text, "@cruxifeed") || reply.Menu != nil {
		t.Errorf("Start reply = %+v, want admin contact and no menu", reply)
	}

	for _, a := range []Action{{Kind: KindGetSignal}, {Kind: KindSelectPair}, {Kind: KindAddSymbol, Symbol: eurusd}} {
		reply := svc.Handle(ctx, 1, a)
		if !strings.Contains(reply.Text, "You do not have access") || !strings.Contains(reply.Text, "@cruxifeed") {
			t.Errorf("%v reply = %q, want access denial naming the admin", a.Kind, reply.Text)
		}
	}

	reply = svc.Handle(ctx, 1, Action{Kind: KindSubmitCode, Code: "000000"})
	if !strings.HasPrefix(reply.Text, "❌ Invalid code") || !strings.Contains(reply.Text, "@cruxifeed") {
		t.Errorf("invalid code reply = %q", reply.Text)
	}
}

func TestHandleMenuFlow(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()

	if reply := svc.Handle(ctx, 1, Action{Kind: KindSubmitCode, Code: "123456"}); !strings.HasPrefix(reply.Text, "✅ Access granted") {
		t.Fatalf("code reply = %q", reply.Text)
	}
	if reply := svc.Handle(ctx, 1, Action{Kind: KindStart}); reply.Text != "Main Menu:" || len(reply.Menu) == 0 {
		t.Fatalf("start reply = %+v, want main menu", reply)
	}

	reply := svc.Handle(ctx, 1, Action{Kind: KindGetSignal})
	if !strings.Contains(reply.Text, "select a pair first") {
		t.Errorf("empty watchlist reply = %q", reply.Text)
	}

	steps := []struct {
		action Action
		want   string
	}{
		{Action{Kind: KindSelectPair}, "Select Currency Pair:"},
		{Action{Kind: KindSelectPair, Symbol: eurusd}, "Select Timeframe:"},
		{Action{Kind: KindSelectTimeframe, Interval: model.Interval15m}, "Select Expiration Time:"},
		{Action{Kind: KindSelectExpiration, Expiration: 5}, "✅ Setup complete! Press Get Signal 🚀"},
	}
	for _, step := range steps {
		reply := svc.Handle(ctx, 1, step.action)
		if reply.Text != step.want || len(reply.Menu) == 0 {
			t.Fatalf("%v reply = %+v, want %q with a menu", step.action.Kind, reply, step.want)
		}
	}

	sess, _ := store.Session(1)
	if sess.Timeframe != model.Interval15m || sess.Expiration != 5 || len(sess.Watchlist) != 1 {
		t.Fatalf("session = %+v", sess)
	}

	reply = svc.Handle(ctx, 1, Action{Kind: KindGetSignal})
	for _, want := range []string{"📊 Pair: EURUSD", "⏱ Timeframe: 15m", "⌛ Expiration: 5 min", "BUY 📈"} {
		if !strings.Contains(reply.Text, want) {
			t.Errorf("signal reply missing %q:\n%s", want, reply.Text)
		}
	}
}

func TestHandleWatchlist(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()
	if err := svc.OnAuthorize(1, "123456"); err != nil {
		t.Fatal(err)
	}

	reply := svc.Handle(ctx, 1, Action{Kind: KindToggleSymbol, Symbol: gbpusd})
	if !hasButton(reply, "✅ GBP/USD") {
		t.Errorf("toggle on: menu does not mark GBP/USD watched: %+v", reply.Menu)
	}
	reply = svc.Handle(ctx, 1, Action{Kind: KindToggleSymbol, Symbol: gbpusd})
	if !hasButton(reply, "▫ GBP/USD") {
		t.Errorf("toggle off: menu still marks GBP/USD: %+v", reply.Menu)
	}

	chfjpy := model.Symbol{Base: "CHF", Quote: "JPY"}
	if reply := svc.Handle(ctx, 1, Action{Kind: KindAddSymbol, Symbol: chfjpy}); !strings.Contains(reply.Text, "CHFJPY added") {
		t.Errorf("add reply = %q", reply.Text)
	}
	if reply := svc.Handle(ctx, 1, Action{Kind: KindToggleSymbol}); !hasButton(reply, "✅ CHF/JPY") {
		t.Errorf("watchlist menu omits a watched pair outside the menu universe: %+v", reply.Menu)
	}

	store.RecordSignal(1, chfjpy, model.SignalSell)
	if reply := svc.Handle(ctx, 1, Action{Kind: KindViewSettings}); !strings.Contains(reply.Text, "CHFJPY (last: SELL 📉)") {
		t.Errorf("settings reply = %q", reply.Text)
	}

	if reply := svc.Handle(ctx, 1, Action{Kind: KindRemoveSymbol, Symbol: chfjpy}); !strings.Contains(reply.Text, "CHFJPY removed") {
		t.Errorf("remove reply = %q", reply.Text)
	}
}

func TestOnGetSignalNow(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	if _, err := svc.OnGetSignalNow(ctx, 1); !errors.Is(err, subscription.ErrUnauthorized) {
		t.Fatalf("unauthorized OnGetSignalNow() error = %v", err)
	}
	if err := svc.OnAuthorize(1, "bad"); !errors.Is(err, subscription.ErrInvalidCode) {
		t.Fatalf("OnAuthorize(bad) error = %v", err)
	}
	if err := svc.OnAuthorize(1, "123456"); err != nil {
		t.Fatal(err)
	}
	if err := svc.OnAddSymbol(1, eurusd); err != nil {
		t.Fatal(err)
	}
	if err := svc.OnAddSymbol(1, gbpusd); err != nil {
		t.Fatal(err)
	}

	got, err := svc.OnGetSignalNow(ctx, 1)
	if err != nil {
		t.Fatalf("OnGetSignalNow() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("OnGetSignalNow() = %v, want 2 entries", got)
	}
	if !strings.Contains(got[eurusd], "BUY") {
		t.Errorf("EURUSD text = %q", got[eurusd])
	}
	if !strings.Contains(got[gbpusd], "data unavailable") {
		t.Errorf("GBPUSD text = %q, want data unavailable", got[gbpusd])
	}

	if err := svc.OnRemoveSymbol(1, gbpusd); err != nil {
		t.Fatal(err)
	}
	got, _ = svc.OnGetSignalNow(ctx, 1)
	if _, ok := got[gbpusd]; ok || len(got) != 1 {
		t.Errorf("after remove OnGetSignalNow() = %v", got)
	}
}

func TestHandleUnknown(t *testing.T) {
	svc, _ := newTestService()
	reply := svc.Handle(context.Background(), 1, Action{Kind: KindUnknown, Raw: "/help"})
	if !strings.Contains(reply.Text, "/start") {
		t.Errorf("unknown reply = %q", reply.Text)
	}
}

func hasButton(r Reply, label string) bool {
	for _, row := range r.Menu {
		for _, b := range row {
			if b.Label == label {
				return true
			}
		}
	}
	return false
}
