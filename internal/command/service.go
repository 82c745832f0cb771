package command

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/cruxifeedsy/cruxifeed-bot/internal/analyze"
	"github.com/cruxifeedsy/cruxifeed-bot/internal/model"
	"github.com/cruxifeedsy/cruxifeed-bot/internal/subscription"
)

// SignalSource evaluates one pair on demand.
type SignalSource interface {
	Signal(ctx context.Context, symbol model.Symbol, interval model.Interval) (analyze.Result, error)
}

// Button is one inline keyboard button.
type Button struct {
	Label  string
	Action Action
}

// Reply is what the transport shows the user. Menu rows are rendered as an
// inline keyboard; a nil Menu means plain text.
type Reply struct {
	Text string
	Menu [][]Button
}

const dataUnavailable = "⚠ data unavailable"

// Service is the command surface. It holds no per-user state of its own.
type Service struct {
	store   subscription.Store
	signals SignalSource
	admin   string
	pairs   []model.Symbol
	logger  zerolog.Logger
}

// NewService creates the service. pairs is the menu universe shown by the
// pair and watchlist menus; admin is the contact named to unauthorized users.
func NewService(store subscription.Store, signals SignalSource, admin string, pairs []model.Symbol) *Service {
	if len(pairs) == 0 {
		pairs = model.DefaultSymbols
	}
	return &Service{
		store:   store,
		signals: signals,
		admin:   admin,
		pairs:   append([]model.Symbol(nil), pairs...),
		logger:  log.With().Str("component", "command_service").Logger(),
	}
}

// OnAuthorize checks an access code and authorizes the session.
func (s *Service) OnAuthorize(userID int64, code string) error {
	if !s.store.Authorize(userID, code) {
		return subscription.ErrInvalidCode
	}
	return nil
}

func (s *Service) OnAddSymbol(userID int64, symbol model.Symbol) error {
	return s.store.AddSymbol(userID, symbol)
}

func (s *Service) OnRemoveSymbol(userID int64, symbol model.Symbol) error {
	return s.store.RemoveSymbol(userID, symbol)
}

// OnGetSignalNow evaluates every watched pair on the user's timeframe and
// returns the reply text per pair. Pairs without usable data map to a
// "data unavailable" line instead of failing the request.
func (s *Service) OnGetSignalNow(ctx context.Context, userID int64) (map[model.Symbol]string, error) {
	sess, ok := s.store.Session(userID)
	if !ok || !sess.Authorized {
		return nil, subscription.ErrUnauthorized
	}

	texts := s.evaluateWatchlist(ctx, sess)
	out := make(map[model.Symbol]string, len(texts))
	for i, sym := range sess.Watchlist {
		out[sym] = texts[i]
	}
	return out, nil
}

// evaluateWatchlist returns one reply text per watched pair, in watchlist
// order. Pairs are evaluated concurrently.
func (s *Service) evaluateWatchlist(ctx context.Context, sess model.UserSession) []string {
	texts := make([]string, len(sess.Watchlist))
	var wg sync.WaitGroup
	for i, sym := range sess.Watchlist {
		wg.Add(1)
		go func(i int, sym model.Symbol) {
			defer wg.Done()
			texts[i] = s.signalText(ctx, sym, sess.Timeframe, sess.Expiration)
		}(i, sym)
	}
	wg.Wait()
	return texts
}

func (s *Service) signalText(ctx context.Context, sym model.Symbol, iv model.Interval, exp model.Expiration) string {
	res, err := s.signals.Signal(ctx, sym, iv)
	if err != nil {
		s.logger.Warn().Err(err).Str("symbol", sym.String()).Msg("On-demand signal failed")
		return fmt.Sprintf("📊 Pair: %s\n%s", sym, dataUnavailable)
	}
	return analyze.FormatSignal(sym, iv, exp, res)
}

// Handle runs one action and returns the reply to show.
func (s *Service) Handle(ctx context.Context, userID int64, a Action) Reply {
	s.store.Touch(userID)
	logger := s.logger.With().Int64("user_id", userID).Str("action", a.Kind.String()).Logger()

	switch a.Kind {
	case KindStart:
		if s.store.IsAuthorized(userID) {
			return mainMenu("Main Menu:")
		}
		return Reply{Text: fmt.Sprintf("Hi! You do not have access to signals.\n\nPlease contact %s to get your access code.", s.admin)}
	case KindSubmitCode:
		if err := s.OnAuthorize(userID, a.Code); err != nil {
			return Reply{Text: fmt.Sprintf("❌ Invalid code. Contact %s to get a valid code.", s.admin)}
		}
		return Reply{Text: "✅ Access granted! Use /start to see the menu."}
	case KindUnknown:
		return Reply{Text: "Unknown command. Use /start to see the menu."}
	}

	if !s.store.IsAuthorized(userID) {
		return s.unauthorized()
	}

	reply, err := s.handleAuthorized(ctx, userID, a)
	if errors.Is(err, subscription.ErrUnauthorized) {
		return s.unauthorized()
	}
	if err != nil {
		logger.Error().Err(err).Msg("Action failed")
		return Reply{Text: "Sorry, something went wrong. Please try again."}
	}
	return reply
}

func (s *Service) unauthorized() Reply {
	return Reply{Text: fmt.Sprintf("You do not have access. Contact %s for a code.", s.admin)}
}

func (s *Service) handleAuthorized(ctx context.Context, userID int64, a Action) (Reply, error) {
	switch a.Kind {
	case KindMainMenu:
		return mainMenu("Main Menu:"), nil

	case KindSelectPair:
		if a.Symbol.IsZero() {
			return s.pairMenu(), nil
		}
		if err := s.OnAddSymbol(userID, a.Symbol); err != nil {
			return Reply{}, err
		}
		return timeframeMenu(), nil

	case KindSelectTimeframe:
		if a.Interval == "" {
			return timeframeMenu(), nil
		}
		if err := s.store.SetTimeframe(userID, a.Interval); err != nil {
			return Reply{}, err
		}
		return expirationMenu(), nil

	case KindSelectExpiration:
		if a.Expiration == 0 {
			return expirationMenu(), nil
		}
		if err := s.store.SetExpiration(userID, a.Expiration); err != nil {
			return Reply{}, err
		}
		return mainMenu("✅ Setup complete! Press Get Signal 🚀"), nil

	case KindToggleSymbol:
		if !a.Symbol.IsZero() {
			if _, err := s.store.ToggleSymbol(userID, a.Symbol); err != nil {
				return Reply{}, err
			}
		}
		return s.watchlistMenu(userID), nil

	case KindGetSignal:
		sess, ok := s.store.Session(userID)
		if !ok || !sess.Authorized {
			return Reply{}, subscription.ErrUnauthorized
		}
		if len(sess.Watchlist) == 0 {
			return Reply{Text: "⚠ Please select a pair first.", Menu: mainMenu("").Menu}, nil
		}
		texts := s.evaluateWatchlist(ctx, sess)
		for i := range texts {
			texts[i] = strings.TrimSpace(texts[i])
		}
		return Reply{Text: strings.Join(texts, "\n\n")}, nil

	case KindViewSettings:
		sess, _ := s.store.Session(userID)
		return Reply{Text: formatSettings(sess), Menu: mainMenu("").Menu}, nil

	case KindAddSymbol:
		if err := s.OnAddSymbol(userID, a.Symbol); err != nil {
			return Reply{}, err
		}
		return Reply{Text: fmt.Sprintf("➕ %s added to your watchlist.", a.Symbol)}, nil

	case KindRemoveSymbol:
		if err := s.OnRemoveSymbol(userID, a.Symbol); err != nil {
			return Reply{}, err
		}
		return Reply{Text: fmt.Sprintf("➖ %s removed from your watchlist.", a.Symbol)}, nil
	}
	return Reply{Text: "Unknown command. Use /start to see the menu."}, nil
}

func formatSettings(sess model.UserSession) string {
	var sb strings.Builder
	sb.WriteString("⚙ Settings\n")
	sb.WriteString(fmt.Sprintf("⏱ Timeframe: %s\n", sess.Timeframe))
	if sess.Expiration > 0 {
		sb.WriteString(fmt.Sprintf("⌛ Expiration: %s\n", sess.Expiration))
	}
	if len(sess.Watchlist) == 0 {
		sb.WriteString("⭐ Watchlist: empty")
		return sb.String()
	}
	sb.WriteString("⭐ Watchlist:")
	for _, sym := range sess.Watchlist {
		sb.WriteString("\n  " + sym.String())
		if sig, ok := sess.LastSignal[sym]; ok {
			sb.WriteString(" (last: " + sig.Label() + ")")
		}
	}
	return sb.String()
}
