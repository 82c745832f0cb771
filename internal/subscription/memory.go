package subscription

import (
	"crypto/subtle"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/cruxifeedsy/cruxifeed-bot/internal/model"
)

// Options configures a MemoryStore.
type Options struct {
	AccessCodes      []string
	DefaultWatchlist []model.Symbol
	DefaultInterval  model.Interval
	// IdleTTL bounds how long an unauthorized session is kept without
	// activity. Zero disables eviction.
	IdleTTL time.Duration
	Now     func() time.Time
}

type session struct {
	mu           sync.Mutex
	userID       int64
	authorized   bool
	watchlist    []model.Symbol
	watching     map[model.Symbol]bool
	timeframe    model.Interval
	expiration   model.Expiration
	lastSignal   map[model.Symbol]model.Signal
	lastActivity time.Time
}

// MemoryStore keeps sessions in memory for the lifetime of the process.
// The map lock only guards membership; each session has its own lock.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[int64]*session

	codes            [][]byte
	defaultWatchlist []model.Symbol
	defaultInterval  model.Interval
	idleTTL          time.Duration
	now              func() time.Time
	logger           zerolog.Logger
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore(opts Options) *MemoryStore {
	if opts.DefaultInterval == "" {
		opts.DefaultInterval = model.Interval5m
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	codes := make([][]byte, 0, len(opts.AccessCodes))
	for _, c := range opts.AccessCodes {
		if c != "" {
			codes = append(codes, []byte(c))
		}
	}

	return &MemoryStore{
		sessions:         make(map[int64]*session),
		codes:            codes,
		defaultWatchlist: append([]model.Symbol(nil), opts.DefaultWatchlist...),
		defaultInterval:  opts.DefaultInterval,
		idleTTL:          opts.IdleTTL,
		now:              opts.Now,
		logger:           log.With().Str("component", "subscription_store").Logger(),
	}
}

func (m *MemoryStore) lookup(userID int64) *session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sessions[userID]
}

func (m *MemoryStore) getOrCreate(userID int64) *session {
	if s := m.lookup(userID); s != nil {
		return s
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[userID]; ok {
		return s
	}
	s := &session{
		userID:     userID,
		watching:   make(map[model.Symbol]bool),
		lastSignal: make(map[model.Symbol]model.Signal),
		timeframe:  m.defaultInterval,
	}
	m.sessions[userID] = s
	return s
}

// withAuthorized runs fn under the session lock if the user is authorized.
func (m *MemoryStore) withAuthorized(userID int64, fn func(s *session)) error {
	s := m.lookup(userID)
	if s == nil {
		return ErrUnauthorized
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.authorized {
		return ErrUnauthorized
	}
	s.lastActivity = m.now()
	fn(s)
	return nil
}

// Touch creates the session on first contact and refreshes its activity.
func (m *MemoryStore) Touch(userID int64) {
	s := m.getOrCreate(userID)
	s.mu.Lock()
	s.lastActivity = m.now()
	s.mu.Unlock()
}

func (m *MemoryStore) validCode(code string) bool {
	if code == "" {
		return false
	}
	valid := false
	for _, c := range m.codes {
		if subtle.ConstantTimeCompare(c, []byte(code)) == 1 {
			valid = true
		}
	}
	return valid
}

// Authorize flags the session authorized iff code is one of the configured
// access codes. The first successful authorization seeds the default
// watchlist.
func (m *MemoryStore) Authorize(userID int64, code string) bool {
	s := m.getOrCreate(userID)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActivity = m.now()

	if !m.validCode(code) {
		m.logger.Info().Int64("user_id", userID).Msg("Rejected access code")
		return false
	}
	if !s.authorized {
		s.authorized = true
		for _, sym := range m.defaultWatchlist {
			s.add(sym)
		}
		m.logger.Info().Int64("user_id", userID).Msg("User authorized")
	}
	return true
}

func (m *MemoryStore) IsAuthorized(userID int64) bool {
	s := m.lookup(userID)
	if s == nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.authorized
}

func (s *session) add(sym model.Symbol) {
	if s.watching[sym] {
		return
	}
	s.watching[sym] = true
	s.watchlist = append(s.watchlist, sym)
}

func (s *session) remove(sym model.Symbol) {
	if !s.watching[sym] {
		return
	}
	delete(s.watching, sym)
	delete(s.lastSignal, sym)
	for i, w := range s.watchlist {
		if w == sym {
			s.watchlist = append(s.watchlist[:i], s.watchlist[i+1:]...)
			break
		}
	}
}

func (m *MemoryStore) AddSymbol(userID int64, symbol model.Symbol) error {
	return m.withAuthorized(userID, func(s *session) { s.add(symbol) })
}

// RemoveSymbol drops the pair from the watchlist together with its last
// signal, so re-adding it alerts again on the next actionable signal.
func (m *MemoryStore) RemoveSymbol(userID int64, symbol model.Symbol) error {
	return m.withAuthorized(userID, func(s *session) { s.remove(symbol) })
}

// ToggleSymbol adds or removes the pair and reports whether it is now watched.
func (m *MemoryStore) ToggleSymbol(userID int64, symbol model.Symbol) (bool, error) {
	var watching bool
	err := m.withAuthorized(userID, func(s *session) {
		if s.watching[symbol] {
			s.remove(symbol)
		} else {
			s.add(symbol)
		}
		watching = s.watching[symbol]
	})
	return watching, err
}

func (m *MemoryStore) SetTimeframe(userID int64, interval model.Interval) error {
	return m.withAuthorized(userID, func(s *session) { s.timeframe = interval })
}

func (m *MemoryStore) SetExpiration(userID int64, expiration model.Expiration) error {
	return m.withAuthorized(userID, func(s *session) { s.expiration = expiration })
}

// RecordSignal stores the latest evaluation and reports whether it differs
// from the previous one. Nothing is stored for an unknown user or a pair
// that is no longer watched.
func (m *MemoryStore) RecordSignal(userID int64, symbol model.Symbol, signal model.Signal) bool {
	s := m.lookup(userID)
	if s == nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.watching[symbol] {
		return false
	}

	prev, seen := s.lastSignal[symbol]
	s.lastSignal[symbol] = signal
	return !seen || prev != signal
}

// AuthorizedUsers returns a sorted snapshot of authorized user IDs.
func (m *MemoryStore) AuthorizedUsers() []int64 {
	m.mu.RLock()
	all := make([]*session, 0, len(m.sessions))
	for _, s := range m.sessions {
		all = append(all, s)
	}
	m.mu.RUnlock()

	var ids []int64
	for _, s := range all {
		s.mu.Lock()
		if s.authorized {
			ids = append(ids, s.userID)
		}
		s.mu.Unlock()
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Targets returns the user's timeframe and a copy of the watchlist.
func (m *MemoryStore) Targets(userID int64) (model.Interval, []model.Symbol, bool) {
	s := m.lookup(userID)
	if s == nil {
		return "", nil, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.authorized {
		return "", nil, false
	}
	return s.timeframe, append([]model.Symbol(nil), s.watchlist...), true
}

func (m *MemoryStore) Session(userID int64) (model.UserSession, bool) {
	s := m.lookup(userID)
	if s == nil {
		return model.UserSession{}, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	last := make(map[model.Symbol]model.Signal, len(s.lastSignal))
	for k, v := range s.lastSignal {
		last[k] = v
	}
	return model.UserSession{
		UserID:       s.userID,
		Authorized:   s.authorized,
		Watchlist:    append([]model.Symbol(nil), s.watchlist...),
		Timeframe:    s.timeframe,
		Expiration:   s.expiration,
		LastSignal:   last,
		LastActivity: s.lastActivity,
	}, true
}

// Sweep evicts unauthorized sessions idle for longer than IdleTTL and
// returns how many were removed. Authorized sessions are never evicted.
func (m *MemoryStore) Sweep(now time.Time) int {
	if m.idleTTL <= 0 {
		return 0
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for id, s := range m.sessions {
		s.mu.Lock()
		stale := !s.authorized && now.Sub(s.lastActivity) > m.idleTTL
		s.mu.Unlock()
		if stale {
			delete(m.sessions, id)
			removed++
		}
	}
	if removed > 0 {
		m.logger.Debug().Int("removed", removed).Msg("Evicted idle sessions")
	}
	return removed
}
