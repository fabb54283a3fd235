package sessions

import (
	"context"
	"sort"
	"sync"

	"github.com/classtrade/classtrade/core/broker"
	"github.com/classtrade/classtrade/core/execution"
	"github.com/classtrade/classtrade/core/portfolio"
	"github.com/classtrade/classtrade/core/securities"
	"github.com/classtrade/classtrade/core/types"
	"github.com/classtrade/classtrade/logging"
)

// Session bundles the engines of one classroom session. The execution
// engine and ledger are created together and only ever paired with each
// other.
type Session struct {
	ID        string
	Execution *execution.Engine
	Ledger    *portfolio.Ledger
}

// MarkPrice adapts the session's execution engine into the price source
// the ledger marks portfolios with.
func (s *Session) MarkPrice() portfolio.MarkPriceSource {
	return s.Execution.MarkPrice
}

// Registry is the root of all live sessions. It is the only structure
// shared across sessions, everything below a Session is isolated. Lookup
// and creation share one mutex so two concurrent requests for a new
// session ID converge on one Session.
type Registry struct {
	log *logging.Logger
	Config

	securities *securities.Registry
	broker     *broker.Broker

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewRegistry instantiates the session registry. The securities registry
// and broker are shared by every session it creates.
func NewRegistry(
	log *logging.Logger,
	config Config,
	registry *securities.Registry,
	broker *broker.Broker,
) *Registry {
	log = log.Named(namedLogger)
	log.SetLevel(config.Level.Get())

	return &Registry{
		log:        log,
		Config:     config,
		securities: registry,
		broker:     broker,
		sessions:   map[string]*Session{},
	}
}

// GetOrCreate returns the session for the given ID, creating it on first
// use. A fresh session starts with a PENDING market.
func (r *Registry) GetOrCreate(sessionID string) (*Session, error) {
	if len(sessionID) == 0 {
		return nil, types.ErrInvalidSessionID
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[sessionID]; ok {
		return s, nil
	}

	ledger := portfolio.NewLedger(r.log, r.Config.Portfolio, sessionID, r.broker)
	s := &Session{
		ID:        sessionID,
		Execution: execution.NewEngine(r.log, r.Config.Execution, sessionID, r.securities, ledger, r.broker),
		Ledger:    ledger,
	}
	r.sessions[sessionID] = s

	r.log.Info("session created", logging.SessionID(sessionID))
	return s, nil
}

// GetOrCreateOpen returns the session for the given ID with a trading
// market: created on first use, and opened if it is still PENDING. Used to
// lazily open a market for a session that is active but never explicitly
// opened. Idempotent for sessions already open.
func (r *Registry) GetOrCreateOpen(ctx context.Context, sessionID string) (*Session, error) {
	s, err := r.GetOrCreate(sessionID)
	if err != nil {
		return nil, err
	}
	if s.Execution.MarketStatus() == types.MarketStatusPending {
		if err := s.Execution.OpenMarket(ctx); err != nil && err != types.ErrInvalidMarketStatusChange {
			return nil, err
		}
	}
	return s, nil
}

// Get returns an existing session or ErrSessionNotFound.
func (r *Registry) Get(sessionID string) (*Session, error) {
	if len(sessionID) == 0 {
		return nil, types.ErrInvalidSessionID
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[sessionID]; ok {
		return s, nil
	}
	return nil, types.ErrSessionNotFound
}

// Dispose closes the session's market if it is still trading and removes
// the session from the registry. Its state becomes unreachable.
func (r *Registry) Dispose(ctx context.Context, sessionID string) error {
	r.mu.Lock()
	s, ok := r.sessions[sessionID]
	if !ok {
		r.mu.Unlock()
		return types.ErrSessionNotFound
	}
	delete(r.sessions, sessionID)
	r.mu.Unlock()

	switch s.Execution.MarketStatus() {
	case types.MarketStatusOpen, types.MarketStatusPaused:
		if err := s.Execution.CloseMarket(ctx); err != nil {
			return err
		}
	}
	r.log.Info("session disposed", logging.SessionID(sessionID))
	return nil
}

// List returns the IDs of all live sessions, sorted.
func (r *Registry) List() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := make([]string, 0, len(r.sessions))
	for id := range r.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
