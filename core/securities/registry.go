package securities

import (
	"sort"
	"sync"

	"github.com/classtrade/classtrade/core/types"
	"github.com/classtrade/classtrade/libs/num"
	"github.com/classtrade/classtrade/logging"
)

// Security holds the static trading parameters of one listed security within
// a session.
type Security struct {
	ID       string
	Symbol   string
	Name     string
	TickSize num.Decimal
	Tradable bool
}

func (s *Security) Clone() *Security {
	cpy := *s
	return &cpy
}

// Registry maps security ids to their trading parameters. Read-mostly: the
// execution engine consults it on every submission, listings change rarely.
type Registry struct {
	log *logging.Logger

	mu         sync.RWMutex
	securities map[string]*Security
}

func NewRegistry(log *logging.Logger, config Config) *Registry {
	log = log.Named(namedLogger)
	log.SetLevel(config.Level.Get())

	return &Registry{
		log:        log,
		securities: map[string]*Security{},
	}
}

// List adds or replaces a security.
func (r *Registry) List(s *Security) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.securities[s.ID] = s.Clone()
	r.log.Info("security listed",
		logging.SecurityID(s.ID),
		logging.String("symbol", s.Symbol),
		logging.Decimal("tick-size", s.TickSize),
		logging.Bool("tradable", s.Tradable),
	)
}

// Get returns a copy of the security, or ErrInvalidSecurityID.
func (r *Registry) Get(id string) (*Security, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.securities[id]
	if !ok {
		return nil, types.ErrInvalidSecurityID
	}
	return s.Clone(), nil
}

// SetTradable flips the tradability flag for a listed security.
func (r *Registry) SetTradable(id string, tradable bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.securities[id]
	if !ok {
		return types.ErrInvalidSecurityID
	}
	s.Tradable = tradable
	return nil
}

// All returns a copy of every listed security, sorted by id.
func (r *Registry) All() []*Security {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Security, 0, len(r.securities))
	for _, s := range r.securities {
		out = append(out, s.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ValidatePrice rejects prices that are not positive multiples of the
// security's tick size.
func (r *Registry) ValidatePrice(id string, price num.Decimal) error {
	s, err := r.Get(id)
	if err != nil {
		return err
	}
	if !price.IsPositive() {
		return types.ErrInvalidPrice
	}
	if !price.Mod(s.TickSize).IsZero() {
		return types.ErrPriceNotTickMultiple
	}
	return nil
}
