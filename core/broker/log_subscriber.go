package broker

import (
	"github.com/classtrade/classtrade/core/events"
	"github.com/classtrade/classtrade/logging"
)

// LogSubscriber writes every event it receives to the log. It is wired by
// default so a session can be followed from the service logs alone; richer
// consumers (websockets, persistence) subscribe the same way.
type LogSubscriber struct {
	log *logging.Logger
	id  int
}

func NewLogSubscriber(log *logging.Logger) *LogSubscriber {
	return &LogSubscriber{log: log.Named("events")}
}

// Types returns nil, the subscriber receives everything.
func (s *LogSubscriber) Types() []events.Type { return nil }

func (s *LogSubscriber) SetID(id int) { s.id = id }
func (s *LogSubscriber) ID() int      { return s.id }

func (s *LogSubscriber) Push(evts ...events.Event) {
	for _, e := range evts {
		switch evt := e.(type) {
		case *events.Order:
			o := evt.Order()
			s.log.Debug("order",
				logging.SessionID(e.SessionID()),
				logging.OrderID(o.ID),
				logging.PartyID(o.Party),
				logging.String("status", o.Status.String()),
				logging.Uint64("remaining", o.Remaining),
			)
		case *events.Trade:
			t := evt.Trade()
			s.log.Info("trade",
				logging.SessionID(e.SessionID()),
				logging.SecurityID(t.SecurityID),
				logging.Decimal("price", t.Price),
				logging.Uint64("size", t.Size),
				logging.PartyID(t.Buyer),
				logging.PartyID(t.Seller),
			)
		case *events.Position:
			pos := evt.Position()
			s.log.Debug("position",
				logging.SessionID(e.SessionID()),
				logging.PartyID(pos.Party()),
				logging.SecurityID(pos.SecurityID()),
				logging.Int64("open-volume", pos.OpenVolume()),
			)
		case *events.MarketStatus:
			s.log.Info("market status",
				logging.SessionID(e.SessionID()),
				logging.String("from", evt.PreviousStatus().String()),
				logging.String("to", evt.Status().String()),
			)
		}
	}
}
