package api

import (
	"net/http"
	"strings"

	"github.com/classtrade/classtrade/core/securities"
	"github.com/classtrade/classtrade/core/sessions"
	"github.com/classtrade/classtrade/core/types"
	"github.com/classtrade/classtrade/libs/num"
	"github.com/classtrade/classtrade/logging"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
)

const (
	ResponseKeyResult     = "result"
	ResponseKeyError      = "error"
	ResponseResultSuccess = "success"
	ResponseResultFailure = "failure"
)

// Handlers carries the services every HTTP route needs. Orders and market
// control go through the session registry, listings through the securities
// registry.
type Handlers struct {
	log        *logging.Logger
	Registry   *sessions.Registry
	Securities *securities.Registry
}

func NewHandlers(log *logging.Logger, registry *sessions.Registry, secs *securities.Registry) *Handlers {
	return &Handlers{
		log:        log,
		Registry:   registry,
		Securities: secs,
	}
}

func (h *Handlers) Index(c *gin.Context) {
	c.String(http.StatusOK, "C L A S S T R A D E")
}

type orderRequest struct {
	SecurityID  string `json:"securityId" binding:"required"`
	Party       string `json:"party"      binding:"required"`
	Side        string `json:"side"       binding:"required"`
	Type        string `json:"type"       binding:"required"`
	Size        uint64 `json:"size"       binding:"required"`
	Price       string `json:"price"`
	StopPrice   string `json:"stopPrice"`
	TimeInForce string `json:"timeInForce"`
}

type orderView struct {
	ID          string `json:"id"`
	SessionID   string `json:"sessionId"`
	SecurityID  string `json:"securityId"`
	Party       string `json:"party"`
	Side        string `json:"side"`
	Type        string `json:"type"`
	Price       string `json:"price,omitempty"`
	StopPrice   string `json:"stopPrice,omitempty"`
	Size        uint64 `json:"size"`
	Remaining   uint64 `json:"remaining"`
	TimeInForce string `json:"timeInForce"`
	Status      string `json:"status"`
	Reason      string `json:"reason,omitempty"`
	CreatedAt   int64  `json:"createdAt"`
	UpdatedAt   int64  `json:"updatedAt"`
}

type tradeView struct {
	ID         string `json:"id"`
	SecurityID string `json:"securityId"`
	Price      string `json:"price"`
	Size       uint64 `json:"size"`
	Buyer      string `json:"buyer"`
	Seller     string `json:"seller"`
	Aggressor  string `json:"aggressor"`
	Timestamp  int64  `json:"timestamp"`
}

func viewOrder(o *types.Order) orderView {
	v := orderView{
		ID:          o.ID,
		SessionID:   o.SessionID,
		SecurityID:  o.SecurityID,
		Party:       o.Party,
		Side:        o.Side.String(),
		Type:        o.Type.String(),
		Size:        o.Size,
		Remaining:   o.Remaining,
		TimeInForce: o.TimeInForce.String(),
		Status:      o.Status.String(),
		CreatedAt:   o.CreatedAt,
		UpdatedAt:   o.UpdatedAt,
	}
	if !o.Price.IsZero() {
		v.Price = o.Price.String()
	}
	if !o.StopPrice.IsZero() {
		v.StopPrice = o.StopPrice.String()
	}
	if o.Reason != nil {
		v.Reason = o.Reason.Error()
	}
	return v
}

func viewTrade(t *types.Trade) tradeView {
	return tradeView{
		ID:         t.ID,
		SecurityID: t.SecurityID,
		Price:      t.Price.String(),
		Size:       t.Size,
		Buyer:      t.Buyer,
		Seller:     t.Seller,
		Aggressor:  t.Aggressor.String(),
		Timestamp:  t.Timestamp,
	}
}

func (h *Handlers) SubmitOrder(c *gin.Context) {
	var req orderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		wasFailureWithCode(c, err, http.StatusBadRequest)
		return
	}

	sub, err := req.intoSubmission(c.Param("sessionID"))
	if err != nil {
		wasFailureWithCode(c, err, http.StatusBadRequest)
		return
	}

	session, err := h.Registry.GetOrCreate(sub.SessionID)
	if err != nil {
		wasFailure(c, err)
		return
	}

	confirmation, err := session.Execution.SubmitOrder(c.Request.Context(), sub)
	if err != nil {
		wasFailure(c, err)
		return
	}

	trades := make([]tradeView, 0, len(confirmation.Trades))
	for _, t := range confirmation.Trades {
		trades = append(trades, viewTrade(t))
	}
	wasSuccess(c, gin.H{
		ResponseKeyResult: ResponseResultSuccess,
		"order":           viewOrder(confirmation.Order),
		"trades":          trades,
	})
}

func (req orderRequest) intoSubmission(sessionID string) (types.OrderSubmission, error) {
	sub := types.OrderSubmission{
		SessionID:  sessionID,
		SecurityID: req.SecurityID,
		Party:      req.Party,
		Size:       req.Size,
	}

	var err error
	if sub.Side, err = parseSide(req.Side); err != nil {
		return sub, err
	}
	if sub.Type, err = parseOrderType(req.Type); err != nil {
		return sub, err
	}
	if sub.TimeInForce, err = parseTimeInForce(req.TimeInForce); err != nil {
		return sub, err
	}
	if req.Price != "" {
		price, err := num.DecimalFromString(req.Price)
		if err != nil {
			return sub, errors.Wrap(err, "invalid price")
		}
		sub.Price = &price
	}
	if req.StopPrice != "" {
		stop, err := num.DecimalFromString(req.StopPrice)
		if err != nil {
			return sub, errors.Wrap(err, "invalid stop price")
		}
		sub.StopPrice = &stop
	}
	return sub, nil
}

func parseSide(s string) (types.Side, error) {
	switch strings.ToUpper(s) {
	case "BUY":
		return types.SideBuy, nil
	case "SELL":
		return types.SideSell, nil
	}
	return types.SideUnspecified, types.ErrInvalidSide
}

func parseOrderType(s string) (types.OrderType, error) {
	switch strings.ToUpper(s) {
	case "MARKET":
		return types.OrderTypeMarket, nil
	case "LIMIT":
		return types.OrderTypeLimit, nil
	case "STOP":
		return types.OrderTypeStop, nil
	case "STOP_LIMIT":
		return types.OrderTypeStopLimit, nil
	}
	return 0, types.ErrInvalidType
}

func parseTimeInForce(s string) (types.OrderTimeInForce, error) {
	switch strings.ToUpper(s) {
	case "", "DAY":
		return types.OrderTimeInForceDay, nil
	case "GTC":
		return types.OrderTimeInForceGTC, nil
	}
	return 0, types.ErrInvalidTimeInForce
}

func (h *Handlers) GetOrder(c *gin.Context) {
	session, err := h.Registry.Get(c.Param("sessionID"))
	if err != nil {
		wasFailure(c, err)
		return
	}
	order, err := session.Execution.GetOrder(c.Param("orderID"))
	if err != nil {
		wasFailure(c, err)
		return
	}
	wasSuccess(c, gin.H{ResponseKeyResult: ResponseResultSuccess, "order": viewOrder(order)})
}

func (h *Handlers) CancelOrder(c *gin.Context) {
	session, err := h.Registry.Get(c.Param("sessionID"))
	if err != nil {
		wasFailure(c, err)
		return
	}

	req := types.OrderCancellationRequest{
		SessionID: session.ID,
		OrderID:   c.Param("orderID"),
		Party:     c.Query("party"),
		Elevated:  c.Query("elevated") == "true",
	}
	cancellation, err := session.Execution.CancelOrder(c.Request.Context(), req)
	if err != nil {
		wasFailure(c, err)
		return
	}
	wasSuccess(c, gin.H{ResponseKeyResult: ResponseResultSuccess, "order": viewOrder(cancellation.Order)})
}

func (h *Handlers) GetMarketData(c *gin.Context) {
	session, err := h.Registry.Get(c.Param("sessionID"))
	if err != nil {
		wasFailure(c, err)
		return
	}
	md, err := session.Execution.GetMarketData(c.Param("securityID"))
	if err != nil {
		wasFailure(c, err)
		return
	}

	trades := make([]tradeView, 0, len(md.RecentTrades))
	for _, t := range md.RecentTrades {
		trades = append(trades, viewTrade(t))
	}
	wasSuccess(c, gin.H{
		ResponseKeyResult: ResponseResultSuccess,
		"marketData": gin.H{
			"sessionId":       md.SessionID,
			"securityId":      md.SecurityID,
			"bestBidPrice":    md.BestBidPrice.String(),
			"bestBidVolume":   md.BestBidVolume,
			"bestOfferPrice":  md.BestOfferPrice.String(),
			"bestOfferVolume": md.BestOfferVolume,
			"spread":          md.Spread.String(),
			"lastTradePrice":  md.LastTradePrice.String(),
			"volume":          md.Volume,
			"depth":           md.Depth,
			"recentTrades":    trades,
		},
	})
}

func (h *Handlers) GetPortfolio(c *gin.Context) {
	session, err := h.Registry.Get(c.Param("sessionID"))
	if err != nil {
		wasFailure(c, err)
		return
	}
	snap := session.Ledger.GetPortfolioSnapshot(c.Param("party"), session.MarkPrice())
	wasSuccess(c, gin.H{ResponseKeyResult: ResponseResultSuccess, "portfolio": snap})
}

func (h *Handlers) ListPortfolios(c *gin.Context) {
	session, err := h.Registry.Get(c.Param("sessionID"))
	if err != nil {
		wasFailure(c, err)
		return
	}
	snaps := session.Ledger.AllPortfolioSnapshots(session.MarkPrice())
	wasSuccess(c, gin.H{ResponseKeyResult: ResponseResultSuccess, "portfolios": snaps})
}

func (h *Handlers) GetMarketStatus(c *gin.Context) {
	session, err := h.Registry.Get(c.Param("sessionID"))
	if err != nil {
		wasFailure(c, err)
		return
	}
	info := session.Execution.MarketStatusInfo()
	wasSuccess(c, gin.H{
		ResponseKeyResult: ResponseResultSuccess,
		"status":          info.Status.String(),
		"canOpen":         info.CanOpen,
		"canPause":        info.CanPause,
		"canResume":       info.CanResume,
		"canClose":        info.CanClose,
	})
}

type statusChangeRequest struct {
	Action string `json:"action" binding:"required"`
}

func (h *Handlers) ChangeMarketStatus(c *gin.Context) {
	var req statusChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		wasFailureWithCode(c, err, http.StatusBadRequest)
		return
	}

	session, err := h.Registry.GetOrCreate(c.Param("sessionID"))
	if err != nil {
		wasFailure(c, err)
		return
	}

	ctx := c.Request.Context()
	switch strings.ToLower(req.Action) {
	case "open":
		err = session.Execution.OpenMarket(ctx)
	case "pause":
		err = session.Execution.PauseMarket(ctx)
	case "resume":
		err = session.Execution.ResumeMarket(ctx)
	case "close":
		err = session.Execution.CloseMarket(ctx)
	default:
		wasFailureWithCode(c, errors.Errorf("unknown action %q", req.Action), http.StatusBadRequest)
		return
	}
	if err != nil {
		wasFailure(c, err)
		return
	}
	h.GetMarketStatus(c)
}

func (h *Handlers) ListSessions(c *gin.Context) {
	wasSuccess(c, gin.H{ResponseKeyResult: ResponseResultSuccess, "sessions": h.Registry.List()})
}

func (h *Handlers) DisposeSession(c *gin.Context) {
	if err := h.Registry.Dispose(c.Request.Context(), c.Param("sessionID")); err != nil {
		wasFailure(c, err)
		return
	}
	wasSuccess(c, gin.H{ResponseKeyResult: ResponseResultSuccess})
}

func (h *Handlers) ListSecurities(c *gin.Context) {
	all := h.Securities.All()
	out := make([]gin.H, 0, len(all))
	for _, s := range all {
		out = append(out, gin.H{
			"id":       s.ID,
			"symbol":   s.Symbol,
			"name":     s.Name,
			"tickSize": s.TickSize.String(),
			"tradable": s.Tradable,
		})
	}
	wasSuccess(c, gin.H{ResponseKeyResult: ResponseResultSuccess, "securities": out})
}

type tradableRequest struct {
	Tradable *bool `json:"tradable" binding:"required"`
}

func (h *Handlers) SetSecurityTradable(c *gin.Context) {
	var req tradableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		wasFailureWithCode(c, err, http.StatusBadRequest)
		return
	}
	if err := h.Securities.SetTradable(c.Param("securityID"), *req.Tradable); err != nil {
		wasFailure(c, err)
		return
	}
	wasSuccess(c, gin.H{ResponseKeyResult: ResponseResultSuccess})
}

func wasSuccess(c *gin.Context, body gin.H) {
	c.JSON(http.StatusOK, body)
}

func wasFailure(c *gin.Context, err error) {
	wasFailureWithCode(c, err, statusForError(err))
}

func wasFailureWithCode(c *gin.Context, err error, code int) {
	c.JSON(code, gin.H{ResponseKeyResult: ResponseResultFailure, ResponseKeyError: err.Error()})
}

// statusForError maps the engine's sentinel errors onto HTTP codes. Unknown
// errors are treated as bad requests, the engines never fail internally
// without panicking.
func statusForError(err error) int {
	switch {
	case errors.Is(err, types.ErrSessionNotFound),
		errors.Is(err, types.ErrOrderNotFound),
		errors.Is(err, types.ErrInvalidSecurityID):
		return http.StatusNotFound
	case errors.Is(err, types.ErrNotOrderOwner):
		return http.StatusForbidden
	case errors.Is(err, types.ErrMarketNotOpen),
		errors.Is(err, types.ErrMarketClosed),
		errors.Is(err, types.ErrInvalidMarketStatusChange),
		errors.Is(err, types.ErrOrderNotCancellable),
		errors.Is(err, types.ErrMarketOrderCannotFill):
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}
