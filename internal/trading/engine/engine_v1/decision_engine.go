package engine_v1

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/equity-trader/internal/config"
	"github.com/rxtech-lab/equity-trader/internal/logger"
	tradingprovider "github.com/rxtech-lab/equity-trader/internal/trading/provider"
	"github.com/rxtech-lab/equity-trader/internal/types"
	"github.com/rxtech-lab/equity-trader/pkg/errors"
	"go.uber.org/zap"
)

const (
	// MinExcessLiquidity is the buying power the candidate pass needs to exceed.
	MinExcessLiquidity = 1000.0
	// MinRating is the rating a candidate needs to exceed to be bought.
	MinRating = 8.0
)

// AuditLog receives one line per buy, loss exit and profit exit.
type AuditLog interface {
	RecordBuy(at time.Time, description string) error
	RecordLoss(at time.Time, description string) error
	RecordProfit(at time.Time, description string) error
}

// DecisionEngine turns the tracked state into buy and sell orders.
type DecisionEngine struct {
	state      *SessionState
	candidates *CandidateTracker
	positions  *PositionTracker
	orders     *OrderTracker
	gateway    tradingprovider.Gateway
	thresholds config.TradingConfig
	audit      AuditLog
	log        *logger.Logger
	now        func() time.Time
}

// NewDecisionEngine creates a decision engine. audit may be nil.
func NewDecisionEngine(
	state *SessionState,
	candidates *CandidateTracker,
	positions *PositionTracker,
	orders *OrderTracker,
	gateway tradingprovider.Gateway,
	thresholds config.TradingConfig,
	audit AuditLog,
	log *logger.Logger,
) *DecisionEngine {
	return &DecisionEngine{
		state:      state,
		candidates: candidates,
		positions:  positions,
		orders:     orders,
		gateway:    gateway,
		thresholds: thresholds,
		audit:      audit,
		log:        log,
		now:        time.Now,
	}
}

// TargetPrice is anchor - anchor*drawdown/100 where the anchor is the first
// known of open, close and last. It is None while no anchor or no drawdown is known.
func TargetPrice(candidate types.Candidate) optional.Option[float64] {
	drawdown, err := candidate.AvgDrawdownPct.Take()
	if err != nil {
		return optional.None[float64]()
	}

	for _, price := range []types.Price{candidate.Open, candidate.Close, candidate.Last} {
		if anchor, ok := price.Value(); ok {
			return optional.Some(anchor - anchor*drawdown/100)
		}
	}

	return optional.None[float64]()
}

// EvaluateCandidates runs the buy pass over every candidate, best rating first.
func (d *DecisionEngine) EvaluateCandidates(ctx context.Context) []types.Decision {
	now := d.now()

	liquidity, err := d.state.Account().ExcessLiquidity.Take()
	if err != nil {
		return []types.Decision{d.skip(now, "", types.DecisionReasonInsufficientLiquidity, "excess liquidity unknown")}
	}

	if liquidity <= MinExcessLiquidity {
		return []types.Decision{d.skip(now, "", types.DecisionReasonInsufficientLiquidity,
			fmt.Sprintf("excess liquidity %.2f is not above %.2f", liquidity, MinExcessLiquidity))}
	}

	candidates := d.candidates.Candidates()
	SortByRating(candidates)

	decisions := make([]types.Decision, 0, len(candidates))
	for _, candidate := range candidates {
		decisions = append(decisions, d.evaluateCandidate(ctx, now, candidate))
	}

	return decisions
}

// EvaluatePositions runs the exit pass over every open position.
// Positions inside the thresholds produce no decision.
func (d *DecisionEngine) EvaluatePositions(ctx context.Context) []types.Decision {
	now := d.now()

	var decisions []types.Decision

	for _, position := range d.positions.Positions() {
		if decision, ok := d.evaluatePosition(ctx, now, position); ok {
			decisions = append(decisions, decision)
		}
	}

	return decisions
}

// SortByRating orders candidates by rating, highest first. Unknown ratings sort
// last and ties keep their current order.
func SortByRating(candidates []types.Candidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		ri, errI := candidates[i].Rating.Take()
		rj, errJ := candidates[j].Rating.Take()

		switch {
		case errI != nil:
			return false
		case errJ != nil:
			return true
		default:
			return ri > rj
		}
	})
}

func (d *DecisionEngine) evaluateCandidate(ctx context.Context, now time.Time, candidate types.Candidate) types.Decision {
	symbol := candidate.Symbol

	if d.positions.IsHeld(symbol) {
		return d.skip(now, symbol, types.DecisionReasonAlreadyHeld, "position already held")
	}

	if d.orders.HasLiveOrder(symbol) {
		return d.skip(now, symbol, types.DecisionReasonDuplicateOrder, "order already exists")
	}

	if candidate.Ask.IsClosed() {
		return d.skip(now, symbol, types.DecisionReasonMarketClosed, "market closed for "+symbol)
	}

	ask, ok := candidate.Ask.Value()
	if !ok || ask <= 0 {
		return d.skip(now, symbol, types.DecisionReasonNoData, "ask price unknown")
	}

	target, err := candidate.Target.Take()
	if err != nil {
		return d.skip(now, symbol, types.DecisionReasonNoData, "target price unknown")
	}

	rating, err := candidate.Rating.Take()
	if err != nil {
		return d.skip(now, symbol, types.DecisionReasonNoData, "rating unknown")
	}

	if ask >= target || rating <= MinRating {
		return d.skip(now, symbol, types.DecisionReasonConditionsNotMet, conditionsMessage(ask, target, rating))
	}

	shares := math.Floor(d.thresholds.BulkAmountUSD / ask)
	if shares <= 0 {
		return d.skip(now, symbol, types.DecisionReasonTooExpensive,
			fmt.Sprintf("ask %.2f exceeds bulk amount %.2f", ask, d.thresholds.BulkAmountUSD))
	}

	spec := types.OrderSpec{
		Action:       types.OrderActionBuy,
		Kind:         types.OrderKindLimit,
		Quantity:     shares,
		LimitPrice:   ask,
		TrailPercent: 0,
		TimeInForce:  types.TimeInForceDay,
	}

	requestID, err := d.submit(ctx, now, symbol, "", spec)
	if errors.HasCode(err, errors.ErrCodeDuplicateOrder) {
		return d.skip(now, symbol, types.DecisionReasonDuplicateOrder, "order already exists")
	}

	if err != nil {
		decision := d.skip(now, symbol, types.DecisionReasonSubmitFailed, err.Error())
		if requestID != 0 {
			decision.RequestID = optional.Some(requestID)
		}

		return decision
	}

	description := fmt.Sprintf("BUY %g %s @ %.2f (target %.2f, rating %.1f, request %d)", shares, symbol, ask, target, rating, requestID)
	d.log.Info("Buy order submitted",
		zap.String("symbol", symbol),
		zap.Float64("shares", shares),
		zap.Float64("ask", ask),
		zap.Float64("target", target),
		zap.Float64("rating", rating),
		zap.Int64("request_id", requestID),
	)
	d.recordAudit(d.auditBuy, now, description)

	return types.Decision{
		Time:      now,
		Symbol:    symbol,
		Action:    types.DecisionActionBuy,
		Kind:      types.OrderKindLimit,
		Quantity:  shares,
		Price:     ask,
		RequestID: optional.Some(requestID),
		Reason:    types.DecisionReasonEntry,
		Message:   description,
	}
}

func (d *DecisionEngine) evaluatePosition(ctx context.Context, now time.Time, position types.Position) (types.Decision, bool) {
	symbol := position.Symbol

	if d.orders.HasLiveOrder(symbol) {
		return d.skip(now, symbol, types.DecisionReasonDuplicateOrder, "order already exists"), true
	}

	profitPct, ok := position.ProfitPct()
	if !ok {
		return d.skip(now, symbol, types.DecisionReasonNoData, "position value or unrealized pnl unknown"), true
	}

	if position.Shares < 0 {
		return d.skip(now, symbol, types.DecisionReasonConditionsNotMet, "short positions are not managed"), true
	}

	var (
		spec   types.OrderSpec
		reason types.DecisionReason
		record func(time.Time, string) error
	)

	switch {
	case profitPct > d.thresholds.ProfitPct:
		spec = types.OrderSpec{
			Action:       types.OrderActionSell,
			Kind:         types.OrderKindTrailingStop,
			Quantity:     position.Shares,
			LimitPrice:   0,
			TrailPercent: d.thresholds.TrailPct,
			TimeInForce:  types.TimeInForceGTC,
		}
		reason = types.DecisionReasonTakeProfit
		record = d.auditProfit
	case profitPct < d.thresholds.LossPct:
		spec = types.OrderSpec{
			Action:       types.OrderActionSell,
			Kind:         types.OrderKindMarket,
			Quantity:     position.Shares,
			LimitPrice:   0,
			TrailPercent: 0,
			TimeInForce:  types.TimeInForceDay,
		}
		reason = types.DecisionReasonStopLoss
		record = d.auditLoss
	default:
		return types.Decision{}, false //nolint:exhaustruct // no decision
	}

	requestID, err := d.submit(ctx, now, symbol, position.ContractID, spec)
	if errors.HasCode(err, errors.ErrCodeDuplicateOrder) {
		return d.skip(now, symbol, types.DecisionReasonDuplicateOrder, "order already exists"), true
	}

	if err != nil {
		decision := d.skip(now, symbol, types.DecisionReasonSubmitFailed, err.Error())
		if requestID != 0 {
			decision.RequestID = optional.Some(requestID)
		}

		return decision, true
	}

	price := 0.0
	if value, err := position.Value.Take(); err == nil && position.Shares != 0 {
		price = value / position.Shares
	}

	var description string
	if reason == types.DecisionReasonTakeProfit {
		description = fmt.Sprintf("SELL %g %s trailing stop %.2f%% at profit %.2f%% (avg cost %.2f, request %d)",
			position.Shares, symbol, d.thresholds.TrailPct, profitPct, position.AvgCost, requestID)
	} else {
		description = fmt.Sprintf("SELL %g %s at market at loss %.2f%% (avg cost %.2f, request %d)",
			position.Shares, symbol, profitPct, position.AvgCost, requestID)
	}

	d.log.Info("Sell order submitted",
		zap.String("symbol", symbol),
		zap.String("reason", string(reason)),
		zap.Float64("shares", position.Shares),
		zap.Float64("profit_pct", profitPct),
		zap.Int64("request_id", requestID),
	)
	d.recordAudit(record, now, description)

	return types.Decision{
		Time:      now,
		Symbol:    symbol,
		Action:    types.DecisionActionSell,
		Kind:      spec.Kind,
		Quantity:  spec.Quantity,
		Price:     price,
		RequestID: optional.Some(requestID),
		Reason:    reason,
		Message:   description,
	}, true
}

// submit allocates an id, records the order as live and hands it to the gateway.
// The live-order check is repeated under the request mutex, so two evaluations
// of one ticker never both submit; the loser gets ErrCodeDuplicateOrder.
// A failed submission keeps its id consumed and marks the local order rejected.
func (d *DecisionEngine) submit(ctx context.Context, now time.Time, symbol, contractID string, spec types.OrderSpec) (int64, error) {
	if err := spec.Validate(); err != nil {
		return 0, err
	}

	contract := types.StockContract(symbol)
	contract.ContractID = contractID

	recorded := false

	noLiveOrder := func() error {
		if d.orders.HasLiveOrder(symbol) {
			return errors.Newf(errors.ErrCodeDuplicateOrder, "order already exists for %s", symbol)
		}

		return nil
	}

	requestID, err := d.state.IssueGuarded(noLiveOrder, func(requestID int64) error {
		d.orders.RecordSubmitted(types.NewOrderFromSpec(requestID, symbol, spec, now))
		recorded = true

		return d.gateway.SubmitOrder(ctx, requestID, contract, spec)
	})
	if errors.HasCode(err, errors.ErrCodeDuplicateOrder) && !recorded {
		return 0, err
	}

	if err != nil {
		if recorded {
			d.orders.MarkRejected(requestID)
		}

		d.log.Warn("Order submission failed",
			zap.String("symbol", symbol),
			zap.Int64("request_id", requestID),
			zap.Error(err),
		)

		return requestID, err
	}

	return requestID, nil
}

func (d *DecisionEngine) skip(now time.Time, symbol string, reason types.DecisionReason, message string) types.Decision {
	d.log.Info("Skipping",
		zap.String("symbol", symbol),
		zap.String("reason", string(reason)),
		zap.String("message", message),
	)

	return types.SkipDecision(now, symbol, reason, message)
}

func (d *DecisionEngine) recordAudit(record func(time.Time, string) error, at time.Time, description string) {
	if err := record(at, description); err != nil {
		d.log.Warn("Failed to write audit line", zap.Error(err))
	}
}

func (d *DecisionEngine) auditBuy(at time.Time, description string) error {
	if d.audit == nil {
		return nil
	}

	return d.audit.RecordBuy(at, description)
}

func (d *DecisionEngine) auditLoss(at time.Time, description string) error {
	if d.audit == nil {
		return nil
	}

	return d.audit.RecordLoss(at, description)
}

func (d *DecisionEngine) auditProfit(at time.Time, description string) error {
	if d.audit == nil {
		return nil
	}

	return d.audit.RecordProfit(at, description)
}

func conditionsMessage(ask, target, rating float64) string {
	parts := make([]string, 0, 2)

	if ask >= target {
		parts = append(parts, fmt.Sprintf("ask %.2f is %.2f above target %.2f", ask, ask-target, target))
	} else {
		parts = append(parts, fmt.Sprintf("ask %.2f is %.2f below target %.2f", ask, target-ask, target))
	}

	if rating <= MinRating {
		parts = append(parts, fmt.Sprintf("rating %.1f is %.1f short of exceeding %.0f", rating, MinRating-rating, MinRating))
	} else {
		parts = append(parts, fmt.Sprintf("rating %.1f exceeds %.0f", rating, MinRating))
	}

	return strings.Join(parts, "; ")
}
