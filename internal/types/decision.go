package types

import (
	"time"

	"github.com/moznion/go-optional"
)

// DecisionAction is the outcome of evaluating one candidate or position.
type DecisionAction string

const (
	DecisionActionBuy  DecisionAction = "BUY"
	DecisionActionSell DecisionAction = "SELL"
	DecisionActionSkip DecisionAction = "SKIP"
)

// DecisionReason explains a decision. Skips always carry one of the skip reasons.
type DecisionReason string

const (
	DecisionReasonEntry      DecisionReason = "entry"
	DecisionReasonTakeProfit DecisionReason = "take_profit"
	DecisionReasonStopLoss   DecisionReason = "stop_loss"

	DecisionReasonNoData                DecisionReason = "no_data"
	DecisionReasonConditionsNotMet      DecisionReason = "conditions_not_met"
	DecisionReasonDuplicateOrder        DecisionReason = "duplicate_order"
	DecisionReasonMarketClosed          DecisionReason = "market_closed"
	DecisionReasonInsufficientLiquidity DecisionReason = "insufficient_liquidity"
	DecisionReasonAlreadyHeld           DecisionReason = "already_held"
	DecisionReasonTooExpensive          DecisionReason = "too_expensive"
	DecisionReasonSubmitFailed          DecisionReason = "submit_failed"
)

// Decision records what the engine did with a candidate or position in one pass.
type Decision struct {
	Time      time.Time              `json:"time"`
	Symbol    string                 `json:"symbol"`
	Action    DecisionAction         `json:"action"`
	Kind      OrderKind              `json:"kind,omitempty"`
	Quantity  float64                `json:"quantity,omitempty"`
	Price     float64                `json:"price,omitempty"`
	RequestID optional.Option[int64] `json:"request_id"`
	Reason    DecisionReason         `json:"reason"`
	Message   string                 `json:"message"`
}

// IsSubmission reports whether the decision resulted in an order.
func (d Decision) IsSubmission() bool {
	return d.Action == DecisionActionBuy || d.Action == DecisionActionSell
}

// SkipDecision builds a SKIP decision.
func SkipDecision(at time.Time, symbol string, reason DecisionReason, message string) Decision {
	return Decision{
		Time:      at,
		Symbol:    symbol,
		Action:    DecisionActionSkip,
		Kind:      "",
		Quantity:  0,
		Price:     0,
		RequestID: optional.None[int64](),
		Reason:    reason,
		Message:   message,
	}
}
