package types

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rxtech-lab/equity-trader/pkg/errors"
)

type OrderAction string

type OrderKind string

type OrderStatus string

type TimeInForce string

const (
	OrderActionBuy  OrderAction = "BUY"
	OrderActionSell OrderAction = "SELL"
)

const (
	OrderKindLimit        OrderKind = "LIMIT"
	OrderKindTrailingStop OrderKind = "TRAILING_STOP"
	OrderKindMarket       OrderKind = "MARKET"
)

const (
	OrderStatusPendingSubmit   OrderStatus = "PENDING_SUBMIT"
	OrderStatusSubmitted       OrderStatus = "SUBMITTED"
	OrderStatusPartiallyFilled OrderStatus = "PARTIALLY_FILLED"
	OrderStatusFilled          OrderStatus = "FILLED"
	OrderStatusCancelled       OrderStatus = "CANCELLED"
	OrderStatusRejected        OrderStatus = "REJECTED"
	OrderStatusExpired         OrderStatus = "EXPIRED"
)

const (
	TimeInForceDay TimeInForce = "DAY"
	TimeInForceGTC TimeInForce = "GTC"
)

// IsLive reports whether an order in this status can still execute.
func (s OrderStatus) IsLive() bool {
	switch s {
	case OrderStatusFilled, OrderStatusCancelled, OrderStatusRejected, OrderStatusExpired:
		return false
	default:
		return true
	}
}

// Contract identifies the instrument an order or subscription refers to.
type Contract struct {
	Symbol       string `json:"symbol" validate:"required"`
	SecurityType string `json:"security_type"`
	Exchange     string `json:"exchange"`
	Currency     string `json:"currency"`
	// ContractID is the gateway's opaque identifier, empty until the gateway reports it.
	ContractID string `json:"contract_id"`
}

// StockContract returns a US equity contract routed through smart routing.
func StockContract(symbol string) Contract {
	return Contract{
		Symbol:       symbol,
		SecurityType: "STK",
		Exchange:     "SMART",
		Currency:     "USD",
		ContractID:   "",
	}
}

// OrderSpec describes an order to submit.
type OrderSpec struct {
	Action       OrderAction `json:"action" validate:"required,oneof=BUY SELL"`
	Kind         OrderKind   `json:"kind" validate:"required,oneof=LIMIT TRAILING_STOP MARKET"`
	Quantity     float64     `json:"quantity" validate:"gt=0"`
	LimitPrice   float64     `json:"limit_price" validate:"gte=0"`
	TrailPercent float64     `json:"trail_percent" validate:"gte=0,lt=100"`
	TimeInForce  TimeInForce `json:"time_in_force" validate:"required,oneof=DAY GTC"`
}

// Validate validates the OrderSpec struct.
func (s *OrderSpec) Validate() error {
	validate := validator.New()
	if err := validate.Struct(s); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidOrder, "invalid order spec", err)
	}

	switch s.Kind {
	case OrderKindLimit:
		if s.LimitPrice <= 0 {
			return errors.Newf(errors.ErrCodeInvalidOrder, "limit order requires a positive limit price, got %v", s.LimitPrice)
		}
	case OrderKindTrailingStop:
		if s.TrailPercent <= 0 {
			return errors.Newf(errors.ErrCodeInvalidOrder, "trailing stop requires a positive trail percent, got %v", s.TrailPercent)
		}
	case OrderKindMarket:
	}

	return nil
}

// Order is a submitted or gateway-reported order.
type Order struct {
	RequestID    int64       `json:"request_id" yaml:"request_id"`
	Symbol       string      `json:"symbol" yaml:"symbol"`
	Action       OrderAction `json:"action" yaml:"action"`
	Kind         OrderKind   `json:"kind" yaml:"kind"`
	Quantity     float64     `json:"quantity" yaml:"quantity"`
	LimitPrice   float64     `json:"limit_price" yaml:"limit_price"`
	TrailPercent float64     `json:"trail_percent" yaml:"trail_percent"`
	Status       OrderStatus `json:"status" yaml:"status"`
	SubmittedAt  time.Time   `json:"submitted_at" yaml:"submitted_at"`
}

// NewOrderFromSpec builds the local record of an order about to be submitted.
func NewOrderFromSpec(requestID int64, symbol string, spec OrderSpec, at time.Time) Order {
	return Order{
		RequestID:    requestID,
		Symbol:       symbol,
		Action:       spec.Action,
		Kind:         spec.Kind,
		Quantity:     spec.Quantity,
		LimitPrice:   spec.LimitPrice,
		TrailPercent: spec.TrailPercent,
		Status:       OrderStatusPendingSubmit,
		SubmittedAt:  at,
	}
}
