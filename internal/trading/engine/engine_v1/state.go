package engine_v1

import (
	"sync"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/equity-trader/internal/types"
	"github.com/rxtech-lab/equity-trader/pkg/errors"
)

// SessionState is the state shared between event ingestion and decision cycles.
//
// mu guards every map, the account metrics and the request-id counter. It is
// never held across a gateway call. requestMu serializes "allocate an id and
// issue the request" so ids reach the gateway in allocation order; it is always
// acquired before mu, never after.
type SessionState struct {
	mu        sync.Mutex
	requestMu sync.Mutex

	nextID int64
	seeded bool

	// candidates by symbol, marketData maps a market-data request id to its symbol.
	candidates map[string]*types.Candidate
	marketData map[int64]string

	positions map[string]types.Position
	// pnlIDs binds a ticker to its PnL subscription for the whole session.
	pnlIDs     map[string]int64
	pnlSymbols map[int64]string

	positionStaging map[string]types.Position
	positionDone    chan struct{}
	// positionStale counts abandoned position requests whose rows and end
	// marker may still arrive; each stale end marker discards the staged rows.
	positionStale int

	orders        map[int64]types.Order
	localOrders   map[int64]uint64
	orderStaging  map[int64]types.Order
	orderDone     chan struct{}
	orderRefresh  uint64
	orderInFlight uint64
	orderStale    int

	account    types.AccountState
	accountIDs map[int64]types.AccountMetric
	pnlAccount optional.Option[int64]
}

// NewSessionState returns an empty state with an unseeded allocator.
func NewSessionState() *SessionState {
	return &SessionState{
		mu:              sync.Mutex{},
		requestMu:       sync.Mutex{},
		nextID:          0,
		seeded:          false,
		candidates:      map[string]*types.Candidate{},
		marketData:      map[int64]string{},
		positions:       map[string]types.Position{},
		pnlIDs:          map[string]int64{},
		pnlSymbols:      map[int64]string{},
		positionStaging: nil,
		positionDone:    nil,
		positionStale:   0,
		orders:          map[int64]types.Order{},
		localOrders:     map[int64]uint64{},
		orderStaging:    nil,
		orderDone:       nil,
		orderRefresh:    0,
		orderInFlight:   0,
		orderStale:      0,
		account:         types.NewAccountState(),
		accountIDs:      map[int64]types.AccountMetric{},
		pnlAccount:      optional.None[int64](),
	}
}

// SeedRequestIDs moves the allocator to at least next.
// Re-seeding with a lower value after a reconnect never rewinds the counter.
func (s *SessionState) SeedRequestIDs(next int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.seeded || next > s.nextID {
		s.nextID = next
	}

	s.seeded = true
}

// IsSeeded reports whether a next valid id has been received.
func (s *SessionState) IsSeeded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.seeded
}

// NextRequestID returns the current id and advances the counter by one.
func (s *SessionState) NextRequestID() (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.seeded {
		return 0, errors.New(errors.ErrCodeNotConnected, "request ids are not seeded, no next valid id received")
	}

	id := s.nextID
	s.nextID++

	return id, nil
}

// Issue allocates an id and calls send with it while holding the request mutex.
// The id is consumed even when send fails.
func (s *SessionState) Issue(send func(requestID int64) error) (int64, error) {
	return s.IssueGuarded(nil, send)
}

// IssueGuarded is Issue preceded by guard under the same request mutex, so a
// check and the request it allows cannot interleave with another issuer. A
// failing guard returns its error and consumes no id.
func (s *SessionState) IssueGuarded(guard func() error, send func(requestID int64) error) (int64, error) {
	s.requestMu.Lock()
	defer s.requestMu.Unlock()

	if guard != nil {
		if err := guard(); err != nil {
			return 0, err
		}
	}

	id, err := s.NextRequestID()
	if err != nil {
		return 0, err
	}

	return id, send(id)
}

// Reissue calls send with an already allocated id under the request mutex.
// Used to restore subscriptions after a reconnect.
func (s *SessionState) Reissue(requestID int64, send func(requestID int64) error) error {
	s.requestMu.Lock()
	defer s.requestMu.Unlock()

	return send(requestID)
}

// SetAccountMetric records a streamed account value.
func (s *SessionState) SetAccountMetric(metric types.AccountMetric, value float64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch metric {
	case types.AccountMetricExcessLiquidity:
		s.account.ExcessLiquidity = optional.Some(value)
	case types.AccountMetricNetLiquidation:
		s.account.NetLiquidation = optional.Some(value)
	default:
		return false
	}

	return true
}

// SetAccountDailyPnL records the account-wide daily PnL.
func (s *SessionState) SetAccountDailyPnL(value float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.account.DailyPnL = optional.Some(value)
}

// Account returns the latest account metrics.
func (s *SessionState) Account() types.AccountState {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.account
}

// bindAccountMetric remembers the subscription id of an account metric.
func (s *SessionState) bindAccountMetric(requestID int64, metric types.AccountMetric) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.accountIDs[requestID] = metric
}

// bindAccountPnl remembers the subscription id of the account PnL stream.
func (s *SessionState) bindAccountPnl(requestID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pnlAccount = optional.Some(requestID)
}

// accountSubscriptions returns the ids of the account streams, for resubscription.
func (s *SessionState) accountSubscriptions() (map[int64]types.AccountMetric, optional.Option[int64]) {
	s.mu.Lock()
	defer s.mu.Unlock()

	metrics := make(map[int64]types.AccountMetric, len(s.accountIDs))
	for id, metric := range s.accountIDs {
		metrics[id] = metric
	}

	return metrics, s.pnlAccount
}
