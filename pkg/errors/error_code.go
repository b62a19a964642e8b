package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Validation errors (100-199)
	ErrCodeInvalidParameter     ErrorCode = 100
	ErrCodeInvalidConfiguration ErrorCode = 101
	ErrCodeInvalidThreshold     ErrorCode = 102
	ErrCodeInvalidOrder         ErrorCode = 103
	ErrCodeMissingParameter     ErrorCode = 104
	ErrCodeInvalidVersion       ErrorCode = 105
	ErrCodeInvalidSchedule      ErrorCode = 106
	ErrCodeInvalidProvider      ErrorCode = 107

	// Data errors (200-299)
	ErrCodeDataNotFound     ErrorCode = 200
	ErrCodeInsufficientData ErrorCode = 201
	ErrCodeMalformedData    ErrorCode = 202
	ErrCodeWriteFailed      ErrorCode = 203

	// Gateway errors (300-399)
	ErrCodeNotConnected      ErrorCode = 300
	ErrCodeConnectFailed     ErrorCode = 301
	ErrCodeSnapshotTimeout   ErrorCode = 302
	ErrCodeRequestFailed     ErrorCode = 303
	ErrCodeNextIDTimeout     ErrorCode = 304
	ErrCodeUnsupportedMetric ErrorCode = 305

	// Tracker errors (400-499)
	ErrCodeDuplicateTicker  ErrorCode = 400
	ErrCodeUnknownRequestID ErrorCode = 401
	ErrCodeTickerNotTracked ErrorCode = 402
	ErrCodeRefreshInFlight  ErrorCode = 403

	// Trading errors (500-599)
	ErrCodeOrderFailed      ErrorCode = 500
	ErrCodePositionNotFound ErrorCode = 501
	ErrCodeDuplicateOrder   ErrorCode = 502

	// Engine errors (600-699)
	ErrCodeEngineInitFailed     ErrorCode = 600
	ErrCodeEngineNotInitialized ErrorCode = 601
	ErrCodeEngineAlreadyRunning ErrorCode = 602
	ErrCodeCycleAborted         ErrorCode = 603

	// Research errors (700-799)
	ErrCodeStatisticsFetchFailed ErrorCode = 700
	ErrCodeRatingsFetchFailed    ErrorCode = 701
	ErrCodeCacheFailed           ErrorCode = 702

	// Callback errors (800-899)
	ErrCodeCallbackFailed ErrorCode = 800
)

// Category is the layer an error code belongs to.
type Category string

const (
	CategoryGeneral    Category = "general"
	CategoryValidation Category = "validation"
	CategoryData       Category = "data"
	CategoryGateway    Category = "gateway"
	CategoryTracker    Category = "tracker"
	CategoryTrading    Category = "trading"
	CategoryEngine     Category = "engine"
	CategoryResearch   Category = "research"
	CategoryCallback   Category = "callback"
)

var categories = []Category{
	CategoryGeneral, CategoryValidation, CategoryData, CategoryGateway, CategoryTracker,
	CategoryTrading, CategoryEngine, CategoryResearch, CategoryCallback,
}

// Category returns the layer of the code, derived from its hundreds range.
func (c ErrorCode) Category() Category {
	index := int(c) / 100
	if index < 0 || index >= len(categories) {
		return CategoryGeneral
	}

	return categories[index]
}
