package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/suite"
)

type ErrorTestSuite struct {
	suite.Suite
}

func TestErrorSuite(t *testing.T) {
	suite.Run(t, new(ErrorTestSuite))
}

func (suite *ErrorTestSuite) TestNewError() {
	err := New(ErrCodeInvalidParameter, "invalid parameter")
	suite.NotNil(err)
	suite.Equal(ErrCodeInvalidParameter, err.Code)
	suite.Equal("invalid parameter", err.Message)
	suite.Nil(err.Cause)
}

func (suite *ErrorTestSuite) TestNewfError() {
	err := Newf(ErrCodeInvalidParameter, "invalid parameter: %s", "test")
	suite.NotNil(err)
	suite.Equal(ErrCodeInvalidParameter, err.Code)
	suite.Equal("invalid parameter: test", err.Message)
	suite.Nil(err.Cause)
}

func (suite *ErrorTestSuite) TestWrapError() {
	cause := errors.New("underlying error")
	err := Wrap(ErrCodeDataNotFound, "data not found", cause)
	suite.NotNil(err)
	suite.Equal(ErrCodeDataNotFound, err.Code)
	suite.Equal("data not found", err.Message)
	suite.Equal(cause, err.Cause)
}

func (suite *ErrorTestSuite) TestWrapfError() {
	cause := errors.New("underlying error")
	err := Wrapf(ErrCodeDataNotFound, cause, "data not found for symbol: %s", "AAPL")
	suite.NotNil(err)
	suite.Equal(ErrCodeDataNotFound, err.Code)
	suite.Equal("data not found for symbol: AAPL", err.Message)
	suite.Equal(cause, err.Cause)
}

func (suite *ErrorTestSuite) TestErrorString() {
	err := New(ErrCodeInvalidParameter, "invalid parameter")
	suite.Equal("[100] invalid parameter", err.Error())
}

func (suite *ErrorTestSuite) TestErrorStringWithCause() {
	cause := errors.New("underlying error")
	err := Wrap(ErrCodeDataNotFound, "data not found", cause)
	suite.Equal("[200] data not found: underlying error", err.Error())
}

func (suite *ErrorTestSuite) TestUnwrap() {
	cause := errors.New("underlying error")
	err := Wrap(ErrCodeDataNotFound, "data not found", cause)
	suite.Equal(cause, err.Unwrap())
}

func (suite *ErrorTestSuite) TestUnwrapNil() {
	err := New(ErrCodeInvalidParameter, "invalid parameter")
	suite.Nil(err.Unwrap())
}

func (suite *ErrorTestSuite) TestGetCode() {
	err := New(ErrCodeInvalidParameter, "invalid parameter")
	suite.Equal(ErrCodeInvalidParameter, GetCode(err))
}

func (suite *ErrorTestSuite) TestGetCodeFromWrapped() {
	cause := New(ErrCodeDataNotFound, "data not found")
	err := Wrap(ErrCodeStatisticsFetchFailed, "statistics unavailable", cause)
	// GetCode should return the outermost error's code
	suite.Equal(ErrCodeStatisticsFetchFailed, GetCode(err))
}

func (suite *ErrorTestSuite) TestGetCodeFromStandardError() {
	err := errors.New("standard error")
	suite.Equal(ErrCodeUnknown, GetCode(err))
}

func (suite *ErrorTestSuite) TestHasCode() {
	err := New(ErrCodeInvalidParameter, "invalid parameter")
	suite.True(HasCode(err, ErrCodeInvalidParameter))
	suite.False(HasCode(err, ErrCodeDataNotFound))
}

func (suite *ErrorTestSuite) TestIsError() {
	cause := errors.New("underlying error")
	err := Wrap(ErrCodeDataNotFound, "data not found", cause)
	suite.True(Is(err, cause))
}

func (suite *ErrorTestSuite) TestAsError() {
	err := New(ErrCodeInvalidParameter, "invalid parameter")
	var codedErr *Error
	suite.True(As(err, &codedErr))
	suite.Equal(ErrCodeInvalidParameter, codedErr.Code)
}

func (suite *ErrorTestSuite) TestErrorCodeValues() {
	suite.Equal(ErrorCode(1), ErrCodeUnknown)
	suite.Equal(ErrorCode(100), ErrCodeInvalidParameter)
	suite.Equal(ErrorCode(200), ErrCodeDataNotFound)
	suite.Equal(ErrorCode(300), ErrCodeNotConnected)
	suite.Equal(ErrorCode(400), ErrCodeDuplicateTicker)
	suite.Equal(ErrorCode(500), ErrCodeOrderFailed)
	suite.Equal(ErrorCode(600), ErrCodeEngineInitFailed)
	suite.Equal(ErrorCode(700), ErrCodeStatisticsFetchFailed)
	suite.Equal(ErrorCode(800), ErrCodeCallbackFailed)
}

func (suite *ErrorTestSuite) TestInsufficientDataError() {
	err := NewInsufficientDataError("AAPL", []string{"open", "close", "last"}, "no anchor price for AAPL")
	suite.Equal("no anchor price for AAPL", err.Error())
	suite.Equal("AAPL", err.Symbol)
	suite.Equal([]string{"open", "close", "last"}, err.Missing)
}

func (suite *ErrorTestSuite) TestNewInsufficientDataErrorf() {
	err := NewInsufficientDataErrorf("MSFT", []string{"drawdown"}, "%s: %s unknown", "MSFT", "drawdown")
	suite.Equal("MSFT: drawdown unknown", err.Message)
	suite.Equal([]string{"drawdown"}, err.Missing)
}

func (suite *ErrorTestSuite) TestIsInsufficientDataError() {
	suite.True(IsInsufficientDataError(NewInsufficientDataError("SPY", nil, "insufficient data")))

	wrapped := Wrap(ErrCodeInsufficientData, "target unavailable", NewInsufficientDataError("SPY", nil, "x"))
	suite.True(IsInsufficientDataError(wrapped))

	suite.False(IsInsufficientDataError(errors.New("standard error")))
	suite.False(IsInsufficientDataError(New(ErrCodeInvalidParameter, "invalid parameter")))
	suite.False(IsInsufficientDataError(nil))
}

func (suite *ErrorTestSuite) TestCategory() {
	suite.Equal(CategoryGeneral, ErrCodeUnknown.Category())
	suite.Equal(CategoryValidation, ErrCodeInvalidThreshold.Category())
	suite.Equal(CategoryData, ErrCodeWriteFailed.Category())
	suite.Equal(CategoryGateway, ErrCodeSnapshotTimeout.Category())
	suite.Equal(CategoryTracker, ErrCodeUnknownRequestID.Category())
	suite.Equal(CategoryTrading, ErrCodeDuplicateOrder.Category())
	suite.Equal(CategoryEngine, ErrCodeCycleAborted.Category())
	suite.Equal(CategoryResearch, ErrCodeCacheFailed.Category())
	suite.Equal(CategoryCallback, ErrCodeCallbackFailed.Category())
	suite.Equal(CategoryGeneral, ErrorCode(4200).Category())
}

func (suite *ErrorTestSuite) TestIsTransient() {
	suite.True(IsTransient(New(ErrCodeNotConnected, "gateway is not connected")))

	aborted := Wrap(ErrCodeCycleAborted, "reconnect failed", Wrap(ErrCodeConnectFailed, "dial", errors.New("refused")))
	suite.True(IsTransient(aborted))
	suite.True(IsTransient(fmt.Errorf("cycle: %w", aborted)))

	suite.False(IsTransient(New(ErrCodeInvalidConfiguration, "bad config")))
	suite.False(IsTransient(Wrap(ErrCodeCycleAborted, "stopped", errors.New("plain"))))
	suite.False(IsTransient(errors.New("plain")))
	suite.False(IsTransient(nil))
}
