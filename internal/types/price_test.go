package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/suite"
)

type PriceTestSuite struct {
	suite.Suite
}

func TestPriceSuite(t *testing.T) {
	suite.Run(t, new(PriceTestSuite))
}

func (suite *PriceTestSuite) TestZeroValueIsUnknown() {
	var p Price
	suite.Equal(PriceStateUnknown, p.State())
	suite.False(p.IsKnown())
	suite.False(p.IsClosed())

	_, ok := p.Value()
	suite.False(ok)
	suite.Equal("unknown", p.String())
}

func (suite *PriceTestSuite) TestFeedSentinelMapsToClosed() {
	p := PriceFromFeed(-1)
	suite.True(p.IsClosed())
	suite.False(p.IsKnown())
	suite.Equal("closed", p.String())

	_, ok := p.Value()
	suite.False(ok)
}

func (suite *PriceTestSuite) TestFeedValue() {
	p := PriceFromFeed(101.25)
	suite.True(p.IsKnown())

	v, ok := p.Value()
	suite.True(ok)
	suite.Equal(101.25, v)
	suite.Equal("101.25", p.String())

	// Zero is a real price, not a missing one.
	zero := PriceFromFeed(0)
	suite.True(zero.IsKnown())
}

func (suite *PriceTestSuite) TestJSON() {
	type row struct {
		Bid  Price `json:"bid"`
		Ask  Price `json:"ask"`
		Open Price `json:"open"`
	}

	data, err := json.Marshal(row{Bid: UnknownPrice(), Ask: ClosedPrice(), Open: NewPrice(12.5)})
	suite.Require().NoError(err)
	suite.JSONEq(`{"bid":null,"ask":"closed","open":12.5}`, string(data))

	var decoded row
	suite.Require().NoError(json.Unmarshal(data, &decoded))
	suite.False(decoded.Bid.IsKnown())
	suite.True(decoded.Ask.IsClosed())

	v, ok := decoded.Open.Value()
	suite.True(ok)
	suite.Equal(12.5, v)
}

func (suite *PriceTestSuite) TestCandidateSetPrice() {
	c := NewCandidate("AAPL", 7, "earnings dip")
	suite.True(c.SetPrice(PriceFieldAsk, NewPrice(90)))
	suite.True(c.SetPrice(PriceFieldOpen, ClosedPrice()))
	suite.False(c.SetPrice(PriceField("MARK"), NewPrice(1)))

	ask, ok := c.Ask.Value()
	suite.True(ok)
	suite.Equal(90.0, ask)
	suite.True(c.Open.IsClosed())
	suite.True(c.Target.IsNone())
	suite.True(c.Rating.IsNone())
}
