package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/suite"
)

type TraderCmdTestSuite struct {
	suite.Suite
	tempDir string
}

func TestTraderCmdTestSuite(t *testing.T) {
	suite.Run(t, new(TraderCmdTestSuite))
}

func (s *TraderCmdTestSuite) SetupTest() {
	s.tempDir = s.T().TempDir()
	s.T().Setenv("EQT_LOG_LEVEL", "error")
}

func (s *TraderCmdTestSuite) writeConfig(lossPct float64) string {
	content := fmt.Sprintf(`version: "1.0"
gateway:
  provider: simulator
  connect_timeout: 1s
  snapshot_timeout: 500ms
  provider_config:
    startingCash: 50000
    quotes:
      AAPL: {bid: 89.9, ask: 90, last: 90, open: 100, close: 100}
      MSFT: {bid: 299.9, ask: 300, last: 300, open: 310, close: 310}
trading:
  profit_pct: 5
  loss_pct: %g
  trail_pct: 2
  bulk_amount_usd: 1000
schedule:
  worker_interval: 100ms
  ui_interval: 50ms
candidates:
  - ticker: aapl
    reason: test
  - ticker: MSFT
research:
  statistics:
    provider: static
    static:
      AAPL: {avg_drop_pct: 5, avg_spread_pct: 1.5}
      MSFT: {avg_drop_pct: 1, avg_spread_pct: 0.5}
  ratings:
    provider: static
    static:
      AAPL: 9
output:
  data_dir: %s
`, lossPct, filepath.Join(s.tempDir, "data"))

	path := filepath.Join(s.tempDir, "config.yaml")
	s.Require().NoError(os.WriteFile(path, []byte(content), 0644))

	return path
}

func (s *TraderCmdTestSuite) run(args ...string) (string, error) {
	var out bytes.Buffer

	app := newApp()
	app.Writer = &out
	app.ErrWriter = io.Discard

	err := app.Run(context.Background(), append([]string{"trader"}, args...))

	return out.String(), err
}

func (s *TraderCmdTestSuite) TestProviders() {
	out, err := s.run("providers")
	s.Require().NoError(err)

	s.Contains(out, "alpaca-paper")
	s.Contains(out, "alpaca-live")
	s.Contains(out, "simulator")
}

func (s *TraderCmdTestSuite) TestSchema() {
	out, err := s.run("schema")
	s.Require().NoError(err)
	s.Contains(out, "profit_pct")
	s.Contains(out, "candidates")

	out, err = s.run("schema", "--provider", "simulator")
	s.Require().NoError(err)
	s.Contains(out, "startingCash")

	_, err = s.run("schema", "--provider", "unknown")
	s.Error(err)
}

func (s *TraderCmdTestSuite) TestCheckConfig() {
	out, err := s.run("check-config", "--config", s.writeConfig(-3))
	s.Require().NoError(err)

	s.Contains(out, "gateway: simulator")
	s.Contains(out, "candidates: AAPL, MSFT")
	s.Contains(out, "configuration OK")
}

func (s *TraderCmdTestSuite) TestCheckConfig_Invalid() {
	_, err := s.run("check-config", "--config", s.writeConfig(3))
	s.Error(err)

	_, err = s.run("check-config", "--config", filepath.Join(s.tempDir, "missing.yaml"))
	s.Error(err)
}

func (s *TraderCmdTestSuite) TestResearch() {
	out, err := s.run("research", "--config", s.writeConfig(-3))
	s.Require().NoError(err)

	s.Regexp(`AAPL\s+5\.00\s+1\.50\s+9\.0`, out)
	s.Regexp(`MSFT\s+1\.00\s+0\.50\s+-`, out)
}

func (s *TraderCmdTestSuite) TestRun_SimulatorSession() {
	out, err := s.run("run", "--config", s.writeConfig(-3), "--duration", "1500ms")
	s.Require().NoError(err)

	s.Contains(out, "Engine started: run=run_1")
	s.Contains(out, "BUY LIMIT AAPL 11 @ 90.00")
	s.Contains(out, "submitted: BUY LIMIT 11 AAPL")
	s.Contains(out, "Engine stopped")
	s.Contains(out, "Trader stopped")

	matches, err := filepath.Glob(filepath.Join(s.tempDir, "data", "*", "run_1", "stats.yaml"))
	s.Require().NoError(err)
	s.Len(matches, 1)
	s.FileExists(filepath.Join(s.tempDir, "data", "buys.txt"))
}
