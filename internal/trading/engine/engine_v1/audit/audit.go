// Package audit appends human-readable trade lines to the buys, losses and profits logs.
package audit

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rxtech-lab/equity-trader/pkg/errors"
)

// TimestampLayout is the timestamp format of every audit line.
const TimestampLayout = "02-Jan-2006 (15:04:05.000000)"

// Log file names inside the audit directory.
const (
	BuysFile    = "buys.txt"
	LossesFile  = "losses.txt"
	ProfitsFile = "profits.txt"
)

// Trail writes append-only audit files. Existing content is never rewritten.
type Trail struct {
	dir string
	mu  sync.Mutex
}

// NewTrail creates the audit directory if needed.
func NewTrail(dir string) (*Trail, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.Wrapf(errors.ErrCodeWriteFailed, err, "failed to create audit directory %s", dir)
	}

	return &Trail{
		dir: dir,
		mu:  sync.Mutex{},
	}, nil
}

// Dir returns the audit directory.
func (t *Trail) Dir() string {
	return t.dir
}

// RecordBuy appends a line to buys.txt.
func (t *Trail) RecordBuy(at time.Time, description string) error {
	return t.append(BuysFile, at, description)
}

// RecordLoss appends a line to losses.txt.
func (t *Trail) RecordLoss(at time.Time, description string) error {
	return t.append(LossesFile, at, description)
}

// RecordProfit appends a line to profits.txt.
func (t *Trail) RecordProfit(at time.Time, description string) error {
	return t.append(ProfitsFile, at, description)
}

// FormatLine renders one audit line without the trailing newline.
func FormatLine(at time.Time, description string) string {
	return fmt.Sprintf("%s --- %s", at.Format(TimestampLayout), description)
}

func (t *Trail) append(name string, at time.Time, description string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	path := filepath.Join(t.dir, name)

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeWriteFailed, err, "failed to open audit file %s", path)
	}
	defer file.Close()

	if _, err := file.WriteString(FormatLine(at, description) + "\n"); err != nil {
		return errors.Wrapf(errors.ErrCodeWriteFailed, err, "failed to append to audit file %s", path)
	}

	return nil
}
