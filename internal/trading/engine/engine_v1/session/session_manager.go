package session

import (
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rxtech-lab/equity-trader/internal/logger"
	"github.com/rxtech-lab/equity-trader/pkg/errors"
	"go.uber.org/zap"
)

const dateLayout = "2006-01-02"

var runPattern = regexp.MustCompile(`^run_(\d+)$`)

// SessionManager owns the per-run output folders of a trader session:
//
//	{dataOutputPath}/{YYYY-MM-DD}/run_N/
//
// A session that crosses midnight keeps its run number in the new date folder.
type SessionManager struct {
	dataOutputPath string
	runID          string
	runNumber      int
	sessionUUID    string
	sessionStart   time.Time
	currentDate    string
	currentRunPath string
	mu             sync.Mutex
	logger         *logger.Logger
}

// NewSessionManager creates a new SessionManager instance.
func NewSessionManager(log *logger.Logger) *SessionManager {
	return &SessionManager{
		dataOutputPath: "",
		runID:          "",
		runNumber:      0,
		sessionUUID:    "",
		sessionStart:   time.Time{},
		currentDate:    "",
		currentRunPath: "",
		mu:             sync.Mutex{},
		logger:         log,
	}
}

// Initialize picks the next run number for the date of now and creates its folder.
func (s *SessionManager) Initialize(dataOutputPath string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.dataOutputPath = dataOutputPath
	s.sessionStart = now
	s.currentDate = now.Format(dateLayout)
	s.sessionUUID = uuid.NewString()

	runNumber, err := nextRunNumber(filepath.Join(dataOutputPath, s.currentDate))
	if err != nil {
		return err
	}

	s.runNumber = runNumber
	s.runID = "run_" + strconv.Itoa(runNumber)

	if err := s.createRunFolder(); err != nil {
		return err
	}

	s.logger.Info("Session initialized",
		zap.String("run_id", s.runID),
		zap.String("session_uuid", s.sessionUUID),
		zap.String("path", s.currentRunPath),
	)

	return nil
}

// HandleDateBoundary moves the run to a new date folder when the date of now changed.
// Returns true if a new folder was created.
func (s *SessionManager) HandleDateBoundary(now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	newDate := now.Format(dateLayout)
	if newDate == s.currentDate {
		return false, nil
	}

	oldDate := s.currentDate
	s.currentDate = newDate

	if err := s.createRunFolder(); err != nil {
		return false, err
	}

	s.logger.Info("Date boundary crossed",
		zap.String("old_date", oldDate),
		zap.String("new_date", newDate),
		zap.String("run_id", s.runID),
		zap.String("new_path", s.currentRunPath),
	)

	return true, nil
}

// GetCurrentRunPath returns the current run folder path.
func (s *SessionManager) GetCurrentRunPath() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.currentRunPath
}

// GetRunID returns the session run id, e.g. "run_1".
func (s *SessionManager) GetRunID() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.runID
}

// GetRunNumber returns the numeric run number.
func (s *SessionManager) GetRunNumber() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.runNumber
}

// GetSessionUUID returns the id shared by every date folder of this session.
func (s *SessionManager) GetSessionUUID() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.sessionUUID
}

// GetSessionStart returns the session start time.
func (s *SessionManager) GetSessionStart() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.sessionStart
}

// GetCurrentDate returns the current date in YYYY-MM-DD format.
func (s *SessionManager) GetCurrentDate() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.currentDate
}

// GetFilePath returns the full path for a file in the current run folder.
func (s *SessionManager) GetFilePath(filename string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return filepath.Join(s.currentRunPath, filename)
}

func (s *SessionManager) createRunFolder() error {
	s.currentRunPath = filepath.Join(s.dataOutputPath, s.currentDate, s.runID)

	if err := os.MkdirAll(s.currentRunPath, 0755); err != nil {
		return errors.Wrapf(errors.ErrCodeWriteFailed, err, "failed to create run folder %s", s.currentRunPath)
	}

	return nil
}

// nextRunNumber returns one more than the highest run_N folder in datePath.
func nextRunNumber(datePath string) (int, error) {
	entries, err := os.ReadDir(datePath)
	if os.IsNotExist(err) {
		return 1, nil
	}

	if err != nil {
		return 0, errors.Wrapf(errors.ErrCodeDataNotFound, err, "failed to read date directory %s", datePath)
	}

	highest := 0

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		matches := runPattern.FindStringSubmatch(entry.Name())
		if len(matches) != 2 {
			continue
		}

		if num, err := strconv.Atoi(matches[1]); err == nil && num > highest {
			highest = num
		}
	}

	return highest + 1, nil
}
