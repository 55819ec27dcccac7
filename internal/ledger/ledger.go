// Package ledger implements the durable, append-only usage history.
// One newline-delimited JSON file per user is the authoritative source for
// consumption totals; aggregates are always derived from it, never from a
// cached counter.
package ledger

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// denyFile blocks direct web access when the ledger directory ends up
// under a web-servable root.
const denyFile = ".htaccess"

// maxLineBytes bounds a single ledger line during the summarize scan.
const maxLineBytes = 1 << 20

// Record is one completed proxied call. Records are immutable once
// written; the ledger is append-only.
type Record struct {
	TimestampUTC   string       `json:"timestamp_utc"`
	APIKeyID       string       `json:"api_key_id"`
	WPUserID       int64        `json:"wp_user_id"`
	Endpoint       string       `json:"endpoint"`
	Method         string       `json:"method"`
	TokensUsed     int64        `json:"tokens_used"`
	IPAddress      string       `json:"ip_address"`
	RequestData    RequestData  `json:"request_data"`
	ResponseData   ResponseData `json:"response_data"`
	ResponseStatus int          `json:"response_status"`
}

// RequestData snapshots the request parameters.
type RequestData struct {
	Endpoint string          `json:"endpoint"`
	Params   json.RawMessage `json:"params"`
}

// ResponseData snapshots the upstream usage and model fields.
type ResponseData struct {
	Usage json.RawMessage `json:"usage"`
	Model string          `json:"model,omitempty"`
}

// Summary aggregates a user's records. LastRequest is nil when the user
// has no records.
type Summary struct {
	TotalTokens  int64   `json:"total_tokens"`
	RequestCount int64   `json:"request_count"`
	LastRequest  *string `json:"last_request"`
}

// Ledger stores per-user usage records under a single directory.
type Ledger struct {
	dir    string
	logger *slog.Logger

	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

// New creates the ledger directory if needed and drops a deny-all file
// into it.
func New(dir string, logger *slog.Logger) (*Ledger, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create ledger directory: %w", err)
	}

	denyPath := filepath.Join(dir, denyFile)
	if _, err := os.Stat(denyPath); os.IsNotExist(err) {
		if err := os.WriteFile(denyPath, []byte("Deny from all\n"), 0o644); err != nil {
			return nil, fmt.Errorf("failed to write deny file: %w", err)
		}
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Ledger{
		dir:    dir,
		logger: logger,
		locks:  make(map[int64]*sync.Mutex),
	}, nil
}

// userLock returns the append lock for a user, creating it on first use.
func (l *Ledger) userLock(userID int64) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()

	lock, ok := l.locks[userID]
	if !ok {
		lock = &sync.Mutex{}
		l.locks[userID] = lock
	}
	return lock
}

func (l *Ledger) path(userID int64) string {
	return filepath.Join(l.dir, fmt.Sprintf("%d.jsonl", userID))
}

// Append writes one record to the user's log. Safe under concurrent
// appends for the same user: each line is written whole, under the user's
// lock, with O_APPEND.
func (l *Ledger) Append(rec Record) error {
	if rec.RequestData.Params == nil {
		rec.RequestData.Params = json.RawMessage("null")
	}
	if rec.ResponseData.Usage == nil {
		rec.ResponseData.Usage = json.RawMessage("null")
	}

	line, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal usage record: %w", err)
	}
	line = append(line, '\n')

	lock := l.userLock(rec.WPUserID)
	lock.Lock()
	defer lock.Unlock()

	f, err := os.OpenFile(l.path(rec.WPUserID), os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open ledger file: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(line); err != nil {
		return fmt.Errorf("failed to append usage record: %w", err)
	}
	return nil
}

// Summarize folds the user's complete log into totals. A missing log is a
// new user, not an error. A corrupt line is skipped with a warning; the
// rest of the file is still counted.
func (l *Ledger) Summarize(userID int64) (Summary, error) {
	lock := l.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	f, err := os.Open(l.path(userID))
	if os.IsNotExist(err) {
		return Summary{}, nil
	}
	if err != nil {
		return Summary{}, fmt.Errorf("failed to open ledger file: %w", err)
	}
	defer f.Close()

	var summary Summary
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var rec Record
		if err := json.Unmarshal(line, &rec); err != nil {
			l.logger.Warn("skipping unparseable ledger line",
				"wp_user_id", userID, "error", err)
			continue
		}

		summary.TotalTokens += rec.TokensUsed
		summary.RequestCount++
		ts := rec.TimestampUTC
		summary.LastRequest = &ts
	}
	if err := scanner.Err(); err != nil {
		return Summary{}, fmt.Errorf("failed to scan ledger file: %w", err)
	}

	return summary, nil
}
