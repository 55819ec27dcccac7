package ledger

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

func setupTestLedger(t *testing.T) *Ledger {
	t.Helper()

	dir := t.TempDir()
	l, err := New(filepath.Join(dir, "api_logs"), slog.New(slog.DiscardHandler))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return l
}

func testRecord(userID, tokens int64) Record {
	return Record{
		TimestampUTC:   "2026-08-30 12:00:00",
		APIKeyID:       "key-1",
		WPUserID:       userID,
		Endpoint:       "/chat/completions",
		Method:         "POST",
		TokensUsed:     tokens,
		IPAddress:      "203.0.113.7",
		RequestData:    RequestData{Endpoint: "/chat/completions", Params: json.RawMessage(`{"model":"gpt-4"}`)},
		ResponseData:   ResponseData{Usage: json.RawMessage(`{"total_tokens":42}`), Model: "gpt-4"},
		ResponseStatus: 200,
	}
}

func TestSummarizeMissingLog(t *testing.T) {
	l := setupTestLedger(t)

	summary, err := l.Summarize(99)
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}
	if summary.TotalTokens != 0 || summary.RequestCount != 0 {
		t.Errorf("expected zero summary, got %+v", summary)
	}
	if summary.LastRequest != nil {
		t.Errorf("expected nil last request, got %q", *summary.LastRequest)
	}
}

func TestAppendThenSummarize(t *testing.T) {
	l := setupTestLedger(t)

	for i, tokens := range []int64{100, 250, 7} {
		rec := testRecord(1, tokens)
		rec.TimestampUTC = fmt.Sprintf("2026-08-30 12:00:%02d", i)
		if err := l.Append(rec); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}

	summary, err := l.Summarize(1)
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}
	if summary.TotalTokens != 357 {
		t.Errorf("total tokens = %d, want 357", summary.TotalTokens)
	}
	if summary.RequestCount != 3 {
		t.Errorf("request count = %d, want 3", summary.RequestCount)
	}
	if summary.LastRequest == nil || *summary.LastRequest != "2026-08-30 12:00:02" {
		t.Errorf("unexpected last request: %v", summary.LastRequest)
	}
}

func TestSummarizeIsolatedPerUser(t *testing.T) {
	l := setupTestLedger(t)

	if err := l.Append(testRecord(1, 100)); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if err := l.Append(testRecord(2, 900)); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	s1, _ := l.Summarize(1)
	s2, _ := l.Summarize(2)
	if s1.TotalTokens != 100 || s2.TotalTokens != 900 {
		t.Errorf("summaries crossed users: %d / %d", s1.TotalTokens, s2.TotalTokens)
	}
}

// No append may be lost under concurrency, and the fold must equal the sum
// of everything appended regardless of order.
func TestConcurrentAppends(t *testing.T) {
	l := setupTestLedger(t)

	const workers = 20
	const perWorker = 25

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				if err := l.Append(testRecord(1, 3)); err != nil {
					t.Errorf("Append failed: %v", err)
				}
			}
		}()
	}
	wg.Wait()

	summary, err := l.Summarize(1)
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}
	if want := int64(workers * perWorker); summary.RequestCount != want {
		t.Errorf("request count = %d, want %d", summary.RequestCount, want)
	}
	if want := int64(workers * perWorker * 3); summary.TotalTokens != want {
		t.Errorf("total tokens = %d, want %d", summary.TotalTokens, want)
	}
}

func TestSummarizeSkipsCorruptLine(t *testing.T) {
	l := setupTestLedger(t)

	if err := l.Append(testRecord(1, 50)); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	// Corrupt the middle of the file by hand.
	f, err := os.OpenFile(l.path(1), os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	if _, err := f.WriteString("{not valid json\n"); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	f.Close()

	if err := l.Append(testRecord(1, 70)); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	summary, err := l.Summarize(1)
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}
	if summary.TotalTokens != 120 {
		t.Errorf("total tokens = %d, want 120 (corrupt line skipped, rest kept)", summary.TotalTokens)
	}
	if summary.RequestCount != 2 {
		t.Errorf("request count = %d, want 2", summary.RequestCount)
	}
}

func TestNewWritesDenyFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "api_logs")
	if _, err := New(dir, nil); err != nil {
		t.Fatalf("New failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, ".htaccess"))
	if err != nil {
		t.Fatalf("expected deny file: %v", err)
	}
	if string(data) != "Deny from all\n" {
		t.Errorf("unexpected deny file content: %q", string(data))
	}
}
