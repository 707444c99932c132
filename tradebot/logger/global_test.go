package logger

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"
)

type capturedRecord struct {
	level   slog.Level
	message string
	attrs   map[string]string
}

type captureHandler struct {
	records *[]capturedRecord
}

func (h captureHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h captureHandler) Handle(_ context.Context, r slog.Record) error {
	rec := capturedRecord{level: r.Level, message: r.Message, attrs: map[string]string{}}
	r.Attrs(func(a slog.Attr) bool {
		rec.attrs[a.Key] = a.Value.String()
		return true
	})
	*h.records = append(*h.records, rec)
	return nil
}

func (h captureHandler) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h captureHandler) WithGroup(string) slog.Handler      { return h }

func captureLogs(t *testing.T) *[]capturedRecord {
	t.Helper()
	records := &[]capturedRecord{}
	prev := slog.Default()
	slog.SetDefault(slog.New(captureHandler{records: records}))
	t.Cleanup(func() { slog.SetDefault(prev) })
	return records
}

func TestLogCommandResult(t *testing.T) {
	tests := []struct {
		name      string
		took      time.Duration
		err       error
		wantLevel slog.Level
	}{
		{name: "success", took: 50 * time.Millisecond, err: nil, wantLevel: slog.LevelInfo},
		{name: "slow", took: 3 * time.Second, err: nil, wantLevel: slog.LevelWarn},
		{name: "failure", took: 50 * time.Millisecond, err: errors.New("boom"), wantLevel: slog.LevelError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records := captureLogs(t)

			LogCommandResult("trade", "12345", tt.took, tt.err)

			if len(*records) != 1 {
				t.Fatalf("records = %d, want one", len(*records))
			}
			rec := (*records)[0]
			if rec.level != tt.wantLevel {
				t.Errorf("level = %v, want %v", rec.level, tt.wantLevel)
			}
			if rec.attrs["type"] != "cmd" || rec.attrs["name"] != "trade" {
				t.Errorf("attrs = %v, want cmd/trade", rec.attrs)
			}
		})
	}
}

func TestLogComponentResult(t *testing.T) {
	records := captureLogs(t)

	LogComponentResult("trade_feedback", "12345", 10*time.Millisecond, nil)
	LogComponentResult("trade_feedback", "12345", 10*time.Millisecond, errors.New("boom"))

	if len(*records) != 2 {
		t.Fatalf("records = %d, want two", len(*records))
	}
	if (*records)[0].level != slog.LevelInfo || (*records)[1].level != slog.LevelError {
		t.Errorf("levels = %v/%v, want info then error", (*records)[0].level, (*records)[1].level)
	}
	if (*records)[0].attrs["component"] != "trade_feedback" {
		t.Errorf("component attr = %q", (*records)[0].attrs["component"])
	}
}

func TestLogQuery(t *testing.T) {
	records := captureLogs(t)

	LogQuery("exec", "CREATE INDEX idx ON t (c)", time.Millisecond, nil)
	LogQuery("exec", "CREATE INDEX idx ON t (c)", time.Millisecond, errors.New("syntax error"))

	if len(*records) != 2 {
		t.Fatalf("records = %d, want two", len(*records))
	}
	if (*records)[0].level != slog.LevelDebug {
		t.Errorf("success level = %v, want debug", (*records)[0].level)
	}
	if (*records)[1].level != slog.LevelError {
		t.Errorf("failure level = %v, want error", (*records)[1].level)
	}
	if (*records)[0].attrs["type"] != "db" {
		t.Errorf("type attr = %q, want db", (*records)[0].attrs["type"])
	}
}
