package utils

import (
	"bytes"
	"fmt"
	"io"
	"sort"

	"github.com/sirupsen/logrus"
	"k8s.io/utils/clock"
)

// LogTimestampLayout renders timestamps as 2025-01-02 15:04:05 UTC
const LogTimestampLayout = "2006-01-02 15:04:05 UTC"

// TimestampFormatter renders "[<UTC timestamp>] message key=value ..." lines.
// The timestamp comes from Clock rather than the entry so tests control it.
type TimestampFormatter struct {
	Clock clock.PassiveClock
}

// Format implements logrus.Formatter
func (f *TimestampFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	now := entry.Time
	if f.Clock != nil {
		now = f.Clock.Now()
	}

	var b bytes.Buffer
	fmt.Fprintf(&b, "[%s] %s", now.UTC().Format(LogTimestampLayout), entry.Message)

	keys := make([]string, 0, len(entry.Data))
	for k := range entry.Data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, entry.Data[k])
	}

	b.WriteByte('\n')
	return b.Bytes(), nil
}

// ParseLevel parses a logrus level name, falling back to info
func ParseLevel(level string) logrus.Level {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return logrus.InfoLevel
	}
	return lvl
}

// NewLogger creates a logger writing timestamped lines to out
func NewLogger(out io.Writer, level string, clk clock.PassiveClock) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(out)
	logger.SetLevel(ParseLevel(level))
	logger.SetFormatter(&TimestampFormatter{Clock: clk})
	return logger
}
