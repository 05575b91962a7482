package logging

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"
)

var (
	// output receives every log line. Plans are printed on stdout, so logs
	// default to stderr to keep the two streams separable.
	output   io.Writer = os.Stderr
	outputMu sync.Mutex
)

// SetOutput redirects all log output and returns the previous writer
func SetOutput(w io.Writer) io.Writer {
	outputMu.Lock()
	defer outputMu.Unlock()
	prev := output
	output = w
	return prev
}

// writeLog formats one line as
//
//	[timestamp] [LEVEL] name: message | key=value key=value
//
// with fields sorted by key.
func (l *Logger) writeLog(level, msg string, fields map[string]interface{}) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s] [%s] %s: %s", GetTimestamp(), level, l.name, msg)

	if len(fields) > 0 {
		keys := make([]string, 0, len(fields))
		for k := range fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		sb.WriteString(" |")
		for _, k := range keys {
			fmt.Fprintf(&sb, " %s=%v", k, fields[k])
		}
	}
	sb.WriteByte('\n')

	outputMu.Lock()
	defer outputMu.Unlock()
	_, _ = io.WriteString(output, sb.String())
}

// logf logs a printf-style message with the logger's persistent fields
func (l *Logger) logf(level, msg string, args ...interface{}) {
	formatted := msg
	if len(args) > 0 {
		formatted = fmt.Sprintf(msg, args...)
	}
	l.writeLog(level, formatted, l.fields)
}

// logWithFields merges persistent and call-site fields; call-site fields win
func (l *Logger) logWithFields(level, msg string, fields ...LogField) {
	merged := cloneFields(l.fields)
	for _, f := range fields {
		merged[f.Key] = f.Value
	}
	l.writeLog(level, msg, merged)
}

// GetTimestamp returns an RFC3339 timestamp. LOG_TIMESTAMP overrides it
// for deterministic test output.
func GetTimestamp() string {
	if override := os.Getenv("LOG_TIMESTAMP"); override != "" {
		return override
	}
	return time.Now().Format(time.RFC3339)
}
