package logx

import (
	"encoding/json"
	"maps"
	"slices"
	"strconv"
	"time"
)

// Formatter turns an entry into one output line.
type Formatter interface {
	Format(entry *LogEntry) ([]byte, error)
}

// LogEntry represents a single log entry
type LogEntry struct {
	Level     Level
	Message   string
	Fields    Fields
	Error     error
	Timestamp time.Time
	Caller    string
}

// Fields is a map of structured data
type Fields map[string]any

// sortedKeys keeps console output stable between runs.
func (f Fields) sortedKeys() []string {
	return slices.Sorted(maps.Keys(f))
}

func formatTimestamp(t time.Time, format string) string {
	switch format {
	case "unix":
		return strconv.FormatInt(t.Unix(), 10)
	case "unixmilli":
		return strconv.FormatInt(t.UnixMilli(), 10)
	default:
		return t.Format(format)
	}
}

// JSONFormatter formats logs as JSON
type JSONFormatter struct {
	config *Config
	// keys of the message and timestamp attributes
	messageKey, timeKey string
}

func NewJSONFormatter(config *Config) *JSONFormatter {
	return &JSONFormatter{config: config, messageKey: "message", timeKey: "timestamp"}
}

// NewCloudWatchFormatter uses the msg/time keys CloudWatch Logs Insights
// discovers automatically.
func NewCloudWatchFormatter(config *Config) *JSONFormatter {
	return &JSONFormatter{config: config, messageKey: "msg", timeKey: "time"}
}

func (f *JSONFormatter) Format(entry *LogEntry) ([]byte, error) {
	data := make(map[string]any, len(entry.Fields)+5)
	maps.Copy(data, entry.Fields)

	data["level"] = entry.Level.String()
	data[f.messageKey] = entry.Message

	if f.config.EnableTimestamp {
		switch f.config.TimeFormat {
		case "unix":
			data[f.timeKey] = entry.Timestamp.Unix()
		case "unixmilli":
			data[f.timeKey] = entry.Timestamp.UnixMilli()
		default:
			data[f.timeKey] = entry.Timestamp.Format(time.RFC3339Nano)
		}
	}
	if f.config.EnableCaller && entry.Caller != "" {
		data["caller"] = entry.Caller
	}
	if entry.Error != nil {
		data["error"] = entry.Error.Error()
	}

	b, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}
