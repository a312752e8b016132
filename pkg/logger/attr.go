package logger

import (
	"log/slog"
	"strconv"
)

// Group creates a slog group attribute from the provided attributes.
func Group(name string, attrs ...slog.Attr) slog.Attr {
	return slog.Attr{Key: name, Value: slog.GroupValue(attrs...)}
}

// Errors groups multiple non-nil errors under the key "errors".
// If all errors are nil, it returns an empty Attr.
func Errors(errs ...error) slog.Attr {
	as := make([]slog.Attr, 0, len(errs))
	for i, err := range errs {
		if err != nil {
			as = append(as, slog.Any(strconv.Itoa(i), err))
		}
	}
	if len(as) == 0 {
		return slog.Attr{}
	}
	return slog.Attr{Key: "errors", Value: slog.GroupValue(as...)}
}

// Error creates an attribute for a single error under the key "error".
// If err is nil, it returns an empty Attr.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// FeatureID records the feature identifier under the key "feature_id".
func FeatureID(id string) slog.Attr {
	return slog.String("feature_id", id)
}

// FlagState records the flag state under the key "state".
func FlagState(state string) slog.Attr {
	return slog.String("state", state)
}

// Strategy records the rollout strategy under the key "strategy".
func Strategy(strategy string) slog.Attr {
	return slog.String("strategy", strategy)
}

// UserID records the user identifier under the key "user_id".
// If id is nil, it returns an empty Attr.
func UserID(id any) slog.Attr {
	if id == nil {
		return slog.Attr{}
	}
	return slog.Any("user_id", id)
}

// TelegramID records the Telegram user id under the key "telegram_id".
func TelegramID(id int64) slog.Attr {
	return slog.Int64("telegram_id", id)
}

// Bucket records a rollout bucket under the key "bucket".
func Bucket(bucket int) slog.Attr {
	return slog.Int("bucket", bucket)
}

// ABGroup records the assigned A/B group under the key "ab_group".
func ABGroup(name string) slog.Attr {
	if name == "" {
		return slog.Attr{}
	}
	return slog.String("ab_group", name)
}

// EventType records the usage event type under the key "event_type".
func EventType(eventType string) slog.Attr {
	return slog.String("event_type", eventType)
}

// RequestID records the request identifier under the key "request_id".
// If id is nil, it returns an empty Attr.
func RequestID(id any) slog.Attr {
	if id == nil {
		return slog.Attr{}
	}
	return slog.Any("request_id", id)
}

// Duration records a duration under the key "duration".
func Duration(d any) slog.Attr {
	return slog.Any("duration", d)
}

// Component records the component name under the key "component".
func Component(name string) slog.Attr {
	return slog.String("component", name)
}
