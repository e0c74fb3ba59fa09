package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Feature: marketplace-api, Property 7: Logs are structured
func TestProperty_LogsAreStructured(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("every entry is a JSON object with level, timestamp, message and service", prop.ForAll(
		func(message string, level int) bool {
			var buf bytes.Buffer
			log := NewJSON(&buf, zapcore.DebugLevel)

			switch level {
			case 0:
				log.Debug(message)
			case 1:
				log.Info(message)
			case 2:
				log.Warn(message)
			default:
				log.Error(message)
			}
			_ = log.Sync()

			var entry map[string]interface{}
			if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
				t.Logf("FAIL: output is not JSON: %v", err)
				return false
			}

			for _, key := range []string{"level", "timestamp", "message", "service"} {
				if _, ok := entry[key]; !ok {
					t.Logf("FAIL: missing key %s", key)
					return false
				}
			}

			return entry["message"] == message && entry["service"] == ServiceName
		},
		gen.AnyString(),
		gen.IntRange(0, 3),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

// Test that error logs carry their structured context
func TestProperty_ErrorLogsIncludeContext(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("fields attached to error logs are emitted", prop.ForAll(
		func(message string, offerID string) bool {
			var buf bytes.Buffer
			log := NewJSON(&buf, zapcore.DebugLevel)

			log.Error(message, zap.String("offer_id", offerID))
			_ = log.Sync()

			var entry map[string]interface{}
			if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
				return false
			}

			if entry["offer_id"] != offerID {
				return false
			}
			_, hasStack := entry["stacktrace"]
			return hasStack
		},
		gen.AnyString(),
		gen.Identifier(),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestNewJSON_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	log := NewJSON(&buf, zapcore.WarnLevel)

	log.Info("dropped")
	_ = log.Sync()

	if buf.Len() != 0 {
		t.Fatalf("expected info entry to be filtered, got %q", buf.String())
	}
}

func TestNew_BuildsForEveryEnv(t *testing.T) {
	for _, env := range []string{"production", "development", "staging"} {
		log, err := New(env)
		if err != nil {
			t.Fatalf("New(%q) failed: %v", env, err)
		}
		if log == nil {
			t.Fatalf("New(%q) returned nil logger", env)
		}
	}
}
