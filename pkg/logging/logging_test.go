package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

// Requirement: New honours the level and rejects unknown levels or formats.
func TestNew(t *testing.T) {
	tests := []struct {
		name      string
		level     string
		format    string
		wantLevel zapcore.Level
		wantErr   bool
	}{
		{name: "json info", level: "info", format: "json", wantLevel: zapcore.InfoLevel},
		{name: "default format", level: "warn", format: "", wantLevel: zapcore.WarnLevel},
		{name: "console debug", level: "debug", format: "console", wantLevel: zapcore.DebugLevel},
		{name: "bad level", level: "loud", format: "json", wantErr: true},
		{name: "bad format", level: "info", format: "xml", wantErr: true},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			// Act
			logger, err := New(test.level, test.format)

			// Assert
			if (err != nil) != test.wantErr {
				t.Fatalf("New() error = %v, wantErr %v", err, test.wantErr)
			}
			if test.wantErr {
				return
			}
			if !logger.Core().Enabled(test.wantLevel) {
				t.Errorf("level %v not enabled", test.wantLevel)
			}
			if test.wantLevel > zapcore.DebugLevel && logger.Core().Enabled(test.wantLevel-1) {
				t.Errorf("level %v should be disabled", test.wantLevel-1)
			}
		})
	}
}
