package config

import (
	"log/slog"
	"path/filepath"
	"testing"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{
			name:    "valid defaults",
			config:  Config{DBPath: "./test.db", LogLevel: "info"},
			wantErr: false,
		},
		{
			name:    "empty db path",
			config:  Config{DBPath: "", LogLevel: "info"},
			wantErr: true,
		},
		{
			name:    "invalid log level",
			config:  Config{DBPath: "./test.db", LogLevel: "verbose"},
			wantErr: true,
		},
		{
			name:    "empty log level falls back",
			config:  Config{DBPath: "./test.db", LogLevel: ""},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr && err == nil {
				t.Fatalf("expected error")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("expected ok, got %v", err)
			}
		})
	}
}

func TestConfig_ValidateCreatesDBDir(t *testing.T) {
	dir := t.TempDir()
	cfg := Config{
		DBPath:   filepath.Join(dir, "nested", "ledger.db"),
		LogLevel: "info",
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
}

func TestParseLevel(t *testing.T) {
	cases := []struct {
		in   string
		want slog.Level
		ok   bool
	}{
		{"debug", slog.LevelDebug, true},
		{"info", slog.LevelInfo, true},
		{"INFO", slog.LevelInfo, true},
		{"warn", slog.LevelWarn, true},
		{"error", slog.LevelError, true},
		{"", slog.LevelInfo, true},
		{"trace", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseLevel(tc.in)
		if tc.ok {
			if err != nil || got != tc.want {
				t.Fatalf("%q expected %v, got %v (err=%v)", tc.in, tc.want, got, err)
			}
		} else if err == nil {
			t.Fatalf("%q expected error", tc.in)
		}
	}
}
