package config

import (
	"strings"
	"testing"
)

// TestValidate_ErrorMessages verifies that Validate returns actionable
// error messages with hints.
func TestValidate_ErrorMessages(t *testing.T) {
	base := func() Config { return *Default() }

	noPassword := base()
	noPassword.AuthMode = AuthPassword

	noKeys := base()
	noKeys.AuthMode = AuthPublicKey

	badPort := base()
	badPort.Port = 0

	both := base()
	both.Local = true
	both.ConnectEnabled = true
	both.ConnectHost = "x"

	tests := []struct {
		name    string
		cfg     Config
		wantSub string // substring expected in error
	}{
		{"password auth has hint", noPassword, "hint:"},
		{"publickey auth has hint", noKeys, "hint:"},
		{"bad port has hint", badPort, "hint:"},
		{"mode conflict", both, "--local and --connect are mutually exclusive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantSub) {
				t.Errorf("error %q should contain %q", err.Error(), tt.wantSub)
			}
		})
	}
}

// TestParseConnectSpec_EdgeCases covers additional connect specs.
func TestParseConnectSpec_EdgeCases(t *testing.T) {
	tests := []struct {
		input   string
		wantErr bool
	}{
		{"user@host.with.dots:22", false},
		{"user@host-with-dashes", false},
		{"host:0", true},     // port 0 out of range
		{"host:65536", true}, // port too high
		{"user@", false},     // regex treats "user@" as hostname
		{"", true},
		{":22", true}, // no host before colon
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			_, _, _, err := ParseConnectSpec(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseConnectSpec(%q) err = %v, wantErr = %v", tt.input, err, tt.wantErr)
			}
		})
	}
}
