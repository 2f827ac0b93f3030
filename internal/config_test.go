package internal

import (
	"strings"
	"testing"

	"github.com/Shawm69/fbigposter/internal/models"
)

func TestDefaultConfigValid(t *testing.T) {
	cfg := NewDefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
	if got := cfg.App.HTTP.Address(); got != ":8080" {
		t.Errorf("address = %q", got)
	}
}

func TestAuthConfig_DisabledMode(t *testing.T) {
	cfg := AuthConfig{Mode: "disabled", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("disabled mode should pass: %v", err)
	}
	if cfg.AuthEnabled() {
		t.Error("disabled mode should not be enabled")
	}
}

func TestAuthConfig_EmptyModeDefaultsDisabled(t *testing.T) {
	cfg := AuthConfig{Mode: "", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("empty mode should default to disabled: %v", err)
	}
	if cfg.Mode != AuthModeDisabled {
		t.Errorf("mode = %q, want %q", cfg.Mode, AuthModeDisabled)
	}
}

func TestAuthConfig_TokenModeValid(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: "mysecret"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("token mode with token should pass: %v", err)
	}
	if !cfg.AuthEnabled() {
		t.Error("token mode should be enabled")
	}
}

func TestAuthConfig_TokenModeEmptyToken(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: ""}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("token mode with empty token should fail")
	}
	if !strings.Contains(err.Error(), "token is empty") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestAuthConfig_InvalidMode(t *testing.T) {
	cfg := AuthConfig{Mode: "magic", Token: "x"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("invalid mode should fail validation")
	}
}

func TestHTTPConfig_PortRange(t *testing.T) {
	for _, port := range []int{0, -1, 70000} {
		cfg := HTTPConfig{Port: port}
		if err := cfg.Validate(); err == nil {
			t.Errorf("port %d should fail validation", port)
		}
	}
}

func TestScheduleConfig_TimeOfDay(t *testing.T) {
	cases := []struct {
		timeOfDay string
		ok        bool
	}{
		{"03:00", true},
		{"3:05", true},
		{"23:59", true},
		{"24:00", false},
		{"03:60", false},
		{"midnight", false},
		{"", false},
	}
	for _, tc := range cases {
		cfg := ScheduleConfig{TimeOfDay: tc.timeOfDay, Timezone: "UTC"}
		err := cfg.Validate()
		if tc.ok && err != nil {
			t.Errorf("%q should pass: %v", tc.timeOfDay, err)
		}
		if !tc.ok && err == nil {
			t.Errorf("%q should fail", tc.timeOfDay)
		}
	}
}

func TestPipelinesConfig_UnknownPipeline(t *testing.T) {
	cfg := PipelinesConfig{Enabled: map[models.Pipeline]bool{"livestream": true}}
	if err := cfg.Validate(); err == nil {
		t.Fatal("unknown pipeline key should fail validation")
	}
}

func TestPipelinesConfig_LookbackBounds(t *testing.T) {
	cfg := PipelinesConfig{LookbackDays: 400}
	if err := cfg.Validate(); err == nil {
		t.Fatal("lookback beyond a year should fail validation")
	}
}

func TestFullConfig_AuthValidationCalled(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Auth.Mode = "token"
	cfg.Auth.Token = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("full config validate should catch auth error")
	}
}
