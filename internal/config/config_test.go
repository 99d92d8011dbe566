package config

import "testing"

func validTestConfig() Config {
	return Config{
		App:   AppConfig{Env: "local", Port: 8080},
		DB:    DBConfig{Host: "localhost", Port: 5432, User: "postgres", Password: "x", Name: "receptionist", SSLMode: "disable"},
		Redis: RedisConfig{Host: "localhost", Port: 6379},
		Auth:  AuthConfig{JWTSecret: "secret"},
		Webhooks: WebhookConfig{
			VoiceSigningSecret:     "voice-secret",
			AutomationSharedSecret: "automation-secret",
		},
	}
}

func TestLoad_ReportsMissingRequired(t *testing.T) {
	// Ensure a clean env by not setting anything and calling validation directly.
	c := Config{}
	if err := c.Validate(); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestValidate_ProductionRequiresSSLMode(t *testing.T) {
	c := validTestConfig()
	c.App.Env = "production"
	c.DB.SSLMode = ""
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error for production without DB_SSLMODE")
	}
}

func TestValidate_LocalDefaultsSSLMode(t *testing.T) {
	c := validTestConfig()
	c.DB.SSLMode = ""
	if err := c.Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if c.DB.SSLMode != "disable" {
		t.Fatalf("expected sslmode disable default, got %q", c.DB.SSLMode)
	}
}

func TestValidate_WebhookSecretsRequired(t *testing.T) {
	c := validTestConfig()
	c.Webhooks.VoiceSigningSecret = ""
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error for missing voice signing secret")
	}

	c = validTestConfig()
	c.Webhooks.AutomationSharedSecret = ""
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error for missing automation shared secret")
	}
}

func TestValidate_BillingDefaults(t *testing.T) {
	c := validTestConfig()
	if err := c.Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if c.Billing.FlatFeeCents != 29900 {
		t.Fatalf("expected default flat fee 29900, got %d", c.Billing.FlatFeeCents)
	}
	if c.Billing.StaffHourlyCents != 2500 {
		t.Fatalf("expected default hourly 2500, got %d", c.Billing.StaffHourlyCents)
	}
}
