package config

import (
	"testing"
	"time"
)

func clearPolicyEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"APP_ENV", "DATABASE_URL", "REDIS_URL",
		"OTP_TTL", "OTP_RESEND_COOLDOWN", "OTP_MAX_ATTEMPTS", "OTP_RATE_LIMIT_PER_MIN",
		"SESSION_TTL", "MIN_WITHDRAW_PAISE", "DEFAULT_CASHBACK_PERCENT",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearPolicyEnv(t)
	t.Setenv("APP_ENV", "development")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.OTPTTL != 5*time.Minute || cfg.OTPResendCooldown != 30*time.Second {
		t.Fatalf("otp timing defaults: %+v", cfg)
	}
	if cfg.OTPMaxAttempts != 5 || cfg.OTPRateLimitPerMin != 5 {
		t.Fatalf("otp attempt defaults: max=%d rate=%d", cfg.OTPMaxAttempts, cfg.OTPRateLimitPerMin)
	}
	if cfg.MinWithdrawPaise != 5000 || cfg.DefaultCashbackPercent != 2.0 {
		t.Fatalf("wallet defaults: min=%d percent=%v", cfg.MinWithdrawPaise, cfg.DefaultCashbackPercent)
	}
}

func TestLoadPolicyOverrides(t *testing.T) {
	clearPolicyEnv(t)
	t.Setenv("APP_ENV", "development")
	t.Setenv("OTP_RATE_LIMIT_PER_MIN", "2")
	t.Setenv("OTP_MAX_ATTEMPTS", "3")
	t.Setenv("MIN_WITHDRAW_PAISE", "10000")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.OTPRateLimitPerMin != 2 || cfg.OTPMaxAttempts != 3 || cfg.MinWithdrawPaise != 10000 {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
}

func TestLoadRejectsBadPolicyValues(t *testing.T) {
	clearPolicyEnv(t)
	t.Setenv("APP_ENV", "development")

	cases := map[string]string{
		"OTP_RATE_LIMIT_PER_MIN": "0",
		"OTP_MAX_ATTEMPTS":       "-1",
		"MIN_WITHDRAW_PAISE":     "abc",
	}
	for key, value := range cases {
		t.Setenv(key, value)
		if _, err := Load(); err == nil {
			t.Fatalf("%s=%q accepted", key, value)
		}
		t.Setenv(key, "")
	}
}

func TestLoadRequiresStoresOutsideDev(t *testing.T) {
	clearPolicyEnv(t)
	t.Setenv("APP_ENV", "production")

	if _, err := Load(); err == nil {
		t.Fatal("expected missing DATABASE_URL to be rejected outside dev")
	}
}
