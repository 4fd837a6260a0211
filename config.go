package authclient

import (
	"errors"
	"time"
)

// Config defines a public type used by authclient APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	OTP      OTPConfig
	Recovery RecoveryConfig
	Storage  StorageConfig
	Audit    AuditConfig
	Metrics  MetricsConfig
}

/*
====================================
OTP CONFIG
====================================
*/

// OTPConfig defines a public type used by authclient APIs.
//
// OTPConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type OTPConfig struct {
	Digits int

	// Fallbacks used when the backend omits window values from a
	// challenge response.
	DefaultExpiry   time.Duration
	DefaultCooldown time.Duration

	// EnforceResendCooldown rejects resend calls locally before the
	// cooldown elapses instead of round-tripping a guaranteed rejection.
	EnforceResendCooldown bool
}

// RecoveryConfig defines a public type used by authclient APIs.
//
// RecoveryConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type RecoveryConfig struct {
	// DefaultExpiry arms the recovery OTP window when the backend's
	// success-shaped forgot-password response carries no window. The
	// response is deliberately identical whether or not the address
	// exists, so the window is always client-armed.
	DefaultExpiry   time.Duration
	DefaultCooldown time.Duration
}

// StorageConfig defines a public type used by authclient APIs.
//
// StorageConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type StorageConfig struct {
	RedisPrefix string
}

// AuditConfig defines a public type used by authclient APIs.
//
// AuditConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig defines a public type used by authclient APIs.
//
// MetricsConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricsConfig struct {
	Enabled bool
}

func defaultConfig() Config {
	return Config{
		OTP: OTPConfig{
			Digits:                6,
			DefaultExpiry:         5 * time.Minute,
			DefaultCooldown:       time.Minute,
			EnforceResendCooldown: true,
		},
		Recovery: RecoveryConfig{
			DefaultExpiry:   5 * time.Minute,
			DefaultCooldown: time.Minute,
		},
		Storage: StorageConfig{
			RedisPrefix: "authclient",
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 256,
			DropIfFull: true,
		},
	}
}

// Validate describes the validate operation and its observable behavior.
//
// Validate may return an error when input validation, dependency calls, or security checks fail.
// Validate does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Config) Validate() error {
	if c.OTP.Digits < 4 || c.OTP.Digits > 10 {
		return errors.New("OTP.Digits must be between 4 and 10")
	}
	if c.OTP.DefaultExpiry <= 0 {
		return errors.New("OTP.DefaultExpiry must be positive")
	}
	if c.OTP.DefaultCooldown < 0 {
		return errors.New("OTP.DefaultCooldown must not be negative")
	}
	if c.Recovery.DefaultExpiry <= 0 {
		return errors.New("Recovery.DefaultExpiry must be positive")
	}
	if c.Recovery.DefaultCooldown < 0 {
		return errors.New("Recovery.DefaultCooldown must not be negative")
	}
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit.BufferSize must be positive when audit is enabled")
	}
	return nil
}

func cloneConfig(cfg Config) Config {
	// All fields are value types; a shallow copy is a deep copy.
	return cfg
}
