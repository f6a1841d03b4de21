package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// SettlementPolicy is the platform-operated payout policy. It is loaded from
// a mounted config file and hot-reloaded so operations can adjust the
// cooling-off window or payout threshold without a restart.
type SettlementPolicy struct {
	// CoolingOffDays is the post-checkout window before profit becomes
	// payable. Platform-configurable between 1 and 60 days.
	CoolingOffDays int `mapstructure:"coolingOffDays"`
	// PayoutThreshold is the minimum aggregate ready profit a partner must
	// accrue before any of its orders become eligible.
	PayoutThreshold float64 `mapstructure:"payoutThreshold"`
	// LookupTimeoutMS bounds account-health and reconciliation lookups.
	// A timed-out lookup counts as "gate not satisfied".
	LookupTimeoutMS int `mapstructure:"lookupTimeoutMs"`
	// SweepIntervalSeconds controls the scheduler re-evaluation loop.
	SweepIntervalSeconds int `mapstructure:"sweepIntervalSeconds"`
}

func (p SettlementPolicy) CoolingOffWindow() time.Duration {
	return time.Duration(p.CoolingOffDays) * 24 * time.Hour
}

func (p SettlementPolicy) LookupTimeout() time.Duration {
	return time.Duration(p.LookupTimeoutMS) * time.Millisecond
}

func (p SettlementPolicy) SweepInterval() time.Duration {
	return time.Duration(p.SweepIntervalSeconds) * time.Second
}

func DefaultSettlementPolicy() SettlementPolicy {
	return SettlementPolicy{
		CoolingOffDays:       7,
		PayoutThreshold:      100,
		LookupTimeoutMS:      2000,
		SweepIntervalSeconds: 60,
	}
}

type SettlementPolicyHolder struct {
	current atomic.Value // holds SettlementPolicy
}

// Policy returns the currently effective settlement policy.
func (h *SettlementPolicyHolder) Policy() SettlementPolicy {
	return h.current.Load().(SettlementPolicy)
}

// Store replaces the effective policy. Intended for tests and reload hooks.
func (h *SettlementPolicyHolder) Store(p SettlementPolicy) {
	h.current.Store(p)
}

// NewStaticSettlementPolicyHolder wraps a fixed policy without file watching.
func NewStaticSettlementPolicyHolder(p SettlementPolicy) *SettlementPolicyHolder {
	holder := &SettlementPolicyHolder{}
	holder.current.Store(p)
	return holder
}

// NewSettlementPolicyHolder reads settlement.yml and watches it for changes.
// Missing file falls back to defaults; an invalid reload is ignored.
func NewSettlementPolicyHolder() (*SettlementPolicyHolder, error) {
	v := viper.New()

	v.SetConfigName("settlement")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/partneredge/config")
	v.AddConfigPath("/etc/partneredge")
	v.AddConfigPath(".")

	v.SetEnvPrefix("PARTNEREDGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultSettlementPolicy()
	v.SetDefault("settlement.coolingOffDays", defaults.CoolingOffDays)
	v.SetDefault("settlement.payoutThreshold", defaults.PayoutThreshold)
	v.SetDefault("settlement.lookupTimeoutMs", defaults.LookupTimeoutMS)
	v.SetDefault("settlement.sweepIntervalSeconds", defaults.SweepIntervalSeconds)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var policy SettlementPolicy
	if err := v.UnmarshalKey("settlement", &policy); err != nil {
		return nil, err
	}
	if err := validateSettlementPolicy(policy); err != nil {
		return nil, err
	}

	holder := &SettlementPolicyHolder{}
	holder.current.Store(policy)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated SettlementPolicy
		if err := v.UnmarshalKey("settlement", &updated); err != nil {
			log.Printf("[settlement-policy] reload failed: %v", err)
			return
		}
		if err := validateSettlementPolicy(updated); err != nil {
			log.Printf("[settlement-policy] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
	})

	return holder, nil
}

func validateSettlementPolicy(p SettlementPolicy) error {
	if p.CoolingOffDays < 1 || p.CoolingOffDays > 60 {
		return errors.New("coolingOffDays must be between 1 and 60")
	}
	if p.PayoutThreshold < 0 {
		return errors.New("payoutThreshold must not be negative")
	}
	if p.LookupTimeoutMS <= 0 {
		return errors.New("lookupTimeoutMs must be positive")
	}
	if p.SweepIntervalSeconds <= 0 {
		return errors.New("sweepIntervalSeconds must be positive")
	}
	return nil
}
