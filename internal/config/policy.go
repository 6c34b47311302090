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

// Policy captures the qualification rules that operators tune without a
// redeploy: the quantity threshold, the discount window, and whether VIP
// status is consumed by the first order placed while active.
type Policy struct {
	MinQuantity     int     `mapstructure:"minQuantity"`
	DiscountDays    int     `mapstructure:"discountDays"`
	DiscountPercent float64 `mapstructure:"discountPercent"`
	SingleUse       bool    `mapstructure:"singleUse"`
}

func DefaultPolicy() Policy {
	return Policy{
		MinQuantity:     5,
		DiscountDays:    90,
		DiscountPercent: 10,
		SingleUse:       false,
	}
}

func (p Policy) DiscountWindow() time.Duration {
	return time.Duration(p.DiscountDays) * 24 * time.Hour
}

// PolicyHolder serves the current Policy snapshot and hot-reloads it when the
// loyalty config file changes.
type PolicyHolder struct {
	current atomic.Value // holds Policy
}

func NewPolicyHolder() (*PolicyHolder, error) {
	v := viper.New()

	v.SetConfigName("loyalty")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/loyara/config")
	v.AddConfigPath("/etc/loyara")
	v.AddConfigPath(".")

	v.SetEnvPrefix("LOYARA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultPolicy()
	v.SetDefault("loyalty.minQuantity", defaults.MinQuantity)
	v.SetDefault("loyalty.discountDays", defaults.DiscountDays)
	v.SetDefault("loyalty.discountPercent", defaults.DiscountPercent)
	v.SetDefault("loyalty.singleUse", defaults.SingleUse)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var policy Policy
	if err := v.UnmarshalKey("loyalty", &policy); err != nil {
		return nil, err
	}
	if err := validatePolicy(policy); err != nil {
		return nil, err
	}

	holder := &PolicyHolder{}
	holder.current.Store(policy)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated Policy
		if err := v.UnmarshalKey("loyalty", &updated); err != nil {
			log.Printf("[loyalty-config] reload failed: %v", err)
			return
		}
		if err := validatePolicy(updated); err != nil {
			log.Printf("[loyalty-config] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[loyalty-config] reloaded from %s", e.Name)
	})

	return holder, nil
}

func (h *PolicyHolder) Get() Policy {
	return h.current.Load().(Policy)
}

// NewStaticPolicyHolder returns a holder pinned to the given policy. Tests
// and the sweeper's dry-run tooling use it to bypass file watching.
func NewStaticPolicyHolder(p Policy) *PolicyHolder {
	holder := &PolicyHolder{}
	holder.current.Store(p)
	return holder
}

func validatePolicy(p Policy) error {
	if p.MinQuantity <= 0 {
		return errors.New("loyalty.minQuantity must be positive")
	}
	if p.DiscountDays <= 0 {
		return errors.New("loyalty.discountDays must be positive")
	}
	if p.DiscountPercent < 0 || p.DiscountPercent > 100 {
		return errors.New("loyalty.discountPercent must be between 0 and 100")
	}
	return nil
}
