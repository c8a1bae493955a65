// Package alert reports swallowed errors to an operator channel.
//
// Errors are recorded in PostgreSQL and forwarded to Discord or Telegram.
// A per service+operation cooldown keeps a failing loop from flooding the
// channel; within the window only the stored rows accumulate.
package alert

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/code19m/errx"
	"github.com/uptrace/bun"
)

const (
	providerNoop     = "noop"
	providerDiscord  = "discord"
	providerTelegram = "telegram"
)

// Config selects and tunes the alert provider.
type Config struct {
	// Provider is one of noop, discord or telegram.
	Provider string `yaml:"provider" validate:"oneof=discord telegram noop" default:"noop"`

	// CooldownMinutes is the minimum gap between notifications for the
	// same service+operation pair.
	CooldownMinutes int `yaml:"cooldown_minutes" default:"5"`

	// SendTimeout bounds a single notification delivery.
	SendTimeout time.Duration `yaml:"send_timeout" default:"3s"`

	// Schema is the postgres schema holding the errors table.
	Schema string `yaml:"schema" default:"alerting"`

	TelegramBotToken string  `yaml:"telegram_bot_token" mask:"true"`
	TelegramChatIDs  []int64 `yaml:"telegram_chat_ids"`

	DiscordBotToken   string   `yaml:"discord_bot_token" mask:"true"`
	DiscordChannelIDs []string `yaml:"discord_channel_ids"`
}

// Provider receives error reports from infrastructure code that absorbs
// failures instead of raising them.
type Provider interface {
	// SendError records the error and notifies the operator channel,
	// subject to the cooldown. details carry free-form context pairs.
	SendError(ctx context.Context, errCode, msg, operation string, details map[string]string) error
}

// NewProvider builds the provider selected by cfg. The db handle stores
// error rows and cooldown state; with the noop provider it may be nil.
func NewProvider(cfg Config, db *bun.DB) (Provider, error) {
	if cfg.Provider == providerNoop {
		return &noopProvider{}, nil
	}

	st, err := newStore(db, cfg.Schema)
	if err != nil {
		return nil, errx.Wrap(err)
	}

	nt, err := newNotifier(cfg)
	if err != nil {
		return nil, errx.Wrap(err)
	}

	return &notifyProvider{cfg: cfg, store: st, notifier: nt}, nil
}

type noopProvider struct{}

func (*noopProvider) SendError(context.Context, string, string, string, map[string]string) error {
	return nil
}

// The global provider lets deep infrastructure (consumer chains, outbox
// middleware) alert without threading a Provider through every layer.
// Before SetGlobal runs the global is a noop.
//
//nolint:gochecknoglobals // process-wide provider singleton
var (
	global   atomic.Value
	setOnce  sync.Once
	initOnce sync.Once
)

// SetGlobal installs the configured provider as the process-wide default.
// Call it once during startup, before anything alerts; a second call fails.
func SetGlobal(cfg Config, db *bun.DB) error {
	var err error
	installed := false

	setOnce.Do(func() {
		// block the lazy noop default from racing in after us
		initOnce.Do(func() {})

		provider, buildErr := NewProvider(cfg, db)
		if buildErr != nil {
			err = fmt.Errorf("[alert]: building global provider: %w", buildErr)
			return
		}
		global.Store(provider)
		installed = true
	})

	if !installed && err == nil {
		return errors.New("[alert]: SetGlobal can only be called once")
	}
	return err
}

// SendError reports through the global provider.
func SendError(ctx context.Context, errCode, msg, operation string, details map[string]string) error {
	return getGlobal().SendError(ctx, errCode, msg, operation, details)
}

func getGlobal() Provider {
	if v := global.Load(); v != nil {
		return v.(Provider) //nolint:errcheck // only Providers are stored
	}

	initOnce.Do(func() {
		global.Store(Provider(&noopProvider{}))
	})
	return global.Load().(Provider) //nolint:errcheck // only Providers are stored
}
