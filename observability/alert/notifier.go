package alert

import (
	"context"
	"fmt"
	"html"
	"os"
	"strings"

	"github.com/code19m/errx"
	"github.com/nikoksr/notify"
	"github.com/nikoksr/notify/service/discord"
	"github.com/nikoksr/notify/service/telegram"
)

// notifier renders an errorInfo into a channel message and delivers it.
type notifier interface {
	notify(ctx context.Context, e errorInfo) error
}

func newNotifier(cfg Config) (notifier, error) {
	env := os.Getenv("ENVIRONMENT")

	switch cfg.Provider {
	case providerDiscord:
		return newDiscordNotifier(cfg.DiscordBotToken, cfg.DiscordChannelIDs, env)
	case providerTelegram:
		return newTelegramNotifier(cfg.TelegramBotToken, cfg.TelegramChatIDs, env)
	default:
		return nil, errx.New("invalid alert provider: " + cfg.Provider)
	}
}

// markup abstracts over the Discord-markdown and Telegram-HTML message
// syntaxes, so both channels share one body builder.
type markup struct {
	escape       func(string) string
	field        string // label + value line
	detailHeader string
	detail       string // key + value entry
	frequency    string // count + minutes line
}

//nolint:gochecknoglobals // static render tables
var (
	discordMarkup = markup{
		escape:       escapeMarkdown,
		field:        "**%s:** %s\n",
		detailHeader: "\n**📋 _Additional details_**\n",
		detail:       "_%s_: ```%s```",
		frequency:    "\n**📊 Frequency:** %d in last %d minutes",
	}

	telegramMarkup = markup{
		escape:       escapeHTML,
		field:        "<b>%s:</b> %s\n",
		detailHeader: "\n<b>📋 <i>Additional details</i></b>\n",
		detail:       "<i>%s</i>: <code>%s</code>\n",
		frequency:    "\n<b>📊 Frequency:</b> %d in last %d minutes",
	}
)

// maxDetailLen truncates oversized detail values so a dumped SQL query or
// payload cannot blow the channel's message limit.
const maxDetailLen = 1000

func buildBody(e errorInfo, environment string, m markup) string {
	var b strings.Builder

	fmt.Fprintf(&b, m.field, "🔍 Environment", m.escape(environment))
	fmt.Fprintf(&b, m.field, "🛠️ Service", m.escape(e.service))
	fmt.Fprintf(&b, m.field, "🔄 Operation", m.escape(e.operation))
	fmt.Fprintf(&b, m.field, "🏷️ Code", m.escape(e.code))
	fmt.Fprintf(&b, m.field, "💬 Message", m.escape(e.message))

	b.WriteString(m.detailHeader)
	for k, v := range e.details {
		if v == "" {
			continue
		}
		if len(v) > maxDetailLen {
			v = v[:maxDetailLen] + "..."
		}
		fmt.Fprintf(&b, m.detail, m.escape(k), v)
	}

	if e.frequency > 0 {
		fmt.Fprintf(&b, m.frequency, e.frequency, e.frequencyMinutes)
	}

	return b.String()
}

type discordNotifier struct {
	n           notify.Notifier
	environment string
}

func newDiscordNotifier(token string, channelIDs []string, environment string) (*discordNotifier, error) {
	svc := discord.New()
	if err := svc.AuthenticateWithBotToken(token); err != nil {
		return nil, errx.Wrap(err)
	}
	svc.AddReceivers(channelIDs...)

	n := notify.New()
	n.UseServices(svc)

	return &discordNotifier{n: n, environment: environment}, nil
}

func (d *discordNotifier) notify(ctx context.Context, e errorInfo) error {
	body := buildBody(e, d.environment, discordMarkup)
	return errx.Wrap(d.n.Send(ctx, "**❗ Error Alert**\n", body))
}

type telegramNotifier struct {
	n           notify.Notifier
	environment string
}

func newTelegramNotifier(token string, chatIDs []int64, environment string) (*telegramNotifier, error) {
	svc, err := telegram.New(token)
	if err != nil {
		return nil, errx.Wrap(err)
	}
	svc.AddReceivers(chatIDs...)

	n := notify.New()
	n.UseServices(svc)

	return &telegramNotifier{n: n, environment: environment}, nil
}

func (t *telegramNotifier) notify(ctx context.Context, e errorInfo) error {
	body := buildBody(e, t.environment, telegramMarkup)
	return errx.Wrap(t.n.Send(ctx, "<b>❗ Error Alert</b>\n", body))
}

func escapeMarkdown(in string) string {
	r := strings.NewReplacer(
		"*", "\\*",
		"_", "\\_",
		"`", "\\`",
		"~", "\\~",
		"|", "\\|",
	)
	return r.Replace(flattenNewlines(in))
}

func escapeHTML(in string) string {
	return html.EscapeString(flattenNewlines(in))
}

func flattenNewlines(in string) string {
	return strings.ReplaceAll(in, "\n", "\\n")
}
