package telegram

import (
	"net"
	"strconv"
	"strings"
	"time"

	coreconfig "github.com/m3rciful/shopbot/core/config"

	tele "gopkg.in/telebot.v4"
)

const defaultLongPollTimeout = 10 * time.Second

// WebhookOptions declares webhook listener settings.
type WebhookOptions struct {
	Listen string
	Port   int
	URL    string
	Secret string
}

// PollerOptions configures BuildPoller.
type PollerOptions struct {
	RunMode                string
	LongPollTimeoutSeconds int
	Webhook                WebhookOptions
	AllowedUpdates         []string
}

// BuildPoller returns a webhook listener for run mode "webhook" and a long poller otherwise.
func BuildPoller(opts PollerOptions) tele.Poller {
	if !strings.EqualFold(strings.TrimSpace(opts.RunMode), coreconfig.RunModeWebhook) {
		timeout := time.Duration(opts.LongPollTimeoutSeconds) * time.Second
		if timeout <= 0 {
			timeout = defaultLongPollTimeout
		}
		return &tele.LongPoller{Timeout: timeout, AllowedUpdates: opts.AllowedUpdates}
	}
	wh := opts.Webhook
	return &tele.Webhook{
		Listen:         net.JoinHostPort(wh.Listen, strconv.Itoa(wh.Port)),
		SecretToken:    wh.Secret,
		Endpoint:       &tele.WebhookEndpoint{PublicURL: wh.URL},
		AllowedUpdates: opts.AllowedUpdates,
	}
}
