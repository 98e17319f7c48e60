package telegram

import (
	"fmt"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/lifeweeks/internal/config"
)

// buildPoller selects the update source from the normalized run mode:
// a webhook listener or a long poller.
func buildPoller(cfg *config.Config) tele.Poller {
	if cfg.Telegram.RunMode == config.RunModeWebhook {
		return &tele.Webhook{
			Listen:   fmt.Sprintf("%s:%d", cfg.Webhook.Listen, cfg.Webhook.Port),
			Endpoint: &tele.WebhookEndpoint{PublicURL: cfg.Webhook.URL},
		}
	}

	timeoutSec := cfg.Telegram.LongPollTimeoutSeconds
	if timeoutSec <= 0 {
		timeoutSec = 10
	}
	return &tele.LongPoller{Timeout: time.Duration(timeoutSec) * time.Second}
}
