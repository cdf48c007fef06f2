package telegram

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"storefront-payments/internal/domain/model"
	"storefront-payments/internal/domain/ports/adapter"
)

// OpsNotifier DMs the operations chat about terminal payment resolutions.
// Completed sessions are skipped; ops only cares about failures.
type OpsNotifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64
	log    *zerolog.Logger
}

var _ adapter.OpsNotifier = (*OpsNotifier)(nil)

func NewOpsNotifier(token string, chatID int64, log *zerolog.Logger) (*OpsNotifier, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram bot: %w", err)
	}
	return &OpsNotifier{bot: bot, chatID: chatID, log: log}, nil
}

func (n *OpsNotifier) NotifyResolution(ctx context.Context, res *model.Resolution) error {
	if res.Outcome == model.StatusCompleted {
		return nil
	}
	text := fmt.Sprintf(
		"payment failed\ntype: %s\nid: %s\nmethod: %s\nresolved by: %s\nreason: %s",
		res.PaymentType, res.PaymentID, res.Method, res.ResolvedBy, res.MessageKey,
	)
	msg := tgbotapi.NewMessage(n.chatID, text)
	if _, err := n.bot.Send(msg); err != nil {
		n.log.Warn().Err(err).Str("session_id", res.SessionID).Msg("ops notification failed")
		return err
	}
	return nil
}

// NoopNotifier logs instead of sending, for dev setups without a token.
type NoopNotifier struct {
	log *zerolog.Logger
}

var _ adapter.OpsNotifier = (*NoopNotifier)(nil)

func NewNoopNotifier(log *zerolog.Logger) *NoopNotifier {
	return &NoopNotifier{log: log}
}

func (n *NoopNotifier) NotifyResolution(ctx context.Context, res *model.Resolution) error {
	n.log.Debug().
		Str("session_id", res.SessionID).
		Str("outcome", string(res.Outcome)).
		Msg("[noop-telegram] resolution")
	return nil
}
