package publish

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Minimum interval between any two Telegram messages. Telegram rate limits
// bots to roughly 30 messages per minute per chat.
const telegramSendInterval = 2 * time.Second

// Repeat alerts for the same opportunity are suppressed for this long.
const telegramCooldown = 10 * time.Minute

// TelegramSink turns arbitrage.new events into chat alerts.
type TelegramSink struct {
	bot           *tgbotapi.BotAPI
	chatID        int64
	providerNames map[int]string
	pub           *Publisher

	lastSend   time.Time
	lastByHash map[string]time.Time
}

// NewTelegramSink builds the sink and verifies the bot token against the
// Telegram API before returning.
func NewTelegramSink(token string, chatID int64, providerNames map[int]string, pub *Publisher) (*TelegramSink, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	bot.Debug = false
	if _, err := bot.GetMe(); err != nil {
		return nil, fmt.Errorf("failed to get bot info: %w", err)
	}
	return &TelegramSink{
		bot:           bot,
		chatID:        chatID,
		providerNames: providerNames,
		pub:           pub,
		lastByHash:    make(map[string]time.Time),
	}, nil
}

// Run consumes events until the context ends. Call it in its own goroutine.
func (t *TelegramSink) Run(ctx context.Context) {
	id, ch := t.pub.Subscribe("telegram")
	defer t.pub.Unsubscribe(id)

	slog.Info("telegram sink: started", "chat_id", t.chatID)
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			if ev.Kind != KindArbitrageNew {
				continue
			}
			if !t.shouldSend(ev.ContentHash) {
				continue
			}
			t.send(ctx, t.formatArbitrageAlert(ev))
		}
	}
}

// shouldSend applies the per-opportunity cooldown.
func (t *TelegramSink) shouldSend(hash string) bool {
	now := time.Now()
	if last, ok := t.lastByHash[hash]; ok && now.Sub(last) < telegramCooldown {
		return false
	}
	t.lastByHash[hash] = now
	if len(t.lastByHash) > 4096 {
		for h, ts := range t.lastByHash {
			if now.Sub(ts) >= telegramCooldown {
				delete(t.lastByHash, h)
			}
		}
	}
	return true
}

func (t *TelegramSink) send(ctx context.Context, text string) {
	if wait := telegramSendInterval - time.Since(t.lastSend); wait > 0 {
		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}
	}
	t.lastSend = time.Now()

	msg := tgbotapi.NewMessage(t.chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if _, err := t.bot.Send(msg); err != nil {
		slog.Error("telegram sink: send failed", "error", err)
		return
	}
	slog.Debug("telegram sink: alert sent")
}

func (t *TelegramSink) providerName(id int) string {
	if name, ok := t.providerNames[id]; ok {
		return name
	}
	return fmt.Sprintf("provider %d", id)
}

// formatArbitrageAlert renders one opportunity as a Markdown message.
func (t *TelegramSink) formatArbitrageAlert(ev Event) string {
	var builder strings.Builder

	builder.WriteString(fmt.Sprintf("🎯 *ARBITRAGE %.2f%%*\n\n", ev.ProfitPct))
	builder.WriteString(fmt.Sprintf("⚽ *%s*\n", escapeMarkdown(ev.Match)))
	builder.WriteString(fmt.Sprintf("🏆 %s | %s", escapeMarkdown(ev.Sport), escapeMarkdown(ev.BetType)))
	if ev.Margin != 0 {
		builder.WriteString(fmt.Sprintf(" %.2f", ev.Margin))
	}
	builder.WriteString("\n\n")

	for i, leg := range ev.Legs {
		label := leg.Selection
		if label == "" {
			label = fmt.Sprintf("#%d", leg.Outcome+1)
		}
		builder.WriteString(fmt.Sprintf("💰 %s: *%s* @ %.3f",
			escapeMarkdown(t.providerName(leg.Provider)), escapeMarkdown(label), leg.Price))
		if i < len(ev.Stakes) {
			builder.WriteString(fmt.Sprintf(" | stake %.1f%%", ev.Stakes[i]*100))
		}
		builder.WriteString("\n")
	}

	if !ev.StartTime.IsZero() {
		builder.WriteString(fmt.Sprintf("\n🕐 Kick-off: %s\n", ev.StartTime.UTC().Format("2006-01-02 15:04 UTC")))
	}
	return builder.String()
}

// escapeMarkdown escapes characters that break Telegram Markdown parsing.
func escapeMarkdown(text string) string {
	replacer := strings.NewReplacer(
		"_", "\\_",
		"*", "\\*",
		"[", "\\[",
		"]", "\\]",
		"`", "\\`",
	)
	return replacer.Replace(text)
}
