package telegramcmder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/papercomputeco/docent/pkg/rag"
	"github.com/papercomputeco/docent/pkg/websearch"
)

// ErrMissingToken is returned before the bot starts when no token resolves.
var ErrMissingToken = errors.New("telegram bot token is not configured; set TELEGRAM_BOT_TOKEN or run `docent auth telegram`")

// maxMessageLength is Telegram's limit for one message, in characters.
const maxMessageLength = 4096

const usageText = `Ask me anything about the ingested documents.

Commands:
/web <question> - answer from a web search instead
/help - show this message`

type asker interface {
	Ask(ctx context.Context, mode rag.Mode, query string, opts ...rag.AskOption) (*rag.Response, error)
}

type sender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
}

// Bot answers Telegram messages through the pipeline. Each chat is one
// session.
type Bot struct {
	api    *bot.Bot
	asker  asker
	logger *slog.Logger
}

// BotConfig wires a Bot.
type BotConfig struct {
	Token  string
	Asker  asker
	Logger *slog.Logger

	// Options are passed to the Telegram client after the default handler.
	Options []bot.Option
}

// NewBot validates the token with Telegram and registers the handler.
func NewBot(c BotConfig) (*Bot, error) {
	if strings.TrimSpace(c.Token) == "" {
		return nil, ErrMissingToken
	}
	if c.Asker == nil {
		return nil, errors.New("telegram bot requires a pipeline")
	}

	logger := c.Logger
	if logger == nil {
		logger = slog.Default()
	}

	b := &Bot{asker: c.Asker, logger: logger}

	opts := append([]bot.Option{bot.WithDefaultHandler(b.handleUpdate)}, c.Options...)
	api, err := bot.New(c.Token, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Telegram bot: %w", err)
	}
	b.api = api
	return b, nil
}

// Start polls for updates until ctx is done.
func (b *Bot) Start(ctx context.Context) {
	b.logger.Info("starting telegram bot")
	b.api.Start(ctx)
}

func (b *Bot) handleUpdate(ctx context.Context, api *bot.Bot, update *models.Update) {
	b.handle(ctx, api, update)
}

func (b *Bot) handle(ctx context.Context, s sender, update *models.Update) {
	if update.Message == nil || update.Message.Text == "" {
		return
	}

	msg := update.Message
	chatID := msg.Chat.ID
	text := strings.TrimSpace(msg.Text)

	mode := rag.ModeDocuments
	if strings.HasPrefix(text, "/") {
		command, rest, _ := strings.Cut(text, " ")
		// "/web@docent_bot" in groups
		command, _, _ = strings.Cut(strings.TrimPrefix(command, "/"), "@")

		switch command {
		case "start", "help":
			b.reply(ctx, s, chatID, usageText)
			return
		case "web":
			mode = rag.ModeWeb
			text = strings.TrimSpace(rest)
			if text == "" {
				b.reply(ctx, s, chatID, "Usage: /web <question>")
				return
			}
		default:
			b.reply(ctx, s, chatID, "Unknown command. Try /help to see available commands.")
			return
		}
	}

	sessionID := strconv.FormatInt(chatID, 10)
	b.logger.Debug("telegram question", "chat_id", chatID, "mode", mode)

	resp, err := b.asker.Ask(ctx, mode, text, rag.WithSession(sessionID))
	if err != nil {
		b.logger.Warn("telegram question failed", "chat_id", chatID, "error", err)
		b.reply(ctx, s, chatID, errorText(err))
		return
	}

	b.reply(ctx, s, chatID, resp.Format())
}

func (b *Bot) reply(ctx context.Context, s sender, chatID int64, text string) {
	for _, part := range splitMessage(text, maxMessageLength) {
		if _, err := s.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: chatID,
			Text:   part,
		}); err != nil {
			b.logger.Error("failed to send telegram message", "chat_id", chatID, "error", err)
			return
		}
	}
}

func errorText(err error) string {
	if errors.Is(err, websearch.ErrConfiguration) {
		return "⚠️ Web search is not configured on this server."
	}
	if errors.Is(err, rag.ErrEmptyQuestion) {
		return "Please send a question."
	}
	return "⚠️ Sorry, something went wrong answering that."
}

// splitMessage cuts text into parts of at most limit characters, preferring
// line breaks.
func splitMessage(text string, limit int) []string {
	var parts []string
	for utf8.RuneCountInString(text) > limit {
		cut := byteOffset(text, limit)
		if nl := strings.LastIndexByte(text[:cut], '\n'); nl > 0 {
			cut = nl
		}
		parts = append(parts, text[:cut])
		text = strings.TrimLeft(text[cut:], "\n")
	}
	if text != "" {
		parts = append(parts, text)
	}
	return parts
}

// byteOffset returns the byte index of the n-th rune of s.
func byteOffset(s string, n int) int {
	i := 0
	for pos := range s {
		if i == n {
			return pos
		}
		i++
	}
	return len(s)
}
