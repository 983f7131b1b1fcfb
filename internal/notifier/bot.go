package notifier

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// Bot owns the Discord gateway session.
type Bot struct {
	session *discordgo.Session
	logger  *zap.Logger
}

// NewBot creates a session authenticated with a static bot token. It does not
// connect until Open is called.
func NewBot(token string, logger *zap.Logger) (*Bot, error) {
	if token == "" {
		return nil, fmt.Errorf("discord bot token is empty")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuildMessages | discordgo.IntentsMessageContent

	b := &Bot{session: session, logger: logger.Named("bot")}
	session.AddHandler(func(_ *discordgo.Session, r *discordgo.Ready) {
		b.logger.Info("logged in", zap.String("user", r.User.String()))
	})
	return b, nil
}

// Session exposes the underlying session for delivery and replies.
func (b *Bot) Session() *discordgo.Session {
	return b.session
}

// AddRouter registers the router's message handler.
func (b *Bot) AddRouter(handler func(*discordgo.Session, *discordgo.MessageCreate)) {
	b.session.AddHandler(handler)
}

// Open connects to the gateway.
func (b *Bot) Open() error {
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("open discord session: %w", err)
	}
	return nil
}

// Close disconnects from the gateway.
func (b *Bot) Close() error {
	return b.session.Close()
}

var _ Session = (*discordgo.Session)(nil)
