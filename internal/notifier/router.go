package notifier

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// commandTimeout bounds a single command, including a manual forecast run.
const commandTimeout = 2 * time.Minute

// CommandFunc handles one prefixed command. A non-empty reply is posted back
// to the channel the command came from; so is an error.
type CommandFunc func(ctx context.Context, m *discordgo.MessageCreate) (string, error)

// Router dispatches "<prefix><name>" messages to registered commands.
type Router struct {
	prefix   string
	commands map[string]CommandFunc
	session  Session
	logger   *zap.Logger
}

// NewRouter creates a Router replying through session.
func NewRouter(prefix string, session Session, logger *zap.Logger) *Router {
	if prefix == "" {
		prefix = "!"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Router{
		prefix:   prefix,
		commands: make(map[string]CommandFunc),
		session:  session,
		logger:   logger.Named("commands"),
	}
}

// Handle registers fn under name, replacing any previous command.
func (r *Router) Handle(name string, fn CommandFunc) {
	r.commands[strings.ToLower(name)] = fn
}

// Handler returns a discordgo MessageCreate handler. Commands run with a
// context derived from ctx.
func (r *Router) Handler(ctx context.Context) func(*discordgo.Session, *discordgo.MessageCreate) {
	return func(_ *discordgo.Session, m *discordgo.MessageCreate) {
		r.Dispatch(ctx, m)
	}
}

// Dispatch runs the command named in m, if any, and posts its reply.
func (r *Router) Dispatch(ctx context.Context, m *discordgo.MessageCreate) {
	if m == nil || m.Message == nil || m.Author == nil || m.Author.Bot {
		return
	}

	name, ok := r.parse(m.Content)
	if !ok {
		return
	}
	fn, ok := r.commands[name]
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	log := r.logger.With(
		zap.String("command", name),
		zap.String("channel_id", m.ChannelID),
		zap.String("author", m.Author.Username),
	)
	log.Info("command received")

	reply, err := fn(ctx, m)
	if err != nil {
		log.Warn("command failed", zap.Error(err))
		reply = "Something went wrong: " + err.Error()
	}
	if reply == "" {
		return
	}

	if _, err := r.session.ChannelMessageSend(m.ChannelID, reply, discordgo.WithContext(ctx)); err != nil {
		log.Error("reply failed", zap.Error(err))
	}
}

func (r *Router) parse(content string) (string, bool) {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, r.prefix) {
		return "", false
	}
	fields := strings.Fields(strings.TrimPrefix(content, r.prefix))
	if len(fields) == 0 {
		return "", false
	}
	return strings.ToLower(fields[0]), true
}
