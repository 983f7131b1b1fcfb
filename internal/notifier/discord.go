package notifier

import (
	"bytes"
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/i474232898/meteo-bot/internal/weather"
)

// Session is the part of *discordgo.Session the notifier uses.
type Session interface {
	Channel(channelID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Discord delivers reports to a single Discord channel.
type Discord struct {
	session   Session
	channelID string
	logger    *zap.Logger
}

// NewDiscord creates a notifier posting to channelID.
func NewDiscord(session Session, channelID string, logger *zap.Logger) *Discord {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Discord{
		session:   session,
		channelID: channelID,
		logger:    logger.Named("discord"),
	}
}

// Deliver posts the caption with the chart attached. The channel is looked up
// on every call because the gateway session may have been recreated since the
// last one. Nothing is retried.
func (d *Discord) Deliver(ctx context.Context, r weather.Report) error {
	if _, err := d.session.Channel(d.channelID, discordgo.WithContext(ctx)); err != nil {
		return &weather.DeliveryError{
			ChannelID: d.channelID,
			Err:       fmt.Errorf("%w: %v", weather.ErrChannelNotFound, err),
		}
	}

	msg := &discordgo.MessageSend{Content: r.Caption}
	if len(r.Chart) > 0 {
		msg.Files = []*discordgo.File{{
			Name:        r.Filename,
			ContentType: r.ContentType,
			Reader:      bytes.NewReader(r.Chart),
		}}
	}

	sent, err := d.session.ChannelMessageSendComplex(d.channelID, msg, discordgo.WithContext(ctx))
	if err != nil {
		return &weather.DeliveryError{ChannelID: d.channelID, Err: err}
	}

	if sent != nil {
		d.logger.Debug("message sent", zap.String("channel_id", d.channelID), zap.String("message_id", sent.ID))
	}
	return nil
}

var _ weather.Notifier = (*Discord)(nil)
