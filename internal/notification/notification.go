// Package notification announces admin player actions to a Discord channel.
package notification

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/charlesshaw3/SimpleServers/internal/history"
	"github.com/charlesshaw3/SimpleServers/internal/servers"
)

var (
	ErrSession     = errors.New("failed to create discord session")
	ErrSend        = errors.New("failed to send discord message")
	ErrMissingConf = errors.New("discord token and channel id are required")
)

// Discord posts each action as an embed. Only the REST API is used so no gateway connection is held.
type Discord struct {
	session   *discordgo.Session
	channelID string
}

func NewDiscord(token string, channelID string) (*Discord, error) {
	token, channelID = strings.TrimSpace(token), strings.TrimSpace(channelID)
	if token == "" || channelID == "" {
		return nil, ErrMissingConf
	}

	session, errSession := discordgo.New("Bot " + token)
	if errSession != nil {
		return nil, errors.Join(errSession, ErrSession)
	}

	return &Discord{session: session, channelID: channelID}, nil
}

func (d *Discord) Notify(ctx context.Context, server servers.Server, event history.Event) error {
	if _, errSend := d.session.ChannelMessageSendEmbed(d.channelID, ActionMessage(server, event),
		discordgo.WithContext(ctx)); errSend != nil {
		return errors.Join(errSend, ErrSend)
	}

	return nil
}

// Null discards everything.
type Null struct{}

func (Null) Notify(_ context.Context, _ servers.Server, _ history.Event) error {
	return nil
}
