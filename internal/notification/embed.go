package notification

import (
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/charlesshaw3/SimpleServers/internal/history"
	"github.com/charlesshaw3/SimpleServers/internal/servers"
	embed "github.com/leighmacdonald/discordgo-embed"
)

const (
	ColourSuccess = 302673
	ColourInfo    = 3581519
	ColourWarn    = 14327864
	ColourError   = 13631488

	providerName = "SimpleServers"
)

func title(kind history.Kind) string {
	switch kind {
	case history.OpAdd:
		return "Operator added"
	case history.OpRemove:
		return "Operator removed"
	case history.WhitelistAdd:
		return "Player whitelisted"
	case history.WhitelistRemove:
		return "Player removed from whitelist"
	case history.PlayerBan:
		return "Player banned"
	case history.PlayerUnban:
		return "Player unbanned"
	case history.IPBan:
		return "IP banned"
	case history.IPUnban:
		return "IP unbanned"
	default:
		return string(kind)
	}
}

func colour(kind history.Kind) int {
	switch kind {
	case history.PlayerBan, history.IPBan:
		return ColourError
	case history.OpAdd, history.OpRemove:
		return ColourWarn
	case history.WhitelistAdd:
		return ColourSuccess
	default:
		return ColourInfo
	}
}

// ActionMessage renders an admin event on a server.
func ActionMessage(server servers.Server, event history.Event) *discordgo.MessageEmbed {
	msgEmbed := embed.NewEmbed().
		SetTitle(title(event.Kind)).
		SetDescription(event.Detail).
		SetColor(colour(event.Kind)).
		SetFooter(providerName)

	msgEmbed.AddField("Server", server.Name).MakeFieldInline()
	msgEmbed.AddField("Target", event.Subject).MakeFieldInline()

	message := msgEmbed.Truncate().MessageEmbed
	if !event.Timestamp.IsZero() {
		message.Timestamp = event.Timestamp.UTC().Format(time.RFC3339)
	}

	return message
}
