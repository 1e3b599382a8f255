package cmd

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charlesshaw3/SimpleServers/internal/directory"
	"github.com/charlesshaw3/SimpleServers/internal/history"
	"github.com/charlesshaw3/SimpleServers/internal/servers"
	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
)

func renderServers(writer io.Writer, list []servers.Server) error {
	table := tablewriter.NewTable(writer)
	table.Header("ID", "Name", "Root", "RCON", "Updated")

	for _, server := range list {
		rcon := "-"
		if server.HasRCON() {
			rcon = server.RCONAddress
		}

		if errAppend := table.Append([]string{
			server.ServerID.String(), server.Name, server.RootPath, rcon, since(&server.UpdatedOn),
		}); errAppend != nil {
			return errAppend
		}
	}

	return table.Render()
}

func renderProfiles(writer io.Writer, dir directory.Directory) error {
	table := tablewriter.NewTable(writer)
	table.Header("Name", "UUID", "Op", "Whitelisted", "Banned", "Last Seen", "Last Action")

	for _, profile := range dir.Profiles {
		if errAppend := table.Append([]string{
			profile.Name,
			profile.ID,
			flag(profile.IsOp),
			flag(profile.IsWhitelisted),
			flag(profile.IsBanned),
			since(profile.LastSeenAt),
			since(profile.LastActionAt),
		}); errAppend != nil {
			return errAppend
		}
	}

	if errRender := table.Render(); errRender != nil {
		return errRender
	}

	_, errWrite := fmt.Fprintf(writer, "Online: %d/%d  Known: %d\n", len(dir.OnlinePlayers), dir.Capacity, len(dir.KnownPlayers))

	return errWrite
}

func renderHistory(writer io.Writer, events []history.Event) error {
	table := tablewriter.NewTable(writer)
	table.Header("When", "Kind", "Subject", "Detail", "Origin")

	for _, event := range events {
		if errAppend := table.Append([]string{
			since(&event.Timestamp), string(event.Kind), event.Subject, event.Detail, string(event.Origin),
		}); errAppend != nil {
			return errAppend
		}
	}

	return table.Render()
}

func flag(value bool) string {
	if value {
		return "yes"
	}

	return ""
}

func since(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "never"
	}

	return strings.TrimSpace(humanize.Time(*t))
}
