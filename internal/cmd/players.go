package cmd

import (
	"os"
	"strings"

	"github.com/charlesshaw3/SimpleServers/internal/playeradmin"
	"github.com/spf13/cobra"
)

func playersCmd() *cobra.Command {
	players := &cobra.Command{
		Use:   "players",
		Short: "Inspect and change a server's player lists",
	}

	players.AddCommand(playersDirectoryCmd())

	for _, action := range playeradmin.ActionTypes() {
		players.AddCommand(playerActionCmd(action))
	}

	return players
}

func playersDirectoryCmd() *cobra.Command {
	var (
		limit       int
		filter      string
		showHistory bool
	)

	directoryCmd := &cobra.Command{
		Use:   "directory <server>",
		Short: "Show every known player with their list memberships",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(app *App) error {
				server, errServer := app.registry.Resolve(cmd.Context(), args[0])
				if errServer != nil {
					return errServer
				}

				dir := app.builder.BuildFor(cmd.Context(), server, limit).FilterProfiles(filter)
				if errRender := renderProfiles(os.Stdout, dir); errRender != nil {
					return errRender
				}

				if !showHistory {
					return nil
				}

				return renderHistory(os.Stdout, dir.History)
			})
		},
	}

	directoryCmd.Flags().IntVar(&limit, "history-limit", 0, "maximum history events, 0 uses the configured default")
	directoryCmd.Flags().StringVar(&filter, "filter", "", "glob pattern matched against player names")
	directoryCmd.Flags().BoolVar(&showHistory, "history", false, "also print the merged history")

	return directoryCmd
}

// playerActionCmd maps an action tag onto a subcommand, eg. ban_ip becomes ban-ip.
func playerActionCmd(action playeradmin.ActionType) *cobra.Command {
	var req playeradmin.ActionRequest

	use := strings.ReplaceAll(string(action), "_", "-")

	actionCmd := &cobra.Command{
		Use:   use + " <server> <target>",
		Short: "Apply the " + use + " action",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			req.Action = action
			req.Name = args[1]

			act, errAction := req.ToAction()
			if errAction != nil {
				return errAction
			}

			return withApp(cmd.Context(), func(app *App) error {
				server, errServer := app.registry.Resolve(cmd.Context(), args[0])
				if errServer != nil {
					return errServer
				}

				dir, errApply := app.gateway.Apply(cmd.Context(), server.ServerID, act)
				if errApply != nil {
					return errApply
				}

				return renderProfiles(os.Stdout, dir)
			})
		},
	}

	switch action {
	case playeradmin.ActionOp, playeradmin.ActionWhitelist, playeradmin.ActionBan:
		actionCmd.Flags().StringVar(&req.UUID, "uuid", "", "player uuid, synthesized from the name when omitted")
	case playeradmin.ActionDeop, playeradmin.ActionUnwhitelist, playeradmin.ActionUnban:
		actionCmd.Flags().StringVar(&req.UUID, "uuid", "", "match on uuid instead of the target name")
	case playeradmin.ActionBanIP, playeradmin.ActionUnbanIP:
	}

	switch action { //nolint:exhaustive
	case playeradmin.ActionOp:
		var noBypass bool

		actionCmd.Flags().IntVar(&req.Level, "level", 4, "operator permission level 1-4")
		actionCmd.Flags().BoolVar(&noBypass, "no-bypass", false, "do not let the operator bypass the player limit")
		actionCmd.PreRun = func(_ *cobra.Command, _ []string) {
			bypass := !noBypass
			req.BypassesPlayerLimit = &bypass
		}
	case playeradmin.ActionBan, playeradmin.ActionBanIP:
		actionCmd.Flags().StringVar(&req.Reason, "reason", "", "ban reason")
		actionCmd.Flags().StringVar(&req.Expires, "expires", "", "expiry, defaults to forever")
	}

	return actionCmd
}
