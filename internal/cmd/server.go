package cmd

import (
	"fmt"
	"os"

	"github.com/charlesshaw3/SimpleServers/internal/servers"
	"github.com/spf13/cobra"
)

func serverCmd() *cobra.Command {
	server := &cobra.Command{
		Use:   "server",
		Short: "Server functions",
		Long:  `Functionality for registering, listing and removing managed servers`,
	}

	server.AddCommand(serverListCmd())
	server.AddCommand(serverAddCmd())
	server.AddCommand(serverDeleteCmd())

	return server
}

func serverListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all servers",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), func(app *App) error {
				list, errList := app.registry.Servers(cmd.Context())
				if errList != nil {
					return errList
				}

				return renderServers(os.Stdout, list)
			})
		},
	}
}

func serverAddCmd() *cobra.Command {
	var rconAddress, rconPassword string

	add := &cobra.Command{
		Use:   "add <name> <root_path>",
		Short: "Register a server",
		Long:  `Register a new server in the database. Servers declared in the config file are registered on startup.`,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(app *App) error {
				if !app.config.Database.Enabled() {
					return ErrDatabaseDisabled
				}

				server := servers.NewServer(args[0], args[1])
				server.RCONAddress = rconAddress
				server.RCONPassword = rconPassword

				saved, errSave := app.registry.Save(cmd.Context(), server)
				if errSave != nil {
					return errSave
				}

				fmt.Printf("Added server %s (%s)\n", saved.Name, saved.ServerID) //nolint:forbidigo

				return nil
			})
		},
	}

	add.Flags().StringVar(&rconAddress, "rcon-address", "", "host:port of the server console")
	add.Flags().StringVar(&rconPassword, "rcon-password", "", "console password")

	return add
}

func serverDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <server>",
		Short: "Delete an existing server",
		Long: `Deletes an existing server and its recorded admin history. Player list files under the
server root are left untouched.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(app *App) error {
				if !app.config.Database.Enabled() {
					return ErrDatabaseDisabled
				}

				server, errServer := app.registry.Resolve(cmd.Context(), args[0])
				if errServer != nil {
					return errServer
				}

				if errDelete := app.registry.Delete(cmd.Context(), server.ServerID); errDelete != nil {
					return errDelete
				}

				fmt.Printf("Deleted server %s (%s)\n", server.Name, server.ServerID) //nolint:forbidigo

				return nil
			})
		},
	}
}
