package main

import (
	"fortio.org/log"
	mcpsrv "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/rphilander/sexpr/mcpserver"
	"github.com/rphilander/sexpr/server"
)

var mcpRemote bool

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the sexpr_run and sexpr_history tools over MCP stdio",
	Long: `Serve MCP tools over stdio. Runs happen in-process unless --remote is
set, in which case they are forwarded to the socket server.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var backend mcpserver.Backend
		if mcpRemote {
			client, err := server.Dial(cfg.Socket)
			if err != nil {
				return err
			}
			defer client.Close()
			log.Infof("forwarding MCP tools to %s", cfg.Socket)
			backend = mcpserver.Remote(client)
		} else {
			store, err := openHistory()
			if err != nil {
				return err
			}
			if store != nil {
				defer store.Close()
			}
			svc := server.NewService(serviceOptions(store))
			defer svc.Close()
			backend = mcpserver.Local(svc)
		}
		return mcpsrv.ServeStdio(mcpserver.NewServer(backend))
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)

	mcpCmd.Flags().BoolVar(&mcpRemote, "remote", false,
		"Forward tool calls to the running socket server")
}
