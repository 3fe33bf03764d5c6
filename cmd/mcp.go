package cmd

import (
	"github.com/kayz/modprompt/internal/logger"
	"github.com/kayz/modprompt/internal/mcpserver"
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve compose, options, inputs and negative as MCP tools over stdio",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newRuntime(false)
		if err != nil {
			return err
		}
		defer rt.Close()

		logger.Info("MCP server ready on stdio")
		return server.ServeStdio(mcpserver.NewServer(rt.adapter, Version))
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
