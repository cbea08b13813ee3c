package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/rphilander/sexpr/server"
)

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Send one JSON request from stdin to a running server",
	Long: `Send one JSON request read from stdin to the socket server and print the
response. An id is added when the request has none. Example:

  echo '{"op": "run", "source": "(+ 1 2)"}' | sexpr send`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
		resp, err := send(cfg.Socket, data)
		if err != nil {
			return err
		}
		fmt.Println(resp)
		return nil
	},
}

// send delivers a raw JSON request to the server at sockPath and returns the
// indented response.
func send(sockPath string, data []byte) (string, error) {
	var msg map[string]any
	if err := json.Unmarshal(data, &msg); err != nil {
		return "", fmt.Errorf("parse JSON: %w", err)
	}
	if msg == nil {
		msg = map[string]any{}
	}

	client, err := server.Dial(sockPath)
	if err != nil {
		return "", err
	}
	defer client.Close()

	resp, err := client.Send(msg)
	if err != nil {
		return "", err
	}
	out, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return "", fmt.Errorf("format response: %w", err)
	}
	return string(out), nil
}

func init() {
	rootCmd.AddCommand(sendCmd)
}
