package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var (
	pairServer string
	pairName   string
)

var pairCmd = &cobra.Command{
	Use:   "pair",
	Short: "Register this tracker with a server and print the pairing token",
	Long: `Registers a player on the server and prints the token to put under
submit.token in config.yaml. Pairing is a one-time step per machine.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		server := pairServer
		if server == "" {
			server = cfg.Submit.BaseURL
		}
		if server == "" {
			return eris.New("pair: no server configured (set submit.base_url or --server)")
		}
		if pairName == "" {
			return eris.New("pair: --name is required")
		}

		body, err := json.Marshal(map[string]string{"name": pairName})
		if err != nil {
			return eris.Wrap(err, "pair: marshal request")
		}

		client := &http.Client{Timeout: 10 * time.Second}
		resp, err := client.Post(server+"/api/players", "application/json", bytes.NewReader(body))
		if err != nil {
			return eris.Wrap(err, "pair: post")
		}
		defer func() { _ = resp.Body.Close() }()

		if resp.StatusCode != http.StatusCreated {
			msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			return eris.Errorf("pair: server returned %d: %s", resp.StatusCode, string(msg))
		}

		var result struct {
			PlayerID string `json:"player_id"`
			Token    string `json:"token"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
			return eris.Wrap(err, "pair: decode response")
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "paired as %q (player %s)\n", pairName, result.PlayerID)
		fmt.Fprintf(out, "add to config.yaml:\n\nsubmit:\n  base_url: %s\n  token: %s\n  player_name: %s\n", server, result.Token, pairName)
		return nil
	},
}

func init() {
	pairCmd.Flags().StringVar(&pairServer, "server", "", "server base URL (default from config)")
	pairCmd.Flags().StringVar(&pairName, "name", "", "player display name")
	rootCmd.AddCommand(pairCmd)
}
