package main

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spf13/cobra"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check if the server is running",
	Long: `Check if the Flockr server is running.

Environment:
  SERVER_URL  Server base URL (default: http://localhost:8080)`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		url := envOr("SERVER_URL", "http://localhost:8080") + "/health"
		fmt.Printf("checking %s ...\n", url)

		client := &http.Client{Timeout: 5 * time.Second}
		resp, err := client.Get(url)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		body, _ := io.ReadAll(resp.Body)
		fmt.Printf("status: %d\n", resp.StatusCode)
		if len(body) > 0 {
			fmt.Printf("body:   %s\n", string(body))
		}

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("server returned non-200 status")
		}
		fmt.Println("server is healthy")
		return nil
	},
}
