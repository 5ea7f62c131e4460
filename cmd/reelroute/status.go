package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show server status",
	Long: `Show which upstream services the server has configured, how much of
the library still lacks a stream, and the active mirror list.`,
	Args: cobra.NoArgs,
	RunE: runStatusCmd,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatusCmd(cmd *cobra.Command, args []string) error {
	client := NewClient(serverURL)
	status, err := client.Status()
	if err != nil {
		return fmt.Errorf("status check failed: %w", err)
	}

	if jsonOutput {
		printJSON(status)
		return nil
	}

	printStatus(serverURL, status)
	return nil
}

func printStatus(server string, s *StatusResponse) {
	fmt.Printf("reelroute | Server: %s (%s)\n\n", server, s.Status)

	fmt.Println("Services")
	fmt.Printf("  Catalog:     %s\n", onOff(s.Services.Catalog))
	fmt.Printf("  Debrid:      %s\n", onOff(s.Services.Debrid))
	indexer := onOff(s.Services.Indexer)
	if s.IndexerError != "" {
		indexer = "FAIL " + s.IndexerError
	}
	fmt.Printf("  Indexer:     %s\n", indexer)
	fmt.Printf("  Automation:  %s\n", onOff(s.Services.Automation))
	fmt.Printf("  Event log:   %s\n", onOff(s.Services.EventLog))
	fmt.Println()

	fmt.Println("Library")
	fmt.Printf("  Content:         %d\n", s.Content)
	fmt.Printf("  Without stream:  %d\n", s.MissingStream)
	fmt.Println()

	fmt.Printf("Mirrors (%d): %s\n", len(s.Mirrors), strings.Join(s.Mirrors, ", "))
}

func onOff(ok bool) string {
	if ok {
		return "configured"
	}
	return "not configured"
}
