package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vmunix/reelroute/internal/events"
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Show recent events",
	RunE:  runEventsCmd,
}

func init() {
	rootCmd.AddCommand(eventsCmd)
	eventsCmd.Flags().IntP("limit", "n", 20, "Number of events to show")
}

func runEventsCmd(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")

	client := NewClient(serverURL)
	resp, err := client.Events(limit)
	if err != nil {
		return fmt.Errorf("failed to fetch events: %w", err)
	}

	if jsonOutput {
		printJSON(resp)
		return nil
	}

	if len(resp.Items) == 0 {
		fmt.Println("No events")
		return nil
	}

	reg := events.DefaultRegistry()
	fmt.Printf("Recent Events (%d):\n\n", resp.Total)
	fmt.Printf("  %-10s %-28s %-14s %s\n", "TIME", "TYPE", "ENTITY", "DETAIL")
	fmt.Println("  " + strings.Repeat("-", 80))

	for _, e := range resp.Items {
		entity := fmt.Sprintf("%s/%d", e.EntityType, e.EntityID)
		fmt.Printf("  %-10s %-28s %-14s %s\n", formatTimeAgo(e.OccurredAt), e.EventType, entity, describeEvent(reg, e))
	}

	return nil
}

// describeEvent summarizes a known event payload in one line.
func describeEvent(reg *events.Registry, e EventResponse) string {
	ev, err := reg.Unmarshal(events.RawEvent{EventType: e.EventType, Payload: e.Payload})
	if err != nil {
		return ""
	}
	switch ev := ev.(type) {
	case *events.DebridStatusChanged:
		from := ev.From
		if from == "" {
			from = "new"
		}
		return fmt.Sprintf("%s %s -> %s (%d%%)", ev.TorrentID, from, ev.To, ev.Progress)
	case *events.AutoResolveCompleted:
		if ev.StreamURL != "" {
			return fmt.Sprintf("%s -> %s", ev.ReleaseName, ev.StreamURL)
		}
		return fmt.Sprintf("%s -> torrent %s %s", ev.ReleaseName, ev.TorrentID, ev.Status)
	case *events.AutoResolveFailed:
		return ev.Reason
	case *events.BulkResolveFinished:
		return fmt.Sprintf("%d attempted, %d ok, %d failed", ev.Attempted, ev.Succeeded, ev.Failed)
	case *events.CatalogRefreshed:
		return fmt.Sprintf("%d scanned, %d proposals", ev.Scanned, ev.Proposals)
	case *events.CatalogApplied:
		return strings.Join(ev.Providers, ", ")
	}
	return ""
}
