package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/vmunix/reelroute/internal/automation"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve [content-id]",
	Short: "Auto-resolve stream URLs through the torrent index and debrid",
	Long: `Search the torrent index for a title, hand the best seeded torrent to
debrid and store the resulting stream URL as the item's embed.

With --batch, walk up to N items that have no source at all, one at a time.

Examples:
  reelroute resolve 42
  reelroute resolve --batch 10`,
	Args: cobra.MaximumNArgs(1),
	RunE: runResolveCmd,
}

func init() {
	rootCmd.AddCommand(resolveCmd)
	resolveCmd.Flags().Int("batch", 0, "Resolve up to N items without a source (0 uses the server default)")
}

func runResolveCmd(cmd *cobra.Command, args []string) error {
	client := NewClient(serverURL)

	if len(args) == 0 {
		limit, _ := cmd.Flags().GetInt("batch")
		report, err := client.BulkResolve(limit)
		if err != nil {
			return fmt.Errorf("bulk resolve failed: %w", err)
		}
		if jsonOutput {
			printJSON(report)
			return nil
		}
		printBatchReport(report)
		return nil
	}

	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid content ID: %s", args[0])
	}
	res, err := client.AutoResolve(id)
	if err != nil {
		return fmt.Errorf("resolve failed: %w", err)
	}
	if jsonOutput {
		printJSON(res)
		return nil
	}
	printResolveResult(&res.ResolveResult)
	return nil
}

func printResolveResult(r *automation.ResolveResult) {
	fmt.Printf("#%d %s\n", r.ContentID, r.Title)
	fmt.Printf("  Query:    %s\n", r.Query)
	fmt.Printf("  Release:  %s (%d seeders, %s confidence)\n", r.ReleaseName, r.Seeders, r.Confidence)
	fmt.Printf("  Torrent:  %s %s %d%%\n", r.TorrentID, r.Status, r.Progress)
	if r.Resolved {
		fmt.Printf("  Stream:   %s\n", r.StreamURL)
		return
	}
	fmt.Printf("  Not ready yet. Run 'reelroute debrid watch %s --content %d'.\n", r.TorrentID, r.ContentID)
}

func printBatchReport(r *automation.BatchReport) {
	fmt.Printf("Run %s: %d attempted, %d resolved or queued, %d failed (%s)\n\n",
		r.RunID, r.Attempted, len(r.Succeeded), len(r.Failed), r.Duration.Round(time.Millisecond))

	for i := range r.Succeeded {
		s := &r.Succeeded[i]
		state := "stream stored"
		if !s.Resolved {
			state = fmt.Sprintf("torrent %s %s", s.TorrentID, s.Status)
		}
		fmt.Printf("  ok    #%-5d %-36s %s\n", s.ContentID, truncate(s.Title, 36), state)
	}
	for _, f := range r.Failed {
		fmt.Printf("  FAIL  #%-5d %-36s %s\n", f.ContentID, truncate(f.Title, 36), f.Error)
	}
}
