package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vmunix/reelroute/internal/automation"
)

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Propose free watch links for items without a source",
	Long: `Look up every item that has no source in the offers catalog and
propose watch links from the free offers found. Each proposal is
confirmed before it is written, unless --approve-all is given.`,
	Args: cobra.NoArgs,
	RunE: runRefreshCmd,
}

func init() {
	rootCmd.AddCommand(refreshCmd)
	refreshCmd.Flags().Int("limit", 0, "Maximum items to look up (0 for all)")
	refreshCmd.Flags().Bool("approve-all", false, "Apply every proposal without asking")
	refreshCmd.Flags().Bool("dry-run", false, "Show proposals without applying any")
}

func runRefreshCmd(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")
	approveAll, _ := cmd.Flags().GetBool("approve-all")
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	client := NewClient(serverURL)
	report, err := client.Refresh(limit)
	if err != nil {
		return fmt.Errorf("refresh failed: %w", err)
	}

	if jsonOutput && (dryRun || !approveAll) {
		printJSON(report)
		return nil
	}
	if !jsonOutput {
		printRefreshReport(report)
	}
	if dryRun || len(report.Proposals) == 0 {
		return nil
	}

	var approved []int64
	if approveAll {
		for _, p := range report.Proposals {
			approved = append(approved, p.ContentID)
		}
	} else {
		approved = confirmProposals(report.Proposals, os.Stdin, os.Stdout)
	}
	if len(approved) == 0 {
		fmt.Println("Nothing approved")
		return nil
	}

	applied, err := client.Apply(report.Proposals, approved)
	if err != nil {
		return fmt.Errorf("apply failed: %w", err)
	}
	if jsonOutput {
		printJSON(applied)
		return nil
	}
	fmt.Printf("Applied %d, skipped %d\n", len(applied.Applied), len(applied.Skipped))
	return nil
}

func printRefreshReport(r *automation.RefreshReport) {
	fmt.Printf("Run %s: %d scanned, %d proposals, %d unmatched\n\n",
		r.RunID, r.Scanned, len(r.Proposals), len(r.Unmatched))

	for i := range r.Proposals {
		p := &r.Proposals[i]
		fmt.Printf("  #%-5d %s -> %s (tier %d, %s)\n", p.ContentID, p.Title, p.MatchedTitle, p.MatchTier, p.Confidence)
		keys := make([]string, 0, len(p.Links))
		for k := range p.Links {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		for _, k := range keys {
			fmt.Printf("          %-20s %s\n", k, p.Links[k])
		}
	}
	if len(r.Unmatched) > 0 {
		fmt.Println("\nUnmatched:")
		for _, u := range r.Unmatched {
			fmt.Printf("  #%-5d %-36s %s\n", u.ContentID, truncate(u.Title, 36), u.Reason)
		}
	}
	fmt.Println()
}

// confirmProposals asks y/N for each proposal and returns the approved ids.
// Reading stops at EOF; unanswered proposals are not approved.
func confirmProposals(proposals []automation.Proposal, in io.Reader, out io.Writer) []int64 {
	reader := bufio.NewReader(in)
	var approved []int64
	for i := range proposals {
		p := &proposals[i]
		_, _ = fmt.Fprintf(out, "Apply %d link(s) to #%d %s? [y/N]: ", len(p.Links), p.ContentID, p.Title)
		line, err := reader.ReadString('\n')
		answer := strings.ToLower(strings.TrimSpace(line))
		if answer == "y" || answer == "yes" {
			approved = append(approved, p.ContentID)
		}
		if err != nil {
			break
		}
	}
	return approved
}
