package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vmunix/reelroute/internal/catalog"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources <external-id>",
	Short: "List fallback mirror URLs for a title",
	Long: `List the fallback embed mirrors for a TMDB id in priority order.

Examples:
  reelroute sources 27205
  reelroute sources 1396 --type tv -s 1 -e 2`,
	Args: cobra.ExactArgs(1),
	RunE: runSourcesCmd,
}

var lookupCmd = &cobra.Command{
	Use:   "lookup [title]",
	Short: "Look up free streaming offers for a title",
	Long: `Match a title against the offers catalog and list where it can be
watched. With --id and no title, the title is filled in from TMDB.

Examples:
  reelroute lookup "Night of the Living Dead" --year 1968
  reelroute lookup --id 1396 --type tv`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLookupCmd,
}

func init() {
	rootCmd.AddCommand(sourcesCmd)
	sourcesCmd.Flags().String("type", "movie", "Content type (movie or tv)")
	sourcesCmd.Flags().IntP("season", "s", 0, "Season number")
	sourcesCmd.Flags().IntP("episode", "e", 0, "Episode number")

	rootCmd.AddCommand(lookupCmd)
	lookupCmd.Flags().Int("year", 0, "Release year")
	lookupCmd.Flags().String("type", "", "Content type (movie or tv)")
	lookupCmd.Flags().String("id", "", "TMDB id")
	lookupCmd.Flags().Bool("all", false, "Show paid offers too")
}

func runSourcesCmd(cmd *cobra.Command, args []string) error {
	mediaType, _ := cmd.Flags().GetString("type")
	season, _ := cmd.Flags().GetInt("season")
	episode, _ := cmd.Flags().GetInt("episode")

	client := NewClient(serverURL)
	resp, err := client.Sources(args[0], mediaType, season, episode)
	if err != nil {
		return fmt.Errorf("list sources failed: %w", err)
	}

	if jsonOutput {
		printJSON(resp)
		return nil
	}

	if resp.Total == 0 {
		fmt.Println("No mirrors enabled")
		return nil
	}
	fmt.Printf("Mirrors (%d):\n\n", resp.Total)
	for _, s := range resp.Sources {
		fmt.Printf("  %2d  %-12s %s\n", s.Priority, s.Name, s.URL)
	}
	return nil
}

func runLookupCmd(cmd *cobra.Command, args []string) error {
	year, _ := cmd.Flags().GetInt("year")
	mediaType, _ := cmd.Flags().GetString("type")
	externalID, _ := cmd.Flags().GetString("id")
	showAll, _ := cmd.Flags().GetBool("all")

	req := LookupRequest{Year: year, MediaType: mediaType, ExternalID: externalID}
	if len(args) > 0 {
		req.Title = args[0]
	}
	if req.Title == "" && req.ExternalID == "" {
		return fmt.Errorf("a title or --id is required")
	}

	client := NewClient(serverURL)
	res, err := client.Lookup(req)
	if err != nil {
		return fmt.Errorf("lookup failed: %w", err)
	}

	if jsonOutput {
		printJSON(res)
		return nil
	}

	printLookup(res, showAll)
	return nil
}

func printLookup(r *catalog.Result, showAll bool) {
	if !r.Found {
		fmt.Println("No catalog match")
		return
	}

	fmt.Printf("Matched: %s", r.MatchedTitle)
	if r.MatchedYear > 0 {
		fmt.Printf(" (%d)", r.MatchedYear)
	}
	fmt.Printf("  [tier %d, %s confidence, via %s]\n\n", r.MatchTier, r.Confidence, r.Source)

	printOffers("Free offers", r.FreeOffers)
	if showAll {
		fmt.Println()
		printOffers("All offers", r.AllOffers)
	}
}

func printOffers(label string, offers []catalog.StreamOffer) {
	if len(offers) == 0 {
		fmt.Printf("%s: none\n", label)
		return
	}
	fmt.Printf("%s (%d):\n", label, len(offers))
	fmt.Printf("  %-24s %-10s %s\n", "PROVIDER", "TYPE", "URL")
	fmt.Println("  " + strings.Repeat("-", 70))
	for _, o := range offers {
		fmt.Printf("  %-24s %-10s %s\n", truncate(o.ProviderName, 24), o.Monetization, o.URL)
	}
}
