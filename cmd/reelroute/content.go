package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vmunix/reelroute/internal/library"
)

var contentCmd = &cobra.Command{
	Use:   "content",
	Short: "Manage library content",
}

var contentListCmd = &cobra.Command{
	Use:   "list",
	Short: "List library content",
	Args:  cobra.NoArgs,
	RunE:  runContentListCmd,
}

var contentAddCmd = &cobra.Command{
	Use:   "add <title>",
	Short: "Add a title to the library",
	Args:  cobra.ExactArgs(1),
	RunE:  runContentAddCmd,
}

var contentPlanCmd = &cobra.Command{
	Use:   "plan <content-id>",
	Short: "Show the playback plan for a title",
	Args:  cobra.ExactArgs(1),
	RunE:  runContentPlanCmd,
}

func init() {
	rootCmd.AddCommand(contentCmd)
	contentCmd.AddCommand(contentListCmd, contentAddCmd, contentPlanCmd)

	contentListCmd.Flags().String("missing", "", "Only items missing a source (embed or stream)")
	contentListCmd.Flags().IntP("limit", "n", 50, "Maximum items")

	contentAddCmd.Flags().Int("year", 0, "Release year")
	contentAddCmd.Flags().String("type", "movie", "Content type (movie or tv)")
	contentAddCmd.Flags().IntP("season", "s", 0, "Season number")
	contentAddCmd.Flags().IntP("episode", "e", 0, "Episode number")
	contentAddCmd.Flags().String("id", "", "TMDB id")
}

func runContentListCmd(cmd *cobra.Command, args []string) error {
	missing, _ := cmd.Flags().GetString("missing")
	limit, _ := cmd.Flags().GetInt("limit")

	client := NewClient(serverURL)
	resp, err := client.ListContent(missing, limit)
	if err != nil {
		return fmt.Errorf("list content failed: %w", err)
	}
	if jsonOutput {
		printJSON(resp)
		return nil
	}

	if len(resp.Items) == 0 {
		fmt.Println("No content")
		return nil
	}
	fmt.Printf("Content (%d of %d):\n\n", len(resp.Items), resp.Total)
	fmt.Printf("  %5s │ %-40s │ %-5s │ %s\n", "ID", "TITLE", "TYPE", "SOURCES")
	fmt.Println("  ──────┼──────────────────────────────────────────┼───────┼────────")
	for i := range resp.Items {
		c := &resp.Items[i]
		fmt.Printf("  %5d │ %-40s │ %-5s │ %s\n", c.ID, truncate(displayTitle(c.ContentRef), 40), c.MediaType, sourceSummary(c))
	}
	return nil
}

func displayTitle(r library.ContentRef) string {
	title := r.Title
	if r.Year > 0 {
		title = fmt.Sprintf("%s (%d)", title, r.Year)
	}
	if r.IsEpisode() {
		title = fmt.Sprintf("%s S%02dE%02d", title, r.Season, r.Episode)
	}
	return title
}

func sourceSummary(c *library.Content) string {
	var parts []string
	if c.VideoEmbedURL != "" {
		parts = append(parts, "embed")
	}
	if n := len(c.ExternalWatchLinks); n > 0 {
		parts = append(parts, fmt.Sprintf("%d links", n))
	}
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, ", ")
}

func runContentAddCmd(cmd *cobra.Command, args []string) error {
	year, _ := cmd.Flags().GetInt("year")
	mediaType, _ := cmd.Flags().GetString("type")
	season, _ := cmd.Flags().GetInt("season")
	episode, _ := cmd.Flags().GetInt("episode")
	externalID, _ := cmd.Flags().GetString("id")

	ref := library.ContentRef{
		Title:      args[0],
		Year:       year,
		MediaType:  library.ContentType(mediaType),
		Season:     season,
		Episode:    episode,
		ExternalID: externalID,
	}

	client := NewClient(serverURL)
	c, err := client.AddContent(ref)
	if err != nil {
		return fmt.Errorf("add content failed: %w", err)
	}
	if jsonOutput {
		printJSON(c)
		return nil
	}
	fmt.Printf("Added #%d %s\n", c.ID, displayTitle(c.ContentRef))
	return nil
}

func runContentPlanCmd(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid content ID: %s", args[0])
	}

	client := NewClient(serverURL)
	plan, err := client.Plan(id)
	if err != nil {
		return fmt.Errorf("plan failed: %w", err)
	}
	if jsonOutput {
		printJSON(plan)
		return nil
	}
	printPlan(plan)
	return nil
}

func printPlan(p *PlanResponse) {
	if p.DefaultIndex < 0 {
		fmt.Println("Nothing to play: no curated source and no mirrors")
	} else {
		fmt.Printf("Playback order (%d):\n", len(p.Sources))
		for i, s := range p.Sources {
			marker := " "
			if i == p.DefaultIndex {
				marker = "*"
			}
			fmt.Printf("  %s %d. %-12s %-7s %-8s %s\n", marker, i, s.Name, s.Kind, s.Origin, s.URL)
		}
	}

	if len(p.ExternalLinks) > 0 {
		fmt.Println("\nWatch elsewhere:")
		for _, l := range p.ExternalLinks {
			fmt.Printf("  %-20s %s\n", l.Key, l.URL)
		}
	}
}
