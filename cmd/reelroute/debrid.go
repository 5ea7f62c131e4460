package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/vmunix/reelroute/internal/debrid"
)

const defaultWatchInterval = 3 * time.Second

var debridCmd = &cobra.Command{
	Use:   "debrid",
	Short: "Drive debrid jobs by hand",
}

var debridAddCmd = &cobra.Command{
	Use:   "add <magnet>",
	Short: "Submit a magnet link and select all files",
	Args:  cobra.ExactArgs(1),
	RunE:  runDebridAddCmd,
}

var debridStatusCmd = &cobra.Command{
	Use:   "status <torrent-id>",
	Short: "Poll a debrid job once",
	Args:  cobra.ExactArgs(1),
	RunE:  runDebridStatusCmd,
}

var debridWatchCmd = &cobra.Command{
	Use:   "watch <torrent-id>",
	Short: "Poll a debrid job until it finishes",
	Long: `Poll a debrid job every few seconds and print progress until it
reaches a terminal status (downloaded, error, magnet_error, virus, dead).`,
	Args: cobra.ExactArgs(1),
	RunE: runDebridWatchCmd,
}

var debridUnrestrictCmd = &cobra.Command{
	Use:   "unrestrict <link>",
	Short: "Turn a hoster link into a direct stream URL",
	Args:  cobra.ExactArgs(1),
	RunE:  runDebridUnrestrictCmd,
}

var debridResolveCmd = &cobra.Command{
	Use:   "resolve <magnet>",
	Short: "Add a magnet and return stream URLs if it is already cached",
	Args:  cobra.ExactArgs(1),
	RunE:  runDebridResolveCmd,
}

var debridDeleteCmd = &cobra.Command{
	Use:   "delete <torrent-id>",
	Short: "Discard a debrid job",
	Args:  cobra.ExactArgs(1),
	RunE:  runDebridDeleteCmd,
}

func init() {
	rootCmd.AddCommand(debridCmd)
	debridCmd.AddCommand(debridAddCmd, debridStatusCmd, debridWatchCmd, debridUnrestrictCmd, debridResolveCmd, debridDeleteCmd)

	for _, c := range []*cobra.Command{debridStatusCmd, debridWatchCmd} {
		c.Flags().Int64("content", 0, "Library content id to attribute status events to")
	}
	debridWatchCmd.Flags().Duration("interval", defaultWatchInterval, "Polling interval")
}

func runDebridAddCmd(cmd *cobra.Command, args []string) error {
	client := NewClient(serverURL)
	job, err := client.AddMagnet(args[0])
	if err != nil {
		return fmt.Errorf("add magnet failed: %w", err)
	}
	if jsonOutput {
		printJSON(job)
		return nil
	}
	fmt.Printf("Added torrent %s (%s)\n", job.TorrentID, job.Status)
	fmt.Printf("Run 'reelroute debrid watch %s' to follow it.\n", job.TorrentID)
	return nil
}

func runDebridStatusCmd(cmd *cobra.Command, args []string) error {
	contentID, _ := cmd.Flags().GetInt64("content")

	client := NewClient(serverURL)
	job, err := client.TorrentStatus(args[0], contentID)
	if err != nil {
		return fmt.Errorf("status failed: %w", err)
	}
	if jsonOutput {
		printJSON(job)
		return nil
	}
	printJob(os.Stdout, job)
	return nil
}

func runDebridWatchCmd(cmd *cobra.Command, args []string) error {
	contentID, _ := cmd.Flags().GetInt64("content")
	interval, _ := cmd.Flags().GetDuration("interval")

	client := NewClient(serverURL)
	job, err := watchTorrent(cmd.Context(), client, args[0], contentID, interval, os.Stdout)
	if err != nil {
		return err
	}
	if jsonOutput {
		printJSON(job)
	}
	if job.Status.IsFailure() {
		return fmt.Errorf("torrent %s ended %s", job.TorrentID, job.Status)
	}
	return nil
}

// watchTorrent polls until the job is terminal or ctx is done. Each status
// change is written to out.
func watchTorrent(ctx context.Context, client *Client, torrentID string, contentID int64, interval time.Duration, out io.Writer) (*JobResponse, error) {
	if interval <= 0 {
		interval = defaultWatchInterval
	}

	var last *JobResponse
	for {
		job, err := client.TorrentStatus(torrentID, contentID)
		if err != nil {
			return nil, fmt.Errorf("poll %s: %w", torrentID, err)
		}
		if last == nil || last.Status != job.Status || last.Progress != job.Progress {
			printJob(out, job)
		}
		last = job
		if job.Status.IsTerminal() {
			return job, nil
		}

		select {
		case <-ctx.Done():
			return last, ctx.Err()
		case <-time.After(interval):
		}
	}
}

func printJob(out io.Writer, job *JobResponse) {
	_, _ = fmt.Fprintf(out, "%s  %-14s %3d%%", job.TorrentID, job.Status, job.Progress)
	if job.Filename != "" {
		_, _ = fmt.Fprintf(out, "  %s", job.Filename)
	}
	_, _ = fmt.Fprintln(out)
	if job.Error != "" {
		_, _ = fmt.Fprintf(out, "  error: %s\n", job.Error)
	}
	if job.Status == debrid.StatusDownloaded {
		for _, l := range job.Links {
			_, _ = fmt.Fprintf(out, "  link: %s\n", l)
		}
	}
}

func runDebridUnrestrictCmd(cmd *cobra.Command, args []string) error {
	client := NewClient(serverURL)
	stream, err := client.Unrestrict(args[0])
	if err != nil {
		return fmt.Errorf("unrestrict failed: %w", err)
	}
	if jsonOutput {
		printJSON(stream)
		return nil
	}
	fmt.Printf("%s\n", stream.DownloadURL)
	fmt.Printf("  file: %s  streamable: %v\n", stream.Filename, stream.Streamable)
	return nil
}

func runDebridResolveCmd(cmd *cobra.Command, args []string) error {
	client := NewClient(serverURL)
	out, err := client.ResolveMagnet(args[0])
	if err != nil {
		return fmt.Errorf("resolve failed: %w", err)
	}
	if jsonOutput {
		printJSON(out)
		return nil
	}

	if !out.Resolved {
		fmt.Printf("Torrent %s is %s (%d%%), not ready yet.\n", out.TorrentID, out.Status, out.Progress)
		if !out.Status.IsTerminal() {
			fmt.Printf("Run 'reelroute debrid watch %s' to follow it.\n", out.TorrentID)
		}
		return nil
	}
	fmt.Printf("Torrent %s resolved to %d stream(s):\n", out.TorrentID, len(out.Streams))
	for _, s := range out.Streams {
		fmt.Printf("  %s\n", s.DownloadURL)
	}
	return nil
}

func runDebridDeleteCmd(cmd *cobra.Command, args []string) error {
	client := NewClient(serverURL)
	if err := client.DeleteTorrent(args[0]); err != nil {
		return fmt.Errorf("delete failed: %w", err)
	}
	fmt.Printf("Deleted torrent %s\n", args[0])
	return nil
}
