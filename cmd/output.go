package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/s0up4200/moviemate/session"
	"github.com/s0up4200/moviemate/tmdb"
)

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printRecords(heading string, records []tmdb.MediaRecord) {
	fmt.Print(formatRecords(heading, records))
}

// formatRecords renders records as a tree, one branch per title
func formatRecords(heading string, records []tmdb.MediaRecord) string {
	if len(records) == 0 {
		return fmt.Sprintf("\nNo %s found.\n", strings.ToLower(heading))
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "\n%s (%d):\n\n", heading, len(records))

	for i, r := range records {
		isLast := i == len(records)-1
		prefix := "\u251c"
		indent := "\u2502   "
		if isLast {
			prefix = "\u2570"
			indent = "    "
		}

		year := r.Year()
		if year == "" {
			year = "n/a"
		}
		fmt.Fprintf(&sb, "%s\u2500\u2500 %s (%s)\n", prefix, r.Title(), year)

		id, _ := r.ID()
		fmt.Fprintf(&sb, "%sRating: %.1f | ID: %d\n", indent, r.VoteAverage(), id)
		if overview := r.Overview(); overview != "" {
			fmt.Fprintf(&sb, "%s%s\n", indent, truncate(overview, 72))
		}

		if !isLast {
			sb.WriteString("\u2502\n")
		}
	}

	return sb.String()
}

func printRecommendations(rec session.Recommendations) error {
	if jsonOutput {
		return printJSON(rec)
	}

	printRecords("Movies", rec.Movies)
	printRecords("TV Shows", rec.Shows)
	fmt.Printf("\nFetched at %s\n", rec.FetchedAt.Format("15:04:05"))
	return nil
}

// printNetworkAdvice explains a suspected block after a command came back empty
func printNetworkAdvice(ctx context.Context) {
	status := catalog.NetworkStatus(ctx)
	if !status.Blocked && !status.SuspectNetwork {
		return
	}

	if status.Message != "" {
		fmt.Fprintf(os.Stderr, "\n⚠️  %s\n", status.Message)
	} else {
		fmt.Fprintln(os.Stderr, "\n⚠️  Your network is known to interfere with the catalog API.")
	}
	fmt.Fprintf(os.Stderr, "\n%s\n", status.Help)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
