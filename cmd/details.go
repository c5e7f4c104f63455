package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/s0up4200/moviemate/tmdb"
)

var withCredits bool

// detailsCmd represents the details command
var detailsCmd = &cobra.Command{
	Use:   "details <movie|tv> <id>",
	Short: "Show full details of a movie or TV show",
	Args:  cobra.ExactArgs(2),
	RunE:  runDetails,
}

// trailerCmd represents the trailer command
var trailerCmd = &cobra.Command{
	Use:   "trailer <movie-id>",
	Short: "Print the YouTube link of a movie's trailer",
	Args:  cobra.ExactArgs(1),
	RunE:  runTrailer,
}

func init() {
	detailsCmd.Flags().BoolVar(&withCredits, "credits", false, "also show the main cast (movies only)")

	rootCmd.AddCommand(detailsCmd)
	rootCmd.AddCommand(trailerCmd)
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", raw)
	}
	return id, nil
}

func runDetails(cmd *cobra.Command, args []string) error {
	kind, ok := tmdb.ParseMediaKind(args[0])
	if !ok {
		return fmt.Errorf("unknown kind %q, expected movie or tv", args[0])
	}
	id, err := parseID(args[1])
	if err != nil {
		return err
	}

	ctx := cmd.Context()

	var rec, credits tmdb.MediaRecord
	if kind == tmdb.KindTV {
		rec = catalog.TVDetails(ctx, id)
	} else {
		rec = catalog.MovieDetails(ctx, id)
		if withCredits {
			credits = catalog.MovieCredits(ctx, id)
		}
	}

	if rec == nil {
		fmt.Printf("No %s found with id %d.\n", kind, id)
		printNetworkAdvice(ctx)
		return nil
	}

	if jsonOutput {
		if credits != nil {
			return printJSON(map[string]any{"details": rec, "credits": credits})
		}
		return printJSON(rec)
	}

	fmt.Printf("\n%s (%s)\n", rec.Title(), rec.ReleaseDate())
	fmt.Println(strings.Repeat("-", 80))
	fmt.Printf("Rating: %.1f\n", rec.VoteAverage())
	if tagline, _ := rec["tagline"].(string); tagline != "" {
		fmt.Printf("Tagline: %s\n", tagline)
	}
	if overview := rec.Overview(); overview != "" {
		fmt.Printf("\n%s\n", overview)
	}

	if credits != nil {
		printCast(credits, 10)
	}
	return nil
}

func printCast(credits tmdb.MediaRecord, limit int) {
	cast, _ := credits["cast"].([]any)
	if len(cast) == 0 {
		return
	}

	fmt.Printf("\nCast:\n")
	for i, c := range cast {
		if i == limit {
			break
		}
		member, ok := c.(map[string]any)
		if !ok {
			continue
		}
		name, _ := member["name"].(string)
		character, _ := member["character"].(string)
		if character != "" {
			fmt.Printf("  • %s as %s\n", name, character)
		} else {
			fmt.Printf("  • %s\n", name)
		}
	}
}

func runTrailer(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}

	trailer := catalog.MovieTrailer(cmd.Context(), id)
	if trailer == nil {
		fmt.Printf("No trailer found for movie %d.\n", id)
		return nil
	}

	if jsonOutput {
		return printJSON(trailer)
	}

	name, _ := trailer["name"].(string)
	site, _ := trailer["site"].(string)
	if strings.EqualFold(site, "YouTube") {
		fmt.Printf("%s\nhttps://www.youtube.com/watch?v=%s\n", name, trailer.Key())
	} else {
		fmt.Printf("%s\n%s video key: %s\n", name, site, trailer.Key())
	}
	return nil
}
