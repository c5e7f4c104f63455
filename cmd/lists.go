package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/s0up4200/moviemate/tmdb"
)

var page int

func init() {
	rootCmd.AddCommand(
		listCommand("trending", "Show today's trending movies", "Trending movies", func(ctx context.Context) []tmdb.MediaRecord {
			return catalog.Trending(ctx)
		}),
		listCommand("popular", "Show popular movies", "Popular movies", func(ctx context.Context) []tmdb.MediaRecord {
			return catalog.Popular(ctx)
		}),
		listCommand("now-playing", "Show movies now playing in US theatres", "Now playing", func(ctx context.Context) []tmdb.MediaRecord {
			return catalog.NowPlaying(ctx)
		}),
	)

	topRatedCmd.Flags().IntVarP(&page, "page", "p", 1, "page number (1-500)")
	rootCmd.AddCommand(topRatedCmd)
}

// listCommand builds a command printing one catalog list. The fetch function
// reads catalog at run time, after initializeApp has built it.
func listCommand(use, short, heading string, fetch func(context.Context) []tmdb.MediaRecord) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			records := fetch(cmd.Context())
			if jsonOutput {
				return printJSON(records)
			}

			printRecords(heading, records)
			if len(records) == 0 {
				printNetworkAdvice(cmd.Context())
			}
			return nil
		},
	}
}

// topRatedCmd represents the top-rated command
var topRatedCmd = &cobra.Command{
	Use:       "top-rated [movie|tv]",
	Short:     "Show a page of top rated movies or TV shows",
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{"movie", "tv"},
	RunE:      runTopRated,
}

func runTopRated(cmd *cobra.Command, args []string) error {
	kind := tmdb.KindMovie
	if len(args) == 1 {
		var ok bool
		if kind, ok = tmdb.ParseMediaKind(args[0]); !ok {
			return fmt.Errorf("unknown kind %q, expected movie or tv", args[0])
		}
	}
	if page < 1 || page > tmdb.MaxTotalPages {
		return fmt.Errorf("--page must be between 1 and %d", tmdb.MaxTotalPages)
	}

	result := catalog.TopRated(cmd.Context(), kind, page)
	if jsonOutput {
		return printJSON(result)
	}

	heading := "Top rated movies"
	if kind == tmdb.KindTV {
		heading = "Top rated TV shows"
	}
	printRecords(heading, result.Results)
	fmt.Printf("\nPage %d of %d\n", result.Page, result.TotalPages)
	return nil
}
