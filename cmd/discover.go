package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/s0up4200/moviemate/tmdb"
)

var (
	industry      string
	year          string
	genre         string
	contentRating string
	whereExpr     string
)

// discoverCmd represents the discover command
var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Recommend movies and TV shows matching the filter",
	Long: `Recommend up to three movies and three TV shows from a random page of
results matching the industry, year, genre and content rating. An optional
--where expression narrows the results further, for example:

  moviemate discover --industry Korean --year 2021 --where 'vote_average >= 7'`,
	RunE: runDiscover,
}

func init() {
	addFilterFlags(discoverCmd)
}

func addFilterFlags(cmd *cobra.Command) {
	var names []string
	for _, ind := range tmdb.Industries() {
		names = append(names, ind.Name)
	}

	cmd.Flags().StringVarP(&industry, "industry", "i", "", "film industry: "+strings.Join(names, ", "))
	cmd.Flags().StringVarP(&year, "year", "y", "", "release year")
	cmd.Flags().StringVarP(&genre, "genre", "g", "", "TMDB genre id, e.g. 18 for drama")
	cmd.Flags().StringVarP(&contentRating, "rating", "r", "", "content rating, movies only (needs --industry)")
	cmd.Flags().StringVarP(&whereExpr, "where", "w", "", "filter expression applied to the results")
}

func filterCriteria() (tmdb.FilterCriteria, error) {
	if industry != "" {
		if _, ok := tmdb.LookupIndustry(industry); !ok {
			return tmdb.FilterCriteria{}, fmt.Errorf("unknown industry %q", industry)
		}
	}
	return tmdb.FilterCriteria{
		Industry:      industry,
		Year:          year,
		Genre:         genre,
		ContentRating: contentRating,
	}, nil
}

func runDiscover(cmd *cobra.Command, args []string) error {
	criteria, err := filterCriteria()
	if err != nil {
		return err
	}

	logger.Info().Interface("filter", criteria).Msg("Discovering recommendations")

	ctx := cmd.Context()
	rec, err := sess.RecommendWhere(ctx, criteria, whereExpr)
	if err != nil {
		return fmt.Errorf("invalid --where expression: %w", err)
	}

	if err := printRecommendations(rec); err != nil {
		return err
	}
	if rec.Empty() {
		printNetworkAdvice(ctx)
	}
	return nil
}
