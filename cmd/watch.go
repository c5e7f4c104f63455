package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/s0up4200/moviemate/session"
)

// watchCmd represents the watch command
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Recommend titles and refresh them whenever they go idle",
	Long: `Run discover once, then keep the results fresh: every check interval the
results are refreshed with a cleared cache once they are older than the idle
threshold. Stop with Ctrl+C.`,
	RunE: runWatch,
}

func init() {
	addFilterFlags(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	criteria, err := filterCriteria()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	rec, err := sess.RecommendWhere(ctx, criteria, whereExpr)
	if err != nil {
		return fmt.Errorf("invalid --where expression: %w", err)
	}
	if err := printRecommendations(rec); err != nil {
		return err
	}

	if _, ok := sess.Active(); !ok {
		printNetworkAdvice(ctx)
		return fmt.Errorf("nothing to watch: no recommendations found for this filter")
	}

	logger.Info().
		Dur("check_interval", cfg.Refresh.CheckInterval).
		Dur("idle_after", cfg.Refresh.IdleAfter).
		Msg("Watching for idle recommendations")

	err = sess.Run(ctx, func(r session.Recommendations) {
		if err := printRecommendations(r); err != nil {
			logger.Error().Err(err).Msg("Failed to print recommendations")
		}
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
