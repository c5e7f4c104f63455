package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/s0up4200/moviemate/blocking"
	"github.com/s0up4200/moviemate/fetcher"
)

// testCmd represents the test command
var testCmd = &cobra.Command{
	Use:   "test",
	Short: "Test the connection to TMDB",
	Long: `Test the connection to the TMDB API and report which strategy got
through. Anything other than "direct" means the network is interfering.`,
	RunE: runTest,
}

func runTest(cmd *cobra.Command, args []string) error {
	fmt.Printf("Testing connection to TMDB at %s...\n", cfg.TMDB.BaseURL)

	ctx := cmd.Context()
	strategy, err := catalog.Ping(ctx)
	if err != nil {
		fmt.Println("✗ Connection failed")
		if blocking.IsRegionalBlock(err) {
			fmt.Printf("\n%s\n", blocking.HelpMessage())
		}
		return fmt.Errorf("connection test failed: %w", err)
	}

	fmt.Println("✓ Connection successful!")
	fmt.Printf("- Strategy: %s\n", strategy)
	if strategy != fetcher.StrategyDirect {
		fmt.Println("- The direct route failed; your network appears to block TMDB")
	}

	status := catalog.NetworkStatus(ctx)
	fmt.Printf("- Suspect network: %s\n", boolToStatus(status.SuspectNetwork))
	fmt.Printf("- Mirrors: %d, relay proxies: %d, retry rounds: %d\n",
		len(cfg.TMDB.Mirrors), len(cfg.Network.Proxies), cfg.Network.MaxRetries+1)

	return nil
}

func boolToStatus(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
