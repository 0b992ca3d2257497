// Command skins-sim generates random skins games and either writes them to a
// file or plays them against a running skinsd and verifies the settlements.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/okian/skins/internal/config"
	"github.com/okian/skins/internal/domain/course"
	"github.com/okian/skins/internal/domain/skins"
	"github.com/okian/skins/internal/simulate"
	"github.com/okian/skins/pkg/logger"
)

var (
	baseURL string
	logFile string
	verbose bool

	games         int
	players       int
	maxPerGame    int
	workers       int
	seed          uint64
	outputFile    string
	coursePreset  string
	generatedFile string

	runCfg  simulate.Config
	scoring = config.New()
)

func runSimulation(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	closer, err := simulate.SetupLogging(logFile, verbose)
	if err != nil {
		return err
	}
	defer func() { _ = closer.Close() }()

	if _, err := course.ParseStrokePolicy(scoring.StrokePolicy); err != nil {
		return err
	}
	if _, err := skins.ParseDisplayRounding(scoring.DisplayRounding); err != nil {
		return err
	}
	runCfg.BaseURL = baseURL
	runCfg.Games = games
	runCfg.Players = players
	runCfg.MaxPerGame = maxPerGame
	runCfg.Workers = workers
	runCfg.Seed = seed
	runCfg.Output = outputFile
	runCfg.Verbose = verbose

	stats, err := simulate.NewRunner(runCfg, scoring.EngineOptions()...).Run(ctx)
	fmt.Printf("generated %d, accepted %d, duplicate %d, rejected %d\n",
		stats.Generated, stats.Accepted, stats.Duplicate, stats.Rejected)
	fmt.Printf("settled %d, failed %d, verified %d, distributed %d in %v\n",
		stats.Settled, stats.Failed, stats.Verified, stats.Pot, stats.Duration)
	return err
}

func generateGames(cmd *cobra.Command, args []string) error {
	closer, err := simulate.SetupLogging(logFile, verbose)
	if err != nil {
		return err
	}
	defer func() { _ = closer.Close() }()

	cfg := config.New()
	cfg.CoursePreset = coursePreset
	profile, err := cfg.Profile()
	if err != nil {
		return err
	}
	out := simulate.NewGenerator(profile, players, maxPerGame, seed).Generate(games)
	if err := simulate.SaveGames(generatedFile, out); err != nil {
		return err
	}
	logger.Get().Info(context.Background(), "games written",
		logger.String("file", generatedFile),
		logger.String("course", profile.Name),
		logger.Int("games", len(out)),
	)
	return nil
}

func main() {
	rootCmd := &cobra.Command{
		Use:           "skins-sim",
		Short:         "Generate and verify skins games",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&logFile, "log", "", "Also write logs to this file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Debug logging and per-game output")
	rootCmd.PersistentFlags().IntVar(&games, "games", simulate.DefaultGames, "Number of games to generate")
	rootCmd.PersistentFlags().IntVar(&players, "players", simulate.DefaultPlayers, "Size of the player pool")
	rootCmd.PersistentFlags().IntVar(&maxPerGame, "max-per-game", simulate.DefaultMaxPerGame, "Most participants in one game")
	rootCmd.PersistentFlags().Uint64Var(&seed, "seed", 1, "Generator seed")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Play generated games against a running server",
		RunE:  runSimulation,
	}
	runCmd.Flags().StringVar(&baseURL, "url", "http://localhost:9080", "Base URL of skinsd")
	runCmd.Flags().IntVar(&workers, "workers", 8, "Concurrent submitters")
	runCmd.Flags().DurationVar(&runCfg.Timeout, "timeout", simulate.DefaultTimeout, "HTTP request timeout")
	runCmd.Flags().DurationVar(&runCfg.SettleTimeout, "settle-timeout", simulate.DefaultSettleTimeout, "How long to wait for settlement")
	runCmd.Flags().StringVar(&outputFile, "output", "", "Also save the generated games to this file")
	runCmd.Flags().StringVar(&runCfg.Input, "input", "", "Replay games from a file written by generate")
	runCmd.Flags().StringVar(&scoring.StrokePolicy, "stroke-policy", scoring.StrokePolicy, "Stroke policy the server uses (strict or lenient)")
	runCmd.Flags().StringVar(&scoring.DisplayRounding, "display-rounding", scoring.DisplayRounding, "Display rounding the server uses (half_up or half_even)")
	runCmd.Flags().StringVar(&scoring.Category, "category", scoring.Category, "Stroke index category the server uses")

	generateCmd := &cobra.Command{
		Use:   "generate",
		Short: "Write generated games to a file",
		RunE:  generateGames,
	}
	generateCmd.Flags().StringVar(&generatedFile, "out", "games.json", "Output file")
	generateCmd.Flags().StringVar(&coursePreset, "course-preset", config.Preset18, "Built-in course (default18 or default9)")

	rootCmd.AddCommand(runCmd, generateCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "skins-sim: %v\n", err)
		os.Exit(1)
	}
}
