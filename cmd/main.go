// File: main.go

package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"qsomatch/pkg/adjudicate"
	"qsomatch/pkg/cabrillo"
	"qsomatch/pkg/crossmatch"
	"qsomatch/pkg/database"
	"qsomatch/pkg/report"
	"qsomatch/pkg/singletons"
)

var (
	debugFlag bool
	logger    *slog.Logger

	contestName string
	contestYear int
	createFlag  bool
	destroyFlag bool
	restartFlag bool
	interactive bool
)

var rootCmd = &cobra.Command{
	Use:   "qsomatch",
	Short: "A tool for cross-matching contest log submissions",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Set up logging based on the debug flag
		var logLevel slog.Level
		if debugFlag {
			logLevel = slog.LevelDebug
		} else {
			logLevel = slog.LevelInfo
		}

		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
		slog.SetDefault(logger)
	},
}

// confirm asks for an interactive YES before a destructive operation.
func confirm(prompt string) bool {
	fmt.Printf("%s: ", prompt)
	reader := bufio.NewReader(os.Stdin)
	answer, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	return strings.ToUpper(strings.TrimSpace(answer)) == "YES"
}

var ingestCmd = &cobra.Command{
	Use:   "ingest [files...]",
	Short: "Parse Cabrillo log files and add them to a contest",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		db, err := initDB()
		if err != nil {
			logger.Error("Error initializing database", "error", err)
			os.Exit(1)
		}
		defer db.Close()

		ctx := context.Background()
		contestID, err := db.AddOrLookupContest(ctx, contestName, contestYear, createFlag)
		if err != nil {
			logger.Error("Error looking up contest", "error", err)
			os.Exit(1)
		}

		if destroyFlag {
			if !confirm("Please confirm complete destruction of contest") {
				fmt.Println("NOT CONFIRMED")
				os.Exit(2)
			}
			if err := db.RemoveWholeContest(ctx, contestID); err != nil {
				logger.Error("Error removing contest", "error", err)
				os.Exit(1)
			}
			contestID, err = db.AddOrLookupContest(ctx, contestName, contestYear, true)
			if err != nil {
				logger.Error("Error recreating contest", "error", err)
				os.Exit(1)
			}
		}
		if restartFlag {
			if !confirm("Please confirm removal of contest logs & QSOs") {
				fmt.Println("NOT CONFIRMED")
				os.Exit(2)
			}
			if err := db.RemoveContestQSOs(ctx, contestID); err != nil {
				logger.Error("Error removing contest QSOs", "error", err)
				os.Exit(1)
			}
		}

		clean := 0
		for _, filename := range args {
			log, err := cabrillo.ParseFile(filename)
			if err != nil {
				logger.Error("Error parsing log", "file", filename, "error", err)
				continue
			}
			if log.Clean() {
				clean++
			} else {
				logger.Warn("Log has problems", "file", filename, "problems", len(log.Problems))
				for _, p := range log.Problems {
					logger.Debug("Parse problem", "file", filename, "problem", p)
				}
			}
			if _, err := cabrillo.Ingest(ctx, db, contestID, log); err != nil {
				logger.Error("Error storing log", "file", filename, "error", err)
				os.Exit(1)
			}
		}
		fmt.Printf("%d clean logs\n", clean)
		fmt.Printf("%d total logs\n", len(args))
	},
}

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Run the full cross-match over a contest",
	Run: func(cmd *cobra.Command, args []string) {
		db, err := initDB()
		if err != nil {
			logger.Error("Error initializing database", "error", err)
			os.Exit(1)
		}
		defer db.Close()

		ctx := context.Background()
		contestID, err := db.AddOrLookupContest(ctx, contestName, contestYear, false)
		if err != nil {
			logger.Error("Error looking up contest", "error", err)
			os.Exit(1)
		}

		cfg := matchConfig()
		decider := adjudicate.NewDecider(db, contestID, cfg.Interactive, os.Stdin, os.Stdout, logger)

		matcher, err := crossmatch.New(ctx, db, contestID, cfg, logger, decider)
		if err != nil {
			logger.Error("Error setting up matcher", "error", err)
			os.Exit(1)
		}
		totals, err := matcher.Run(ctx)
		if err != nil {
			logger.Error("Error running cross-match", "error", err)
			os.Exit(1)
		}

		resolver, err := singletons.NewResolver(ctx, db, contestID, singletons.DefaultThresholds(), logger)
		if err != nil {
			logger.Error("Error setting up singleton resolver", "error", err)
			os.Exit(1)
		}
		byes, removed, err := resolver.Resolve(ctx)
		if err != nil {
			logger.Error("Error resolving singletons", "error", err)
			os.Exit(1)
		}
		dupes, err := resolver.FinalDupeCheck(ctx)
		if err != nil {
			logger.Error("Error in final dupe check", "error", err)
			os.Exit(1)
		}

		logger.Info("Cross-match complete",
			"perfect", totals.Perfect,
			"partial", totals.Partial,
			"basic", totals.Basic,
			"shiftFull", totals.ShiftFull,
			"shiftPartial", totals.ShiftPartial,
			"dupes", totals.Dupes+dupes,
			"nil", totals.NIL,
			"probability", totals.Probability,
			"byes", byes,
			"removed", removed)
	},
}

var restartCmd = &cobra.Command{
	Use:   "restart",
	Short: "Clear all match results for a contest, keeping its logs",
	Run: func(cmd *cobra.Command, args []string) {
		if !confirm("Please confirm reset of all match results") {
			fmt.Println("NOT CONFIRMED")
			os.Exit(2)
		}

		db, err := initDB()
		if err != nil {
			logger.Error("Error initializing database", "error", err)
			os.Exit(1)
		}
		defer db.Close()

		ctx := context.Background()
		contestID, err := db.AddOrLookupContest(ctx, contestName, contestYear, false)
		if err != nil {
			logger.Error("Error looking up contest", "error", err)
			os.Exit(1)
		}
		matcher, err := crossmatch.New(ctx, db, contestID, matchConfig(), logger, nil)
		if err != nil {
			logger.Error("Error setting up matcher", "error", err)
			os.Exit(1)
		}
		if err := matcher.Restart(ctx); err != nil {
			logger.Error("Error restarting match", "error", err)
			os.Exit(1)
		}
		logger.Info("Match state cleared")
	},
}

var destroyCmd = &cobra.Command{
	Use:   "destroy",
	Short: "Remove a contest and everything in it",
	Run: func(cmd *cobra.Command, args []string) {
		if !confirm("Please confirm complete destruction of contest") {
			fmt.Println("NOT CONFIRMED")
			os.Exit(2)
		}

		db, err := initDB()
		if err != nil {
			logger.Error("Error initializing database", "error", err)
			os.Exit(1)
		}
		defer db.Close()

		ctx := context.Background()
		contestID, err := db.AddOrLookupContest(ctx, contestName, contestYear, false)
		if err != nil {
			logger.Error("Error looking up contest", "error", err)
			os.Exit(1)
		}
		if err := db.RemoveWholeContest(ctx, contestID); err != nil {
			logger.Error("Error removing contest", "error", err)
			os.Exit(1)
		}
		logger.Info("Contest removed")
	},
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print score summaries and golden logs for a contest",
	Run: func(cmd *cobra.Command, args []string) {
		db, err := initDB()
		if err != nil {
			logger.Error("Error initializing database", "error", err)
			os.Exit(1)
		}
		defer db.Close()

		ctx := context.Background()
		contestID, err := db.AddOrLookupContest(ctx, contestName, contestYear, false)
		if err != nil {
			logger.Error("Error looking up contest", "error", err)
			os.Exit(1)
		}

		reporter := report.NewReporter(db, contestID)
		fmt.Println("Score summary:")
		if err := reporter.WriteScores(ctx, os.Stdout); err != nil {
			logger.Error("Error writing score summary", "error", err)
			os.Exit(1)
		}
		fmt.Println("Golden logs:")
		if err := reporter.WriteGolden(ctx, os.Stdout); err != nil {
			logger.Error("Error writing golden logs", "error", err)
			os.Exit(1)
		}
	},
}

// matchConfig builds the engine configuration from the defaults with any
// match.* overrides from the config file, plus the --interactive flag.
func matchConfig() crossmatch.Config {
	cfg := crossmatch.DefaultConfig()
	if viper.IsSet("match.tolerance") {
		cfg.Tolerance = viper.GetInt("match.tolerance")
	}
	if viper.IsSet("match.score_floor") {
		cfg.ScoreFloor = viper.GetFloat64("match.score_floor")
	}
	if viper.IsSet("match.ambiguous_low") {
		cfg.AmbiguousLow = viper.GetFloat64("match.ambiguous_low")
	}
	if viper.IsSet("match.ambiguous_high") {
		cfg.AmbiguousHigh = viper.GetFloat64("match.ambiguous_high")
	}
	if viper.IsSet("match.workers") {
		cfg.Workers = viper.GetInt("match.workers")
	}
	cfg.Interactive = interactive || viper.GetBool("match.interactive")
	return cfg
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().BoolVarP(&debugFlag, "debug", "d", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&contestName, "name", "n", "", "Contest name")
	rootCmd.PersistentFlags().IntVarP(&contestYear, "year", "y", 0, "Contest year")

	ingestCmd.Flags().BoolVarP(&createFlag, "new", "N", false, "Create the contest if it does not exist")
	ingestCmd.Flags().BoolVarP(&destroyFlag, "destroy", "D", false, "Destroy and recreate the contest before ingesting")
	ingestCmd.Flags().BoolVarP(&restartFlag, "restart", "R", false, "Remove the contest's logs and QSOs before ingesting")
	matchCmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "Ask about ambiguous candidate pairs")

	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(matchCmd)
	rootCmd.AddCommand(restartCmd)
	rootCmd.AddCommand(destroyCmd)
	rootCmd.AddCommand(reportCmd)
}

func initConfig() {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("$HOME/.qsomatch")
	viper.AddConfigPath("/etc/qsomatch/")

	if err := viper.ReadInConfig(); err != nil {
		fmt.Printf("Error reading config file: %v\n", err)
		os.Exit(1)
	}
}

func initDB() (*database.DB, error) {
	db, err := database.NewDB()
	if err != nil {
		return nil, fmt.Errorf("error connecting to database: %v", err)
	}

	err = db.InitSchema(context.Background())
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("error initializing database schema: %v", err)
	}

	return db, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
