package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/trentleslie/expert-in-the-loop/internal/agreement"
	"github.com/trentleslie/expert-in-the-loop/internal/config"
	"github.com/trentleslie/expert-in-the-loop/internal/database"
	"github.com/trentleslie/expert-in-the-loop/internal/importer"
	"github.com/trentleslie/expert-in-the-loop/internal/selector"
	"github.com/trentleslie/expert-in-the-loop/internal/server"
)

var version = "dev"

var (
	verbose    bool
	configPath string
	cfg        *config.Config
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "eitl",
	Short:   "Expert-in-the-loop review campaigns",
	Long:    "eitl runs human review campaigns over machine-generated entity pairs and analyzes reviewer agreement.",
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if verbose {
			log.SetFlags(log.LstdFlags | log.Lshortfile)
		} else {
			log.SetFlags(log.LstdFlags)
		}

		// Skip config loading for init and version
		if cmd.Name() == "init" || cmd.Name() == "version" {
			return nil
		}

		path, err := config.ResolveConfigPath(configPath)
		if err != nil {
			return err
		}
		cfg, err = config.Load(path)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(campaignCmd)
	rootCmd.AddCommand(userCmd)
	rootCmd.AddCommand(reportCmd)

	importCmd.Flags().Int64Var(&importCampaignID, "campaign", 0, "Campaign ID to import into")
	importCmd.Flags().StringVar(&importFormat, "format", "", "Input format: csv or json (default: by file extension)")
	importCmd.Flags().StringVar(&importMapping, "mapping", "", "YAML file mapping CSV columns to pair attributes")
	importCmd.MarkFlagRequired("campaign")

	campaignCreateCmd.Flags().StringVar(&campaignName, "name", "", "Campaign name")
	campaignCreateCmd.Flags().StringVar(&campaignDescription, "description", "", "Campaign description")
	campaignCreateCmd.Flags().StringVar(&campaignType, "type", "", "Campaign type")
	campaignCreateCmd.MarkFlagRequired("name")
	campaignCmd.AddCommand(campaignCreateCmd)
	campaignCmd.AddCommand(campaignListCmd)
	campaignCmd.AddCommand(campaignStatusCmd(database.StatusActive, "activate", "Activate a draft campaign"))
	campaignCmd.AddCommand(campaignStatusCmd(database.StatusCompleted, "complete", "Mark an active campaign completed"))
	campaignCmd.AddCommand(campaignStatusCmd(database.StatusArchived, "archive", "Archive a campaign"))

	userAddCmd.Flags().StringVar(&userEmail, "email", "", "User email")
	userAddCmd.Flags().StringVar(&userName, "name", "", "Display name")
	userAddCmd.Flags().StringVar(&userRole, "role", "reviewer", "Role: reviewer or admin")
	userAddCmd.MarkFlagRequired("email")
	userAddCmd.MarkFlagRequired("name")
	userCmd.AddCommand(userAddCmd)
	userCmd.AddCommand(userListCmd)
}

func openDB() (*database.DB, error) {
	return database.Open(filepath.Join(cfg.GetDataDir(), "eitl.db"))
}

func reviewPolicy() selector.Policy {
	return selector.Policy{
		LowConfidenceThreshold:  cfg.Review.LowConfidenceThreshold,
		LowConfidenceVoteTarget: cfg.Review.LowConfidenceVoteTarget,
		DisagreementLow:         cfg.Review.DisagreementLow,
		DisagreementHigh:        cfg.Review.DisagreementHigh,
	}
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("eitl", version)
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration in ~/.config/eitl/",
	RunE: func(cmd *cobra.Command, args []string) error {
		target := filepath.Join(config.ConfigDir(), "config.yaml")
		if _, err := os.Stat(target); err == nil {
			fmt.Printf("Config already exists: %s\n", target)
			return nil
		}

		if err := os.MkdirAll(config.ConfigDir(), 0o755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}

		if err := os.WriteFile(target, config.DefaultConfigYAML, 0o644); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}

		fmt.Printf("Created config: %s\n", target)
		fmt.Println("Edit it to configure the server port and review-policy tuning.")
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show database and system status",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		stats, err := db.GetStats()
		if err != nil {
			return err
		}

		fmt.Printf("Database: %s\n", db.Path())
		fmt.Printf("  Campaigns: %d (%d active)\n", stats.Campaigns, stats.ActiveCampaigns)
		fmt.Printf("  Pairs:     %d\n", stats.Pairs)
		fmt.Printf("  Votes:     %d\n", stats.Votes)
		fmt.Printf("  Skips:     %d\n", stats.Skips)
		fmt.Printf("  Users:     %d\n", stats.Users)
		return nil
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the review API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		srv := server.New(db,
			server.WithSelector(selector.New(db, selector.WithPolicy(reviewPolicy()))),
			server.WithEngine(agreement.New(db,
				agreement.WithReviewerVoteFloor(cfg.Review.ReviewerVoteFloor))),
		)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		httpServer := &http.Server{
			Addr:    fmt.Sprintf("127.0.0.1:%d", cfg.Server.Port),
			Handler: srv.Handler(),
		}

		g, ctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			log.Printf("Review API listening on http://%s", httpServer.Addr)
			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return httpServer.Shutdown(shutdownCtx)
		})
		return g.Wait()
	},
}

var (
	importCampaignID int64
	importFormat     string
	importMapping    string
)

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import candidate pairs from a CSV or JSON file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		campaign, err := db.GetCampaign(importCampaignID)
		if err != nil {
			return err
		}
		if campaign == nil {
			return fmt.Errorf("campaign %d not found", importCampaignID)
		}

		file, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("opening import file: %w", err)
		}
		defer file.Close()

		format := importFormat
		if format == "" {
			format = strings.TrimPrefix(filepath.Ext(args[0]), ".")
		}

		var result *importer.Result
		switch format {
		case "csv":
			mapping := importer.DefaultMapping()
			if importMapping != "" {
				data, err := os.ReadFile(importMapping)
				if err != nil {
					return fmt.Errorf("reading mapping file: %w", err)
				}
				if err := yaml.Unmarshal(data, &mapping); err != nil {
					return fmt.Errorf("parsing mapping file: %w", err)
				}
			}
			result, err = importer.ImportCSV(db, campaign.ID, file, mapping)
		case "json":
			result, err = importer.ImportJSON(db, campaign.ID, file)
		default:
			return fmt.Errorf("unsupported format %q (want csv or json)", format)
		}
		if err != nil {
			return err
		}

		fmt.Printf("Batch %s: imported %d, skipped %d duplicates\n",
			result.BatchID, result.Imported, result.Skipped)
		for _, e := range result.Errors {
			fmt.Printf("  error: %s\n", e)
		}
		return nil
	},
}

var campaignCmd = &cobra.Command{
	Use:   "campaign",
	Short: "Manage review campaigns",
}

var (
	campaignName        string
	campaignDescription string
	campaignType        string
)

var campaignCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a campaign in draft status",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		var description *string
		if campaignDescription != "" {
			description = &campaignDescription
		}
		id, err := db.InsertCampaign(campaignName, description, campaignType)
		if err != nil {
			return err
		}
		fmt.Printf("Created campaign %d: %s\n", id, campaignName)
		return nil
	},
}

var campaignListCmd = &cobra.Command{
	Use:   "list",
	Short: "List campaigns",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		campaigns, err := db.ListCampaigns()
		if err != nil {
			return err
		}
		if len(campaigns) == 0 {
			fmt.Println("No campaigns.")
			return nil
		}
		for _, c := range campaigns {
			pairs, _ := db.CountPairs(c.ID)
			votes, _ := db.CountVotes(c.ID)
			fmt.Printf("%4d  %-10s  %-30s  %d pairs, %d votes\n", c.ID, c.Status, c.Name, pairs, votes)
		}
		return nil
	},
}

func campaignStatusCmd(status, use, short string) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <campaign-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid campaign ID: %s", args[0])
			}

			db, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			if err := db.SetCampaignStatus(id, status); err != nil {
				return err
			}
			fmt.Printf("Campaign %d is now %s\n", id, status)
			return nil
		},
	}
}

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage reviewers",
}

var (
	userEmail string
	userName  string
	userRole  string
)

var userAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Register a reviewer",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		id, err := db.InsertUser(userEmail, userName, userRole)
		if err != nil {
			return err
		}
		if id == 0 {
			return fmt.Errorf("email %s already registered", userEmail)
		}
		fmt.Printf("Registered user %d: %s <%s>\n", id, userName, userEmail)
		return nil
	},
}

var userListCmd = &cobra.Command{
	Use:   "list",
	Short: "List reviewers",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		users, err := db.ListUsers()
		if err != nil {
			return err
		}
		for _, u := range users {
			fmt.Printf("%4d  %-10s  %s <%s>\n", u.ID, u.Role, u.DisplayName, u.Email)
		}
		return nil
	},
}

var reportCmd = &cobra.Command{
	Use:   "report <campaign-id>",
	Short: "Print the agreement report for a campaign",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid campaign ID: %s", args[0])
		}

		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		campaign, err := db.GetCampaign(id)
		if err != nil {
			return err
		}
		if campaign == nil {
			return fmt.Errorf("campaign %d not found", id)
		}

		engine := agreement.New(db,
			agreement.WithReviewerVoteFloor(cfg.Review.ReviewerVoteFloor))

		summary, err := engine.Agreement(id)
		if err != nil {
			return err
		}
		fmt.Printf("Campaign %d: %s (%s)\n", campaign.ID, campaign.Name, campaign.Status)
		if summary.Alpha != nil {
			fmt.Printf("  Krippendorff's alpha: %.3f\n", *summary.Alpha)
		} else {
			fmt.Println("  Krippendorff's alpha: insufficient data")
		}
		fmt.Printf("  Raters: %d, pairs: %d, votes: %d\n",
			summary.RaterCount, summary.PairCount, summary.VoteCount)

		distribution, err := engine.VoteDistribution(id)
		if err != nil {
			return err
		}
		fmt.Printf("  Binary votes: %d (%d match / %d no match / %d unsure)\n",
			distribution.BinaryVotes, distribution.MatchVotes,
			distribution.NoMatchVotes, distribution.UnsureVotes)
		if distribution.NumericStats != nil {
			fmt.Printf("  Numeric votes: %d (mean %.2f, median %.1f, stddev %.2f)\n",
				distribution.NumericVotes, distribution.NumericStats.Mean,
				distribution.NumericStats.Median, distribution.NumericStats.StdDev)
		}

		disagreements, err := engine.HighDisagreementPairs(id, 10)
		if err != nil {
			return err
		}
		if len(disagreements) > 0 {
			fmt.Println("  Most contested pairs:")
			for _, d := range disagreements {
				fmt.Printf("    #%d %s <-> %s (%.0f%% positive of %d)\n",
					d.Pair.ID, d.Pair.SourceText, d.Pair.TargetText,
					d.PositiveRate*100, d.DefinitiveVotes)
			}
		}
		return nil
	},
}
