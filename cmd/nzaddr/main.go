package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/Alex-AIMS/nz-addresses/app/config"
	"github.com/Alex-AIMS/nz-addresses/internal/bootstrap"
	"github.com/Alex-AIMS/nz-addresses/internal/external"
	"github.com/spf13/cobra"
)

var (
	configFile string

	// set by the root command before any subcommand runs
	app *bootstrap.App
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "nzaddr",
		Short: "NZ address resolution against the LINZ register",
		Long:  `Resolve, reverse geocode and autocomplete New Zealand addresses, and maintain the search index and result cache`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Annotations["offline"] == "true" {
				return nil
			}
			return connect(cmd.Context())
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if app != nil {
				app.Close()
			}
		},
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default config/app.yaml)")

	rootCmd.AddCommand(createResolveCmd())
	rootCmd.AddCommand(createCoordinatesCmd())
	rootCmd.AddCommand(createReverseCmd())
	rootCmd.AddCommand(createAutocompleteCmd())
	rootCmd.AddCommand(createComponentsCmd())
	rootCmd.AddCommand(createIndexCmd())
	rootCmd.AddCommand(createCacheCmd())
	rootCmd.AddCommand(createStatsCmd())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func connect(ctx context.Context) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}
	logger, err := config.NewLogger(cfg)
	if err != nil {
		return err
	}

	app, err = bootstrap.New(ctx, cfg, logger)
	return err
}

func createResolveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resolve [address]",
		Short: "Resolve a raw address to a register record",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result := app.AddressService.Verify(cmd.Context(), strings.Join(args, " "))
			return printJSON(cmd.OutOrStdout(), result)
		},
	}
}

func createCoordinatesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "coordinates [address]",
		Short: "Print the coordinates of a raw address",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result := app.AddressService.CoordinatesForAddress(cmd.Context(), strings.Join(args, " "))
			return printJSON(cmd.OutOrStdout(), result)
		},
	}
}

func createReverseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reverse [latitude] [longitude]",
		Short: "Find the address nearest to a WGS84 point",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			lat, lon, err := parseLatLon(args[0], args[1])
			if err != nil {
				return err
			}
			result := app.AddressService.AddressForCoordinates(cmd.Context(), lat, lon)
			return printJSON(cmd.OutOrStdout(), result)
		},
	}
}

func createAutocompleteCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "autocomplete [query]",
		Short: "Suggest addresses for a partial query",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			results, err := app.AddressService.Autocomplete(cmd.Context(), strings.Join(args, " "), limit)
			if err != nil {
				return err
			}
			for _, r := range results {
				fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\n", r.AddressID, r.FullAddress)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "maximum suggestions")
	return cmd
}

func createComponentsCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "components [address]",
		Short:       "Show libpostal components of a raw address",
		Args:        cobra.MinimumNArgs(1),
		Annotations: map[string]string{"offline": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			if !external.Available {
				return fmt.Errorf("libpostal is not available in this build")
			}
			return printJSON(cmd.OutOrStdout(), external.Parse(strings.Join(args, " ")).Map())
		},
	}
}

func createIndexCmd() *cobra.Command {
	indexCmd := &cobra.Command{
		Use:   "index",
		Short: "Manage the Meilisearch autocomplete index",
	}

	var batch int
	syncCmd := &cobra.Command{
		Use:   "sync",
		Short: "Configure the index and copy the register into it",
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := app.AdminService.SyncIndex(cmd.Context(), batch)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Indexed %d addresses in %dms\n", result.DocumentsIndexed, result.ProcessingTimeMs)
			return nil
		},
	}
	syncCmd.Flags().IntVar(&batch, "batch", 1000, "documents per batch")
	indexCmd.AddCommand(syncCmd)

	return indexCmd
}

func createCacheCmd() *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the result cache",
	}

	var datasetVersion string
	invalidateCmd := &cobra.Command{
		Use:   "invalidate",
		Short: "Drop cached results, or only those of other dataset versions",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.AdminService.InvalidateCache(cmd.Context(), datasetVersion); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Cache invalidated")
			return nil
		},
	}
	invalidateCmd.Flags().StringVar(&datasetVersion, "dataset-version", "", "keep entries of this register snapshot")
	cacheCmd.AddCommand(invalidateCmd)

	return cacheCmd
}

func createStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show register, cache and runtime statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			stats, err := app.AdminService.GetSystemStats(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), stats)
		},
	}
}

func parseLatLon(latArg, lonArg string) (float64, float64, error) {
	lat, err := strconv.ParseFloat(latArg, 64)
	if err != nil || lat < -90 || lat > 90 {
		return 0, 0, fmt.Errorf("invalid latitude %q", latArg)
	}
	lon, err := strconv.ParseFloat(lonArg, 64)
	if err != nil || lon < -180 || lon > 180 {
		return 0, 0, fmt.Errorf("invalid longitude %q", lonArg)
	}
	return lat, lon, nil
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
