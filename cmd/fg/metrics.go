package main

import (
	"errors"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/feedergraph/feedergraph/internal/energy"
)

var (
	metricsPeriod string
	metricsGroup  string
)

func init() {
	metricsCmd.PersistentFlags().StringVar(&metricsPeriod, "period", "monthly", "Period: monthly or daily")
	metricsShowCmd.Flags().StringVar(&metricsGroup, "group", "power", "Metric group: voltage, power, or reactive")

	metricsCmd.AddCommand(metricsImportCmd)
	metricsCmd.AddCommand(metricsShowCmd)
	metricsCmd.AddCommand(metricsHousesCmd)
	rootCmd.AddCommand(metricsCmd)
}

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Manage per-house metric series",
	Long: `Import and inspect per-house metric series stored in the SQLite
database named by metrics_db.

Rows use the compact wide format: one JSON object per line with house_id,
metric and one column per month (month_01..month_12) or half-hour slot
(slot_00_00..slot_23_30).`,
}

var metricsImportCmd = &cobra.Command{
	Use:   "import <file.jsonl>",
	Short: "Replace the stored rows of a period from a JSONL file",
	Args:  cobra.ExactArgs(1),
	RunE:  runMetricsImport,
}

var metricsShowCmd = &cobra.Command{
	Use:   "show <house-id>",
	Short: "Show the chart series of one house",
	Args:  cobra.ExactArgs(1),
	RunE:  runMetricsShow,
}

var metricsHousesCmd = &cobra.Command{
	Use:   "houses",
	Short: "List the houses with stored metrics",
	Args:  cobra.NoArgs,
	RunE:  runMetricsHouses,
}

func mustParsePeriod() energy.Period {
	period, err := energy.ParsePeriod(metricsPeriod)
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}
	return period
}

func runMetricsImport(cmd *cobra.Command, args []string) error {
	period := mustParsePeriod()
	cfg := mustLoadConfig()
	db := mustOpenDatabase(cfg)
	defer db.Close()

	n, err := db.ImportJSONL(cmd.Context(), period, args[0])
	if err != nil {
		exitWithError(ExitDataError, "importing %s: %v", args[0], err)
	}

	if humanOutput {
		okColor.Printf("Imported %d %s row(s) from %s\n", n, period, args[0])
		return nil
	}
	return outputJSON(StatusResponse{Status: "imported", Path: args[0], Count: n})
}

func runMetricsShow(cmd *cobra.Command, args []string) error {
	period := mustParsePeriod()
	houseID, err := strconv.Atoi(args[0])
	if err != nil {
		exitWithError(ExitError, "house id must be an integer: %s", args[0])
	}

	cfg := mustLoadConfig()
	db := mustOpenDatabase(cfg)
	defer db.Close()

	series, err := energy.Query(cmd.Context(), db, period, houseID, metricsGroup)
	if errors.Is(err, energy.ErrUnknownGroup) {
		exitWithError(ExitError, "%v", err)
	}
	if err != nil {
		return err
	}

	if !humanOutput {
		return outputJSON(series)
	}

	headerColor.Printf("House %d %s (%s, %s)\n", houseID, series.Group.Name, period, series.Group.Unit)
	outputHuman("%-6s", "")
	for _, m := range series.Group.Metrics {
		outputHuman(" %18s", m)
	}
	outputHuman("\n")
	for _, p := range series.Points {
		outputHuman("%-6s", p.Label)
		for _, m := range series.Group.Metrics {
			outputHuman(" %18.3f", p.Values[m])
		}
		outputHuman("\n")
	}
	return nil
}

func runMetricsHouses(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	db := mustOpenDatabase(cfg)
	defer db.Close()

	ids, err := db.Houses(cmd.Context())
	if err != nil {
		return err
	}
	if ids == nil {
		ids = []int{}
	}

	if !humanOutput {
		return outputJSON(ids)
	}
	headerColor.Printf("%d house(s) with metrics\n", len(ids))
	for _, id := range ids {
		outputHuman("  %d\n", id)
	}
	return nil
}
