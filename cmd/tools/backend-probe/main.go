// cmd/tools/backend-probe/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"contract-bot/internal/audit"
	"contract-bot/internal/backend"
	"contract-bot/internal/bot"
	"contract-bot/internal/common/config"
	"contract-bot/internal/common/database"
	"contract-bot/internal/common/logger"
	"contract-bot/pkg/registry"
)

var (
	configPath string
	backendURL string
	apiKey     string
	verbose    bool
	timeout    time.Duration
)

var rootCmd = &cobra.Command{
	Use:   "backend-probe",
	Short: "Inspect the contract backend the bot talks to",
	Long: `Operator tool for the contract backend.

Backend settings come from --config when given, otherwise from --url/--api-key
or the BACKEND_URL/BACKEND_API_KEY environment variables.`,
	SilenceUsage: true,
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Call the backend health action",
	RunE:  runHealth,
}

var contractsCmd = &cobra.Command{
	Use:   "contracts [filter]",
	Short: "List contracts, optionally filtered like the /list command",
	Args:  cobra.ArbitraryArgs,
	RunE:  runContracts,
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print contract statistics as JSON",
	RunE:  runStats,
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write a contracts export (excel, pdf or json) to a file",
	RunE:  runExport,
}

var actionsCmd = &cobra.Command{
	Use:   "actions",
	Short: "Validate and list the backend action registry",
	RunE:  runActions,
}

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Read the bot audit trail",
}

var auditRecentCmd = &cobra.Command{
	Use:   "recent",
	Short: "Show the most recent audit entries",
	RunE:  runAuditRecent,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to the bot config file")
	rootCmd.PersistentFlags().StringVar(&backendURL, "url", os.Getenv("BACKEND_URL"), "backend URL")
	rootCmd.PersistentFlags().StringVar(&apiKey, "api-key", os.Getenv("BACKEND_API_KEY"), "backend API key")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log backend calls")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 2*time.Minute, "overall deadline")

	contractsCmd.Flags().Int("limit", 20, "number of contracts to fetch")
	exportCmd.Flags().String("format", "json", "excel, pdf or json")
	exportCmd.Flags().String("out", "", "output file (default: the generated file name)")
	exportCmd.Flags().Int("limit", 1000, "number of contracts to export")
	actionsCmd.Flags().String("registry", "", "registry file to validate instead of the embedded one")
	auditRecentCmd.Flags().Int("limit", 20, "number of entries")

	auditCmd.AddCommand(auditRecentCmd)
	rootCmd.AddCommand(healthCmd, contractsCmd, statsCmd, exportCmd, actionsCmd, auditCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger() logger.Logger {
	if verbose {
		return logger.NewStructured("debug", "console")
	}
	return logger.NewNoOpLogger()
}

func loadConfig() (*config.Config, error) {
	if configPath == "" {
		return nil, fmt.Errorf("--config is required for this command")
	}
	return config.LoadFromFile(configPath)
}

func newBackend() (*backend.Client, error) {
	var cfg *backend.Config
	if configPath != "" {
		appCfg, err := loadConfig()
		if err != nil {
			return nil, err
		}
		cfg = backend.FromAppConfig(appCfg)
	} else {
		cfg = backend.DefaultConfig()
		cfg.URL = backendURL
		cfg.APIKey = apiKey
	}
	return backend.New(cfg, newLogger())
}

func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), timeout)
}

func runHealth(cmd *cobra.Command, _ []string) error {
	client, err := newBackend()
	if err != nil {
		return err
	}
	ctx, cancel := commandContext(cmd)
	defer cancel()

	h := client.HealthCheck(ctx)
	if !h.Healthy {
		return fmt.Errorf("backend unhealthy: %s", h.Error)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "backend healthy (%dms)\n", h.ResponseTime.Milliseconds())
	return nil
}

func runContracts(cmd *cobra.Command, args []string) error {
	client, err := newBackend()
	if err != nil {
		return err
	}
	limit, _ := cmd.Flags().GetInt("limit")
	ctx, cancel := commandContext(cmd)
	defer cancel()

	contracts, err := client.ListContracts(ctx, limit)
	if err != nil {
		return err
	}
	contracts = bot.ParseListFilters(strings.Join(args, " ")).Apply(contracts, time.Now())

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NUMBER\tCLIENT\tAMOUNT\tDATE\tSTATUS")
	for _, c := range contracts {
		fmt.Fprintf(w, "%s\t%s\t%.2f\t%s\t%s\n", c.Number, c.Client, float64(c.Amount), c.Date, c.Status)
	}
	return w.Flush()
}

func runStats(cmd *cobra.Command, _ []string) error {
	client, err := newBackend()
	if err != nil {
		return err
	}
	ctx, cancel := commandContext(cmd)
	defer cancel()

	stats, err := client.GetStats(ctx)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(stats)
}

func runExport(cmd *cobra.Command, _ []string) error {
	client, err := newBackend()
	if err != nil {
		return err
	}
	format, _ := cmd.Flags().GetString("format")
	out, _ := cmd.Flags().GetString("out")
	limit, _ := cmd.Flags().GetInt("limit")
	ctx, cancel := commandContext(cmd)
	defer cancel()

	contracts, err := client.ListContracts(ctx, limit)
	if err != nil {
		return err
	}
	doc, err := bot.BuildExport(format, contracts, time.Now())
	if err != nil {
		return err
	}
	if out == "" {
		out = doc.FileName
	}
	if err := os.WriteFile(out, doc.Data, 0o644); err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %d contracts to %s\n", len(contracts), out)
	return nil
}

func runActions(cmd *cobra.Command, _ []string) error {
	path, _ := cmd.Flags().GetString("registry")
	reg := registry.Default()
	if path != "" {
		var err error
		if reg, err = registry.LoadRegistry(path); err != nil {
			return err
		}
	}
	if err := reg.Validate(); err != nil {
		return fmt.Errorf("registry validation failed: %w", err)
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "registry %s (updated %s)\n", reg.Version, reg.LastUpdated)
	fmt.Fprintln(w, "ACTION\tKIND\tPARAMS\tDESCRIPTION")
	for _, a := range reg.Actions {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", a.Name, a.Kind, strings.Join(a.RequiredParams, ","), a.Description)
	}
	return w.Flush()
}

func runAuditRecent(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	limit, _ := cmd.Flags().GetInt("limit")
	ctx, cancel := commandContext(cmd)
	defer cancel()

	pg, err := database.NewPostgres(cfg.Database.Postgres)
	if err != nil {
		return err
	}
	defer pg.Close()
	if err := pg.Ping(ctx); err != nil {
		return fmt.Errorf("postgres unreachable: %w", err)
	}

	entries, err := audit.NewPostgresRecorder(pg.DB, newLogger()).Recent(ctx, limit)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tCHAT\tACTION\tCONTRACT\tOUTCOME")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\n", e.CreatedAt.Format(time.RFC3339), e.ChatID, e.Action, e.ContractNumber, e.Outcome)
	}
	return w.Flush()
}
