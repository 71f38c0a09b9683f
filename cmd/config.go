package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Mavton23/rentix/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show current configuration",
	Long: `Display the effective rentixctl configuration after .env, .rentix.yaml and
RENTIX_* environment variables are merged. Secrets are masked.

Examples:
  rentixctl config             # Show all config
  rentixctl config --json      # Output as JSON`,
	Args: cobra.NoArgs,
	RunE: runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(cmd *cobra.Command, args []string) error {
	shown := *cfg
	if shown.Storage.Redis.Password != "" {
		shown.Storage.Redis.Password = "********"
	}
	if ok, err := emit(shown); ok {
		return err
	}

	printer.Header("Current Configuration")
	table := printer.NewTable("KEY", "VALUE")
	table.AddRow("api.url", valueOr(shown.API.URL, "(not set)"))
	table.AddRow("api.timeout", shown.API.Timeout.String())
	table.AddRow("api.rate_limit", fmt.Sprint(shown.API.RateLimit))
	table.AddRow("storage.driver", shown.Storage.Driver)
	switch shown.Storage.Driver {
	case "file":
		table.AddRow("storage.path", valueOr(shown.Storage.Path, "(default)"))
	case "redis":
		table.AddRow("storage.redis.addr", shown.Storage.Redis.Addr)
		table.AddRow("storage.redis.password", valueOr(shown.Storage.Redis.Password, "(none)"))
		table.AddRow("storage.redis.prefix", shown.Storage.Redis.Prefix)
	}
	table.AddRow("logging.level", shown.Logging.Level)
	table.AddRow("logging.format", shown.Logging.Format)
	table.AddRow("output.colors", fmt.Sprint(shown.Output.Colors))
	table.AddRow("server.addr", shown.Server.Addr)
	table.AddRow("telemetry.enabled", fmt.Sprint(shown.Telemetry.Enabled))
	if shown.Telemetry.Enabled {
		table.AddRow("telemetry.endpoint", shown.Telemetry.Endpoint)
	}
	if err := table.Render(); err != nil {
		return err
	}

	if shown.API.URL == "" {
		printer.Warning("api.url is not set; export %s_API_URL before running backend commands", config.EnvPrefix)
	}
	return nil
}

func valueOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
