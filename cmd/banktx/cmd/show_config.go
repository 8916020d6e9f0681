package cmd

import (
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"golang-bank-transaction-service/pkg/errors"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration as YAML",
	Long: `Config prints the configuration after defaults, the config file,
BANKTX_* environment variables and flags have been applied. Database
passwords are masked.

Examples:
  banktx config
  banktx config --config banktx.yaml --database-driver postgres`,
	RunE: runShowConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runShowConfig(cmd *cobra.Command, args []string) error {
	enc := yaml.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent(2)
	if err := enc.Encode(appConfig.Redacted()); err != nil {
		return errors.InternalError("encode configuration", err)
	}
	return enc.Close()
}
