package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"golang-bank-transaction-service/cmd/banktx/config"
	"golang-bank-transaction-service/pkg/errors"
	"golang-bank-transaction-service/pkg/logger"
)

var (
	cfgFile string
	verbose bool
	version = "dev"
	commit  = "unknown"
	date    = "unknown"

	// appConfig is loaded once per invocation before any subcommand runs
	appConfig *config.Config
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "banktx",
	Short: "Bank transaction ingestion and query service",
	Long: `banktx stores bank transactions uploaded as CSV files and answers
filtered, paginated queries over them, either as a REST service or directly
from the command line.

CSV lines carry eight comma-separated fields without quoting:
  id,year,month,day,userId,bankCode,amount,TYPE
  1,2021,1,1,4,004,29000,DEPOSIT

Examples:
  banktx serve --config banktx.yaml
  banktx ingest --file transactions.csv --chunk-size 500
  banktx query by-bank --bank-code 011 --date 2022-01-01
  banktx config`,
	Version:           getVersionString(),
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: loadConfig,
}

// Execute runs the command tree and returns the process exit code
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		return NewCLIErrorHandler().HandleError(err)
	}
	return 0
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (yaml, toml or json)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (debug logging)")
	rootCmd.PersistentFlags().String("log-format", "", "log format: text, json")
	rootCmd.PersistentFlags().String("database-driver", "", "database driver: sqlite, postgres")
	rootCmd.PersistentFlags().String("database-dsn", "", "database connection string")

	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	config.SetDefaults(viper.GetViper())
	config.BindEnv(viper.GetViper())
}

// flagKeys maps flag names to the config keys they override. Several
// commands share a flag name, so flags are bound for the running command only.
var flagKeys = map[string]string{
	"log-format":      "log.format",
	"database-driver": "database.driver",
	"database-dsn":    "database.dsn",
	"addr":            "http.addr",
	"chunk-size":      "ingest.chunk_size",
	"commit-mode":     "ingest.commit_mode",
	"read-failure":    "ingest.read_failure",
}

func bindCommandFlags(cmd *cobra.Command) error {
	var bindErr error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if key, ok := flagKeys[f.Name]; ok && bindErr == nil {
			bindErr = viper.BindPFlag(key, f)
		}
	})
	return bindErr
}

// loadConfig reads the config file, builds the application configuration
// and installs the global logger
func loadConfig(cmd *cobra.Command, args []string) error {
	if err := bindCommandFlags(cmd); err != nil {
		return errors.InternalError("bind flags", err)
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
		if err := viper.ReadInConfig(); err != nil {
			return errors.FileError(errors.CodeFileNotFound, cfgFile, err).
				WithSuggestion("check the --config path and the file syntax")
		}
	}

	if viper.GetBool("verbose") {
		viper.Set("log.level", string(logger.DebugLevel))
	}

	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return err
	}

	log, err := logger.NewLogger(&cfg.Log)
	if err != nil {
		return errors.ConfigurationError("log", cfg.Log.Level, err)
	}
	logger.SetGlobalLogger(log)

	if cfgFile != "" {
		log.WithField("config_file", viper.ConfigFileUsed()).Debug("Using config file")
	}

	appConfig = cfg
	return nil
}

// SetVersionInfo sets the version information for the CLI
func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
	rootCmd.Version = getVersionString()
}

func getVersionString() string {
	if version == "dev" {
		return fmt.Sprintf("%s (commit %s, built %s)", version, commit, date)
	}
	return version
}
