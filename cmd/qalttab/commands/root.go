package commands

import (
	"fmt"
	"os"

	"github.com/bryanchriswhite/qalttab/internal/config"
	"github.com/bryanchriswhite/qalttab/internal/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"
)

var (
	cfgFile string
	rootCmd = &cobra.Command{
		Use:   "qalttab",
		Short: "qalttab - alt-tab overlay companion for qtile",
		Long: `qalttab shows qtile's alt-tab window list in an overlay and hides it
again once focus settles.

It listens for focus notifications sent by qtile hooks, watches the input
device stream for alt key releases and drives qtile through its command
socket to place, show, hide and focus windows.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			pretty, err := prettyLogs(viper.GetString("log_format"))
			if err != nil {
				return err
			}
			logger.Init(viper.GetString("log_level"), pretty)
			return nil
		},
	}
)

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/qalttab/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level (trace, debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "auto", "log format (auto, pretty or json)")

	// Bind flags to viper
	viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("log_format", rootCmd.PersistentFlags().Lookup("log-format"))

	// QALTTAB_LOG_LEVEL, QALTTAB_CONFIG, ...
	viper.SetEnvPrefix("qalttab")
	viper.AutomaticEnv()
}

func initConfig() {
	if cfgFile == "" {
		cfgFile = viper.GetString("config")
	}
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// GetConfigFile returns the config file path
func GetConfigFile() string {
	return cfgFile
}

// prettyLogs resolves the log format; auto is pretty only on a terminal
func prettyLogs(format string) (bool, error) {
	switch format {
	case "", "auto":
		return term.IsTerminal(int(os.Stderr.Fd())), nil
	case "pretty":
		return true, nil
	case "json":
		return false, nil
	default:
		return false, fmt.Errorf("unsupported log format: %s (use 'auto', 'pretty' or 'json')", format)
	}
}

// loadConfig opens the config and applies the log level override
func loadConfig() (*config.Manager, error) {
	configMgr, err := config.NewManager(GetConfigFile())
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	applyLogLevel(configMgr)
	return configMgr, nil
}

// applyLogLevel puts the --log-level override back on top of the file's level
// and applies the result. Reloads replace the in-memory override.
func applyLogLevel(configMgr *config.Manager) string {
	if level := viper.GetString("log_level"); level != "" {
		configMgr.SetLogLevel(level)
	}
	level := configMgr.Get().LogLevel
	logger.SetLevel(level)
	return level
}
