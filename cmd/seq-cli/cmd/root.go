//go:build unix

package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	configDirectory = "directory"
	configLogLevel  = "log.level"
	configLogFormat = "log.format"
)

// config holds the settings shared by all commands. Flags take precedence over SEQ_ prefixed environment variables,
// e.g. SEQ_DIRECTORY or SEQ_LOG_LEVEL.
var config = viper.New()

// logger is set up from the configuration before any command runs.
var logger = slog.Default()

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "seq-cli",
	Short: "A tool for interacting with transaction sequencers.",
	Long:  `A tool for interacting with the transaction sequencer of a table.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		logger, err = newLogger(config.GetString(configLogLevel), config.GetString(configLogFormat))
		if err != nil {
			return err
		}
		slog.SetDefault(logger)
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringP(
		"directory",
		"d",
		".",
		"The table directory the sequencer is located in.",
	)
	rootCmd.PersistentFlags().String(
		"log-level",
		"info",
		"The minimum level of log messages. Valid values are debug, info, warn, error.",
	)
	rootCmd.PersistentFlags().String(
		"log-format",
		"text",
		"The format of log messages. Valid values are text, json.",
	)

	config.SetEnvPrefix("SEQ")
	config.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	config.AutomaticEnv()
	cobra.CheckErr(config.BindPFlag(configDirectory, rootCmd.PersistentFlags().Lookup("directory")))
	cobra.CheckErr(config.BindPFlag(configLogLevel, rootCmd.PersistentFlags().Lookup("log-level")))
	cobra.CheckErr(config.BindPFlag(configLogFormat, rootCmd.PersistentFlags().Lookup("log-format")))
}

// directory returns the configured table directory.
func directory() string {
	return config.GetString(configDirectory)
}

func newLogger(level string, format string) (*slog.Logger, error) {
	var slogLevel slog.Level
	if err := slogLevel.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("unsupported log level %q", level)
	}
	options := &slog.HandlerOptions{
		Level: slogLevel,
	}

	var handler slog.Handler
	switch strings.ToLower(format) {
	case "text":
		handler = slog.NewTextHandler(os.Stderr, options)
	case "json":
		handler = slog.NewJSONHandler(os.Stderr, options)
	default:
		return nil, fmt.Errorf("unsupported log format %q", format)
	}
	return slog.New(handler), nil
}
