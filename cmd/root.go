package cmd

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/sap-gg/commaslash/internal"
	"github.com/sap-gg/commaslash/internal/logging"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   internal.ToolName,
	Short: "Generates self-installing shell launchers for prebuilt executables",
	Long: `commaslash generates a single POSIX shell script that, when run, execs a prebuilt
executable from a content-addressed cache, downloading and verifying its archive
first if needed. One script can serve several OS/architecture pairs.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		configPath, configErr := initConfig(cmd.Root())
		logging.Init(nil)
		color.NoColor = color.NoColor || viper.GetBool(logging.LogNoColorKey)
		if configErr != nil { // handle error after logging is initialized
			return configErr
		}
		if configPath != "" {
			log.Info().Msgf("using config file: %s", configPath)
		}
		return nil
	},
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		log.Error().Err(err).Msg("command execution failed")
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default is "+internal.ConfigFileName+".yaml in ., $HOME or the user config dir)")

	rootCmd.PersistentFlags().String("log-level", "info", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("log-format", "console", "log format: console, json")
	rootCmd.PersistentFlags().Bool("no-color", false, "disable color output")

	rootCmd.SilenceUsage = true
	rootCmd.SilenceErrors = true
}

// bindPersistentFlags ties the logging flags to viper. It runs on every invocation
// so a viper.Reset between in-process runs does not lose the bindings.
func bindPersistentFlags(flags *pflag.FlagSet) {
	_ = viper.BindPFlag(logging.LogLevelKey, flags.Lookup("log-level"))
	_ = viper.BindPFlag(logging.LogFormatKey, flags.Lookup("log-format"))
	_ = viper.BindPFlag(logging.LogNoColorKey, flags.Lookup("no-color"))
}

// initConfig takes the root command as a parameter; referring to rootCmd here
// would make its initializer depend on itself.
func initConfig(root *cobra.Command) (string, error) {
	bindPersistentFlags(root.PersistentFlags())

	viper.SetEnvPrefix(strings.ToUpper(internal.ToolName))
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv() // read in environment variables that match

	// reads in config file and ENV variables if set.
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		// search order: current dir, $HOME, XDG config
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}

		config, err := os.UserConfigDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(config, internal.ToolName))
		}

		viper.SetConfigType("yaml")
		viper.SetConfigName(internal.ConfigFileName)
	}

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err != nil {
		var notFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &notFoundError) {
			return "", err
		}
	} else {
		return viper.ConfigFileUsed(), nil
	}

	return "", nil
}
