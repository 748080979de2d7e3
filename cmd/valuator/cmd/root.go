// Package cmd implements the CLI commands for the device valuator.
package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "valuator",
	Short: "Price used devices from their condition and market listings",
	Long: "An API-first service that normalizes device condition signals into a\n" +
		"graded score, aggregates market listing prices into a robust band, and\n" +
		"produces a justified resale price with a bilingual explanation.",
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "config.yaml", "config file path")
	cobra.CheckErr(viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config")))

	rootCmd.AddCommand(versionCommand())
}

func initConfig() {
	viper.SetEnvPrefix("VALUATOR")
	viper.AutomaticEnv()
}

// configPath resolves the config file path from the flag or the
// VALUATOR_CONFIG environment variable.
func configPath() string {
	return viper.GetString("config")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
