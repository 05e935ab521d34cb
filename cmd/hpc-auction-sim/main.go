// Package main implements the hpc-auction-sim CLI: a discrete-event
// simulator of a federation of HPC sites that decide job placement through
// a first-price sealed-bid auction between independent Job Scheduling
// Agents.
package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/virtengine/hpc-auction-sim/internal/composer"
)

const (
	FlagMetricsAddr = "metrics-addr"
	FlagLogLevel    = "log-level"
	FlagOutput      = "output"
)

var (
	cfgFile string
	rootCmd = &cobra.Command{
		Use:   "hpc-auction-sim",
		Short: "HPC federation auction scheduling simulator",
		Long: `hpc-auction-sim runs a discrete-event simulation of a federation of
independent HPC sites. Each site runs an autonomous Job Scheduling Agent
that decides collectively, through a first-price sealed-bid auction, where
an incoming job should run.`,
	}
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is /etc/hpc-auction-sim/config.yaml)")
	rootCmd.PersistentFlags().String(FlagMetricsAddr, "", "ignored by run; the Prometheus listener address is read from the experiment description's metrics_addr field")
	rootCmd.PersistentFlags().String(FlagLogLevel, "info", "log level (debug, info, warn, error)")

	_ = viper.BindPFlag(FlagMetricsAddr, rootCmd.PersistentFlags().Lookup(FlagMetricsAddr))
	_ = viper.BindPFlag(FlagLogLevel, rootCmd.PersistentFlags().Lookup(FlagLogLevel))

	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(validateCmd())
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath("/etc/hpc-auction-sim")
		viper.AddConfigPath("$HOME/.hpc-auction-sim")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("HPC_AUCTION_SIM")

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func newLogger() zerolog.Logger {
	level, err := zerolog.ParseLevel(viper.GetString(FlagLogLevel))
	if err != nil {
		level = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger().Level(level)
}

func runCmd() *cobra.Command {
	var outputPath string
	cmd := &cobra.Command{
		Use:   "run <experiment.json>",
		Short: "Run an experiment description to completion",
		Long:  `Loads an experiment description, wires the federation it names, and runs the simulation until every job reaches a terminal state, writing the lifecycle CSV report.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log := newLogger()

			out := os.Stdout
			if outputPath != "" {
				f, err := os.Create(outputPath) //nolint:gosec // G304: operator-supplied CLI flag
				if err != nil {
					return fmt.Errorf("creating %s: %w", outputPath, err)
				}
				defer f.Close()
				return composer.Run(args[0], f, log)
			}
			return composer.Run(args[0], out, log)
		},
	}
	cmd.Flags().StringVarP(&outputPath, FlagOutput, "o", "", "write the CSV report here instead of stdout")
	return cmd
}

func validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <experiment.json>",
		Short: "Load and type-check an experiment description without running it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := composer.LoadExperiment(args[0]); err != nil {
				return err
			}
			fmt.Println("experiment description is valid")
			return nil
		},
	}
}
