package cmd

import (
	"fmt"
	"os"

	"github.com/Witchie/BinSerializer/cmd/bench"
	"github.com/Witchie/BinSerializer/cmd/typeid"
	"github.com/Witchie/BinSerializer/cmd/util"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	Version = "0.3.0"
)

var (

	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "binser",
		Short: "type resolution tooling for the binary serializer",
		Long: fmt.Sprintf(`binser (v%s)

Inspect and exercise the type-resolution core of the binary serializer:
resolve canonical type ids, adapt routines between types and benchmark
the resolver and adapter caches.`, Version),
		SilenceUsage: true,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if viper.GetBool("metrics") {
				fmt.Println()
				util.PrintMetrics(os.Stdout)
			}
		},
	}
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of binser",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("binser v%s\n", Version)
		},
	}

	// metricsCmd resolves the given type ids and prints the resulting metrics
	metricsCmd = &cobra.Command{
		Use:   "metrics [id...]",
		Short: "Print registry, resolver and adapter metrics",
		Long: `Resolve the given type ids including their routines and print all
metrics in the prometheus text format.`,
		RunE: runMetrics,
	}
)

func init() {
	cobra.OnInitialize(util.InitConfig)

	// Add Commands
	RootCmd.AddCommand(typeid.TypeIdCommands)
	RootCmd.AddCommand(bench.BenchCmd)
	RootCmd.AddCommand(metricsCmd)
	RootCmd.AddCommand(versionCmd)

	// Add Flags
	key := "log-level"
	RootCmd.PersistentFlags().String(key, "warn", util.WrapString("Log level (debug, info, warn, error)"))
	key = "manifest"
	RootCmd.PersistentFlags().String(key, "", util.WrapString("Path of a TOML schema manifest whose types are registered on top of the primitives"))
	key = "metrics"
	RootCmd.PersistentFlags().Bool(key, false, util.WrapString("Print the prometheus metrics after the command finished"))
}

func runMetrics(cmd *cobra.Command, args []string) error {
	_, s, err := util.Setup(cmd)
	if err != nil {
		return err
	}

	for _, id := range args {
		t, err := s.TypeForId(id)
		if err != nil {
			return err
		}
		// resolving fills the closed method cache of generic types
		if _, err := s.GetWriter(t); err != nil {
			return err
		}
	}

	// printed by the root post run when --metrics is set
	if !viper.GetBool("metrics") {
		util.PrintMetrics(os.Stdout)
	}
	return nil
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
