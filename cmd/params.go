package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nvr-ai/go-silhouette/params"
)

var (
	paramsDefaults bool
	paramsWrite    string
)

var paramsCmd = &cobra.Command{
	Use:   "params",
	Short: "Print the effective parameter set as YAML",
	Long: `Prints the tunables the pipeline would start with: the configuration file's
params section, or the defaults with --defaults. --write saves the set to a
file that run --params can load and watch.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		set := cfg.Params
		if paramsDefaults {
			set = params.Defaults()
		}
		if paramsWrite != "" {
			if err := params.SaveFile(paramsWrite, set); err != nil {
				return err
			}
			logger.Infow("parameters written", "path", paramsWrite)
			return nil
		}
		data, err := params.Marshal(set)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), string(data))
		return nil
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration as YAML",
	RunE: func(cmd *cobra.Command, _ []string) error {
		data, err := cfg.Marshal()
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), string(data))
		return nil
	},
}

func init() {
	paramsCmd.Flags().BoolVar(&paramsDefaults, "defaults", false, "Print the built-in defaults")
	paramsCmd.Flags().StringVarP(&paramsWrite, "write", "w", "", "Write the set to this file instead of printing it")
	rootCmd.AddCommand(paramsCmd, configCmd)
}
