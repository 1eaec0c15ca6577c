package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/saferwall/rulescan/compiler"
)

func newCompileCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "compile <source.rules>",
		Short: "compile rule source into a serialized CompiledRules artifact",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			rules, err := compiler.Compile(source)
			if err != nil {
				return err
			}
			blob, err := rules.Serialize()
			if err != nil {
				return err
			}
			if out == "" {
				out = args[0] + ".compiled"
			}
			return os.WriteFile(out, blob, 0o644)
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output path for the compiled artifact")
	return cmd
}
