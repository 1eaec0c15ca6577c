package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/saferwall/rulescan/modules/olecf"
)

func newDumpOlecfCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dump-olecf <file>",
		Short: "parse a compound-file container and print its streams",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			f, err := olecf.Parse(data)
			if err != nil {
				return err
			}
			for _, e := range f.Streams() {
				fmt.Println(e)
			}
			return nil
		},
	}
	return cmd
}
