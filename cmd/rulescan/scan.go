package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/saferwall/rulescan"
	_ "github.com/saferwall/rulescan/modules/olecf"
	"github.com/saferwall/rulescan/rtfile"
)

func newScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan <compiled.rules> <target-file>",
		Short: "scan a file against a compiled rule artifact",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			blob, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			rules, err := rulescan.Deserialize(blob)
			if err != nil {
				return err
			}
			scanner, err := rulescan.New(rules, nil)
			if err != nil {
				return err
			}
			res, err := rtfile.ScanFile(scanner, args[1])
			if err != nil {
				return err
			}
			defer res.Release()

			for it := res.Iter(); ; {
				r, ok := it.Next()
				if !ok {
					break
				}
				fmt.Printf("%s:%s\n", r.Namespace, r.Identifier)
			}
			return nil
		},
	}
	return cmd
}
