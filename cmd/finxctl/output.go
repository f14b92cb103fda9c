package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func printResult(cmd *cobra.Command, opts *globalOptions, v any, text func() string) error {
	out := cmd.OutOrStdout()
	if opts.outputJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	_, err := fmt.Fprintln(out, text())
	return err
}
