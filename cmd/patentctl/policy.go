package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newPolicyCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "policy",
		Short: "Print the accepted media types and size limit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p := opts.gate().Policy()
			w := cmd.OutOrStdout()
			if opts.jsonOutput {
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				return enc.Encode(p)
			}
			fmt.Fprintf(w, "allowed types: %s\n", strings.Join(p.AllowedTypes, ", "))
			fmt.Fprintf(w, "extensions:    %s\n", strings.Join(p.Extensions, ", "))
			fmt.Fprintf(w, "max size:      %d bytes\n", p.MaxSize)
			return nil
		},
	}
}
