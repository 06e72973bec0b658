package main

import (
	"github.com/spf13/cobra"

	"patentcheck/internal/config"
	"patentcheck/internal/intake"
)

type rootOptions struct {
	jsonOutput bool
	gate       func() *intake.Gate
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{
		gate: func() *intake.Gate { return config.Load().Intake.Gate() },
	}

	cmd := &cobra.Command{
		Use:   "patentctl",
		Short: "Check patent documents against the upload policy",
		Long: `patentctl applies the same intake policy as the API server:
the media type must be PDF, DOC, DOCX or plain text, and the file must not
exceed the size limit (INTAKE_MAX_UPLOAD_BYTES, 10MB by default).`,
		SilenceUsage: true,
	}
	cmd.PersistentFlags().BoolVar(&opts.jsonOutput, "json", false, "print results as JSON")

	cmd.AddCommand(newValidateCmd(opts))
	cmd.AddCommand(newPolicyCmd(opts))
	return cmd
}
