package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"patentcheck/internal/intake"
)

type fileResult struct {
	File        string        `json:"file"`
	ContentType string        `json:"content_type"`
	Size        int64         `json:"size"`
	Accepted    bool          `json:"accepted"`
	Reason      intake.Reason `json:"reason,omitempty"`
	Message     string        `json:"message,omitempty"`
	Error       string        `json:"error,omitempty"`
}

func newValidateCmd(opts *rootOptions) *cobra.Command {
	var contentType string

	cmd := &cobra.Command{
		Use:   "validate FILE...",
		Short: "Check files against the intake policy",
		Long: `Checks each file's media type, then its size. The media type is derived
from the file extension unless --type is given. Exits non-zero when any file
is rejected or cannot be read.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			gate := opts.gate()
			results := make([]fileResult, 0, len(args))
			failed := 0
			for _, path := range args {
				r := checkFile(gate, path, contentType)
				if !r.Accepted {
					failed++
				}
				results = append(results, r)
			}

			if err := writeResults(cmd.OutOrStdout(), results, opts.jsonOutput); err != nil {
				return err
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d files rejected", failed, len(args))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&contentType, "type", "t", "", "media type to assume for every file")
	return cmd
}

func checkFile(gate *intake.Gate, path, contentType string) fileResult {
	r := fileResult{File: path, ContentType: contentType}
	if r.ContentType == "" {
		r.ContentType = intake.TypeForExtension(path)
	}

	info, err := os.Stat(path)
	switch {
	case err != nil:
		r.Error = err.Error()
		return r
	case info.IsDir():
		r.Error = "is a directory"
		return r
	}
	r.Size = info.Size()

	out := gate.Validate(intake.Candidate{Filename: path, ContentType: r.ContentType, Size: r.Size})
	r.Accepted = out.Accepted
	r.Reason = out.Reason
	r.Message = intake.Describe(out.Reason, out.Limit, out.Allowed...)
	return r
}

func writeResults(w io.Writer, results []fileResult, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}
	for _, r := range results {
		switch {
		case r.Error != "":
			fmt.Fprintf(w, "%s: error: %s\n", r.File, r.Error)
		case r.Accepted:
			fmt.Fprintf(w, "%s: accepted (%s, %d bytes)\n", r.File, r.ContentType, r.Size)
		default:
			fmt.Fprintf(w, "%s: rejected: %s (%s)\n", r.File, r.Reason, r.Message)
		}
	}
	return nil
}
