package main

// Parse reviewer feedback or render apply instructions offline:
//   go run ./cmd/feedbackctl parse --specialist fiscalist --stage stage-2 feedback.txt
//   go run ./cmd/feedbackctl serialize proposals.json

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"box3-backend/internal/feedback"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "feedbackctl",
		Short:         "Inspect reviewer feedback parsing and instruction rendering",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.AddCommand(newParseCmd(), newSerializeCmd())
	return root
}

func newParseCmd() *cobra.Command {
	var (
		format     string
		specialist string
		stageID    string
	)
	cmd := &cobra.Command{
		Use:   "parse [file]",
		Short: "Parse raw reviewer feedback into change proposals",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			proposals := feedback.Parse(string(raw), specialist, stageID)
			return writeProposals(cmd.OutOrStdout(), format, proposals)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "json", "output format: json or yaml")
	cmd.Flags().StringVar(&specialist, "specialist", "reviewer", "specialist attributed to each proposal")
	cmd.Flags().StringVar(&stageID, "stage", "stage", "stage id used as proposal id prefix")
	return cmd
}

func newSerializeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serialize [file]",
		Short: "Render decided proposals (JSON or YAML) as apply instructions",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			var proposals []feedback.ChangeProposal
			// YAML is a superset of JSON, so one decoder covers both inputs.
			if err := yaml.Unmarshal(raw, &proposals); err != nil {
				return fmt.Errorf("decode proposals: %w", err)
			}
			_, err = io.WriteString(cmd.OutOrStdout(), feedback.Serialize(proposals))
			return err
		},
	}
}

func readInput(cmd *cobra.Command, args []string) ([]byte, error) {
	if len(args) == 0 || args[0] == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", args[0], err)
	}
	return data, nil
}

func writeProposals(w io.Writer, format string, proposals []feedback.ChangeProposal) error {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json", "":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(proposals)
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(proposals); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown format %q (want json or yaml)", format)
	}
}
