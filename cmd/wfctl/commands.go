package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"matflow/application/services"
	"matflow/domain/core/validators"
	"matflow/domain/versioning"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// errInvalid makes validate exit non-zero once the report has been printed
var errInvalid = errors.New("workflow has errors")

type options struct {
	jsonOutput bool
	verbose    bool
	output     string
	algorithm  string
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	var tools *services.WorkflowTools

	root := &cobra.Command{
		Use:           "wfctl",
		Short:         "Work with exported workflow files",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			tools = services.NewWorkflowTools(nil, newLogger(opts.verbose, cmd.ErrOrStderr()))
			return nil
		},
	}
	root.PersistentFlags().BoolVar(&opts.jsonOutput, "json", false, "print results as JSON")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")

	validateCmd := &cobra.Command{
		Use:   "validate FILE",
		Short: "Report missing attributes and dropped relationships",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			result, err := tools.Validate(data)
			if err != nil {
				return err
			}
			if err := printValidation(cmd.OutOrStdout(), result, opts.jsonOutput); err != nil {
				return err
			}
			if !result.Valid() {
				return errInvalid
			}
			return nil
		},
	}

	layoutCmd := &cobra.Command{
		Use:   "layout FILE",
		Short: "Re-position nodes with a layout algorithm",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			result, err := tools.Layout(cmd.Context(), data, opts.algorithm)
			if err != nil {
				return err
			}
			if opts.output != "" {
				return os.WriteFile(opts.output, result.Workflow, 0o644)
			}
			if opts.jsonOutput {
				return writeJSON(cmd.OutOrStdout(), result)
			}
			for _, p := range result.Positions {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\t%.1f\t%.1f\n", p.ID, p.Type, p.Name, p.X, p.Y)
			}
			return nil
		},
	}
	layoutCmd.Flags().StringVarP(&opts.algorithm, "algorithm", "a", "force", "force, hierarchical or grid")
	layoutCmd.Flags().StringVarP(&opts.output, "output", "o", "", "write the laid out workflow to a file")

	diffCmd := &cobra.Command{
		Use:   "diff FROM TO",
		Short: "List node and relationship changes between two files",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			from, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			to, err := os.ReadFile(args[1])
			if err != nil {
				return err
			}
			diff, err := tools.Diff(from, to)
			if err != nil {
				return err
			}
			return printDiff(cmd.OutOrStdout(), diff, opts.jsonOutput)
		},
	}

	normalizeCmd := &cobra.Command{
		Use:   "normalize FILE",
		Short: "Re-encode a file, dropping what the importer rejects",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			out, report, err := tools.Normalize(data)
			if err != nil {
				return err
			}
			for _, d := range report.DroppedRelationships {
				fmt.Fprintf(cmd.ErrOrStderr(), "dropped %s -> %s: %s\n", d.Start, d.End, d.Reason)
			}
			for _, id := range report.DuplicateNodes {
				fmt.Fprintf(cmd.ErrOrStderr(), "dropped duplicate node %s\n", id)
			}
			if opts.output != "" {
				return os.WriteFile(opts.output, out, 0o644)
			}
			_, err = cmd.OutOrStdout().Write(append(out, '\n'))
			return err
		},
	}
	normalizeCmd.Flags().StringVarP(&opts.output, "output", "o", "", "write the result to a file")

	root.AddCommand(validateCmd, layoutCmd, diffCmd, normalizeCmd)
	return root
}

func newLogger(verbose bool, w io.Writer) *zap.Logger {
	level := zapcore.WarnLevel
	if verbose {
		level = zapcore.DebugLevel
	}
	encoder := zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	core := zapcore.NewCore(encoder, zapcore.AddSync(w), level)
	return zap.New(core)
}

func printValidation(w io.Writer, result *services.ValidationResult, asJSON bool) error {
	if asJSON {
		return writeJSON(w, result)
	}
	fmt.Fprintf(w, "%d nodes, %d relationships\n", result.Nodes, result.Relationships)
	for _, issue := range result.Issues {
		if issue.NodeID != "" {
			fmt.Fprintf(w, "%s\t%s\t%s\n", issue.Severity, issue.NodeID, issue.Message)
		} else {
			fmt.Fprintf(w, "%s\t-\t%s\n", issue.Severity, issue.Message)
		}
	}
	counts := validators.CountBySeverity(result.Issues)
	fmt.Fprintf(w, "%d errors, %d warnings\n", counts[validators.SeverityError], counts[validators.SeverityWarning])
	return nil
}

func printDiff(w io.Writer, diff versioning.VersionDiff, asJSON bool) error {
	if asJSON {
		return writeJSON(w, diff)
	}
	if diff.Empty() {
		fmt.Fprintln(w, "no changes")
		return nil
	}
	for _, c := range diff.Changes {
		if c.Detail != "" {
			fmt.Fprintf(w, "%s\t%s\t%s\n", c.Type, c.EntityID, c.Detail)
		} else {
			fmt.Fprintf(w, "%s\t%s\n", c.Type, c.EntityID)
		}
	}
	return nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
