package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"gocuts/internal/diagnostics"
	"gocuts/internal/errors"

	"github.com/spf13/cobra"
)

func newShowCmd(opts *engineOptions) *cobra.Command {
	var raw bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "List the enabled cuts",
		Long: `List the enabled cuts with their level and description.

Example: cutflow show --data run392.csv --raw`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEngine(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer e.close()

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "Cut Name\tLevel\tDescription")
			for _, row := range diagnostics.Table(e.gen.Registry(), raw) {
				fmt.Fprintf(w, "%s\t%5d\t%s\n", row.Name, row.Level, row.Text)
			}
			return w.Flush()
		},
	}

	cmd.Flags().BoolVar(&raw, "raw", false, "Print the predicates instead of the descriptions")
	return cmd
}

func newFlowCmd(opts *engineOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "flow",
		Short: "Count the events passing each consecutive cut",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEngine(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer e.close()

			flow, err := diagnostics.CutFlow(cmd.Context(), e.data, e.gen.Registry())
			if err != nil {
				return err
			}
			total := e.data.TotalRows()
			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "Step\tEvents\tPassing")
			for _, s := range flow {
				fmt.Fprintf(w, "%s\t%d\t%.1f%%\n", s.Name, s.Events, 100*float64(s.Events)/float64(max(total, 1)))
			}
			return w.Flush()
		},
	}
}

func newContributionsCmd(opts *engineOptions) *cobra.Command {
	var short bool

	cmd := &cobra.Command{
		Use:   "contributions",
		Short: "Show how many events each cut removes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEngine(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer e.close()

			contr, err := diagnostics.Contributions(cmd.Context(), e.data, e.gen.Registry(), short)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			for _, c := range contr {
				fmt.Fprintf(w, "%s\t%d\n", c.Name, c.Events)
			}
			return w.Flush()
		},
	}

	cmd.Flags().BoolVar(&short, "short", false, "Fold contributions below 3% into Other")
	return cmd
}

func newReportCmd(opts *engineOptions) *cobra.Command {
	var format string
	var out string

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Write a cut report",
		Long: `Write the cut table, cut flow and contributions of a run.

Example: cutflow report --data run392.csv --format html --out run392.html`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEngine(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer e.close()

			report, err := diagnostics.NewReport(cmd.Context(), e.run, e.data, e.gen.Registry())
			if err != nil {
				return err
			}

			var body []byte
			switch format {
			case "md", "markdown":
				body = []byte(report.Markdown())
			case "html":
				body = report.HTML()
			case "json":
				if body, err = json.MarshalIndent(report, "", "  "); err != nil {
					return errors.InternalError(fmt.Sprintf("encoding report %s: %v", report.ID, err))
				}
			default:
				return errors.InvalidInput(fmt.Sprintf("unknown report format %q (want md, html or json)", format))
			}

			if out == "" {
				_, err = os.Stdout.Write(body)
				return err
			}
			e.logger.Info("writing report %s to %s", report.ID, out)
			return os.WriteFile(out, body, 0o644)
		},
	}

	cmd.Flags().StringVar(&format, "format", "md", "Report format: md|html|json")
	cmd.Flags().StringVar(&out, "out", "", "Output file (default: stdout)")
	return cmd
}

func newPrecomputeCmd(opts *engineOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "precompute",
		Short: "Fill the compute cache for a run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEngine(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer e.close()

			if err := e.gen.Precompute(cmd.Context()); err != nil {
				return err
			}
			drop, err := e.gen.FindSignalDrop(cmd.Context(), "signal")
			if err != nil {
				e.logger.Warn("signal drop search failed: %v", err)
				return nil
			}
			if drop != nil {
				fmt.Printf("signal drops after event %d\n", *drop)
			}
			return nil
		},
	}
}
