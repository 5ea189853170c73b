package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/gate4ai/leadsuite/runner/scenario"
	"github.com/gate4ai/leadsuite/shared/fakedata"
	"github.com/gate4ai/leadsuite/shared/fixture"
	"github.com/gate4ai/leadsuite/stubcrm"
)

func newFixtureCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fixture",
		Short: "Inspect or generate lead fixtures",
	}
	cmd.AddCommand(newFixtureInspectCmd(), newFixtureGenerateCmd())
	return cmd
}

func newFixtureInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <path>",
		Short: "Load a fixture and print its rows with their case names",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := fixture.Load(args[0])
			if err != nil {
				return err
			}
			return printTable(cmd.OutOrStdout(), table)
		},
	}
}

func printTable(out io.Writer, table *fixture.Table) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "#\t%s\n", strings.Join(table.Headers(), "\t"))
	for i, row := range table.Rows() {
		fmt.Fprintf(tw, "%d\t%s\n", i, strings.Join(row.Values(), "\t"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintln(out)
	for _, c := range scenario.Plan(table) {
		fmt.Fprintln(out, c.Name)
	}
	return nil
}

func newFixtureGenerateCmd() *cobra.Command {
	var (
		rows int
		seed uint64
		out  string
	)
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Write a synthetic lead fixture",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if rows < 1 {
				return fmt.Errorf("--rows must be at least 1, got %d", rows)
			}
			write := func(w io.Writer) error {
				return fixture.Write(w, scenario.Columns, generateRows(fakedata.New(seed), rows))
			}
			if out == "" {
				return write(cmd.OutOrStdout())
			}
			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", out, err)
			}
			if err := writeAndClose(f, write); err != nil {
				return fmt.Errorf("failed to write %s: %w", out, err)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&rows, "rows", 5, "Number of rows")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "Seed for reproducible output (0 is random)")
	cmd.Flags().StringVar(&out, "out", "", "Output file (default stdout)")
	return cmd
}

// writeAndClose runs write on wc and closes it, returning the first error of the two.
func writeAndClose(wc io.WriteCloser, write func(io.Writer) error) error {
	werr := write(wc)
	cerr := wc.Close()
	if werr != nil {
		return werr
	}
	return cerr
}

// generateRows draws picklist columns from the values the lead form offers and the
// address from the generator.
func generateRows(g *fakedata.Faker, n int) [][]string {
	rows := make([][]string, 0, n)
	for range n {
		row := map[string]string{
			scenario.ColSalutation: g.Pick(stubcrm.Picklists["salutation"]),
			scenario.ColLeadSource: g.Pick(stubcrm.Picklists["leadSource"]),
			scenario.ColIndustry:   g.Pick(stubcrm.Picklists["industry"]),
			scenario.ColRating:     g.Pick(stubcrm.Picklists["rating"]),
			scenario.ColLeadStatus: g.Pick(stubcrm.Picklists["leadStatus"]),
			scenario.ColStreet:     g.Address(),
			scenario.ColCity:       g.City(),
			scenario.ColPostalCode: g.PinCode(),
			scenario.ColState:      g.State(),
			scenario.ColCountry:    g.Country(),
		}
		cells := make([]string, len(scenario.Columns))
		for i, col := range scenario.Columns {
			cells[i] = cellSafe(row[col])
		}
		rows = append(rows, cells)
	}
	return rows
}

// cellSafe drops the characters the fixture format cannot carry.
func cellSafe(v string) string {
	return strings.TrimSpace(strings.Map(func(r rune) rune {
		switch r {
		case ',', '\r', '\n':
			return -1
		}
		return r
	}, v))
}
