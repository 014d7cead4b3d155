package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"ibis/internal/artifacts"
	"ibis/internal/equiv"
	"ibis/internal/netlist"
	ibisapi "ibis/pkg/ibis"
)

func newTruthTableCmd(a *app) *cobra.Command {
	var (
		csvOut string
		verify bool
	)
	cmd := &cobra.Command{
		Use:   "truth-table <netlist.yaml>",
		Short: "Print the exhaustive truth table of a netlist",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := netlist.LoadRecords(args[0])
			if err != nil {
				return err
			}
			table, err := n.TruthTable()
			if err != nil {
				return err
			}
			if verify {
				if err := equiv.CrossCheck(n); err != nil {
					return err
				}
				a.log.WithField("rows", len(table.Rows)).Debug("truth table cross-checked")
			}
			if csvOut != "" {
				w, done, err := a.writeTo(csvOut)
				if err != nil {
					return err
				}
				if err := artifacts.WriteTruthTableCSV(w, table); err != nil {
					_ = done()
					return err
				}
				if err := done(); err != nil {
					return err
				}
				fmt.Fprintf(a.stdout, "rows=%d path=%s\n", len(table.Rows), csvOut)
				return nil
			}
			fmt.Fprintln(a.stdout, strings.Join(table.Inputs, " ")+" | "+strings.Join(table.Outputs, " "))
			width := len(table.Inputs)
			for _, row := range table.Matrix() {
				cells := make([]string, len(row))
				for i, v := range row {
					cells[i] = strconv.Itoa(v)
				}
				fmt.Fprintln(a.stdout, strings.Join(cells[:width], " ")+" | "+strings.Join(cells[width:], " "))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&csvOut, "csv", "", "write the table as CSV to this path")
	cmd.Flags().BoolVar(&verify, "verify", false, "cross-check against the compiled and-inverter graph")
	return cmd
}

func newEvaluateCmd(a *app) *cobra.Command {
	var (
		output string
		sets   []string
	)
	cmd := &cobra.Command{
		Use:   "evaluate <netlist.yaml>",
		Short: "Evaluate one output for an input assignment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := netlist.LoadRecords(args[0])
			if err != nil {
				return err
			}
			values := make(map[string]bool, len(sets))
			for _, s := range sets {
				name, raw, ok := strings.Cut(s, "=")
				if !ok {
					return fmt.Errorf("invalid --set %q, want name=0|1", s)
				}
				v, err := strconv.ParseBool(raw)
				if err != nil {
					return fmt.Errorf("invalid --set %q: %w", s, err)
				}
				values[name] = v
			}
			outputs := n.Outputs()
			if output != "" {
				outputs = []string{output}
			}
			for _, name := range outputs {
				v, err := n.EvaluateNamed(name, values)
				if err != nil {
					return err
				}
				fmt.Fprintf(a.stdout, "%s=%d\n", name, bit(v))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&output, "output", "", "output to evaluate (default: all outputs)")
	cmd.Flags().StringArrayVar(&sets, "set", nil, "input assignment name=0|1, repeatable")
	return cmd
}

func newEquivCmd(a *app) *cobra.Command {
	var (
		vector string
		output string
	)
	cmd := &cobra.Command{
		Use:   "equiv <netlist.yaml> [other.yaml]",
		Short: "Prove two netlists equivalent or check an output against a truth vector",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := netlist.LoadRecords(args[0])
			if err != nil {
				return err
			}
			var res equiv.Result
			switch {
			case len(args) == 2 && vector != "":
				return errors.New("use either a second netlist or --vector")
			case len(args) == 2:
				other, err := netlist.LoadRecords(args[1])
				if err != nil {
					return err
				}
				res, err = equiv.CheckNetworks(cmd.Context(), n, other)
				if err != nil {
					return err
				}
			case vector != "":
				values, err := parseVector(vector)
				if err != nil {
					return err
				}
				if output == "" {
					outputs := n.Outputs()
					if len(outputs) == 0 {
						return errors.New("netlist declares no outputs")
					}
					output = outputs[0]
				}
				res, err = equiv.CheckVector(cmd.Context(), n, output, values)
				if err != nil {
					return err
				}
			default:
				return errors.New("equiv needs a second netlist or --vector")
			}

			if res.Equivalent {
				fmt.Fprintln(a.stdout, "equivalent=true")
				return nil
			}
			assignment := make([]string, len(res.Inputs))
			for i, name := range res.Inputs {
				assignment[i] = fmt.Sprintf("%s=%d", name, bit(res.Counterexample[i]))
			}
			fmt.Fprintf(a.stdout, "equivalent=false output=%s counterexample=%s\n", res.Output, strings.Join(assignment, ","))
			return nil
		},
	}
	cmd.Flags().StringVar(&vector, "vector", "", "expected output column in canonical row order, e.g. 0111")
	cmd.Flags().StringVar(&output, "output", "", "output checked against --vector (default: first output)")
	return cmd
}

func parseVector(s string) ([]bool, error) {
	values := make([]bool, 0, len(s))
	for _, r := range s {
		switch r {
		case '0':
			values = append(values, false)
		case '1':
			values = append(values, true)
		case '_', ' ':
		default:
			return nil, fmt.Errorf("invalid truth vector %q", s)
		}
	}
	return values, nil
}

func newNetlistCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "netlist",
		Short: "Store and fetch netlist structures",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "save <id> <netlist.yaml>",
		Short: "Save a netlist's interface and edge list",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := netlist.LoadRecords(args[1])
			if err != nil {
				return err
			}
			client, err := a.client(cmd.Context())
			if err != nil {
				return err
			}
			defer client.Close()
			record, err := client.SaveNetlist(cmd.Context(), args[0], n)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "netlist_id=%s nodes=%d edges=%d depth=%d\n", record.ID, record.NodeCount, len(record.Edges), n.Depth())
			return nil
		},
	})

	var out string
	load := &cobra.Command{
		Use:   "load <id>",
		Short: "Write a stored netlist as an edge list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.client(cmd.Context())
			if err != nil {
				return err
			}
			defer client.Close()
			record, ok, err := client.GetNetlist(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("netlist not found: %s", args[0])
			}
			if out != "" {
				f, err := os.Create(out)
				if err != nil {
					return err
				}
				if err := netlist.WriteEdgeList(f, ibisapi.StructureOf(record)); err != nil {
					_ = f.Close()
					return err
				}
				return f.Close()
			}
			fmt.Fprintf(a.stdout, "# inputs %s\n# outputs %s\n", strings.Join(record.Inputs, " "), strings.Join(record.Outputs, " "))
			return netlist.WriteEdgeList(a.stdout, ibisapi.StructureOf(record))
		},
	}
	load.Flags().StringVar(&out, "out", "", "write the edge list to this path")
	cmd.AddCommand(load)
	return cmd
}
