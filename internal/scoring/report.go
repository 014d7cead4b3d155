package scoring

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"ibis/internal/repressor"
)

func bit(v bool) string {
	if v {
		return "1"
	}
	return "0"
}

// WriteReport renders one line per input row with the input values, the
// output truth value, the row signal and its log-ratio contribution,
// followed by the aggregate figures.
func WriteReport(w io.Writer, res Result) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	header := append(append([]string(nil), res.Inputs...), res.Output, "signal", "contribution")
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	for _, row := range res.Rows {
		cells := make([]string, 0, len(header))
		for _, v := range row.Inputs {
			cells = append(cells, bit(v))
		}
		cells = append(cells, bit(row.Truth), fmt.Sprintf("%.4f", row.Signal), fmt.Sprintf("%.4f", row.Contribution))
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "low_on=%.6g high_off=%.6g score=%.4f\n", res.LowOn, res.HighOff, res.Score)
	return err
}

// WriteGateTable renders the extremes visited when scoring a repressor gate.
func WriteGateTable(w io.Writer, gate string, rows []repressor.ScoreRow) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "logical_input\tbiological_input\toutput\tresponse")
	for _, row := range rows {
		logical := make([]string, len(row.Logical))
		for i, v := range row.Logical {
			logical[i] = v.String()
		}
		bio := make([]string, len(row.Biological))
		for i, v := range row.Biological {
			bio[i] = fmt.Sprintf("%.4g", v)
		}
		fmt.Fprintf(tw, "(%s)\t[%s]\t%s\t%.4f\n", strings.Join(logical, ", "), strings.Join(bio, ", "), row.Output, row.Response)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	lowOn, highOff := repressor.LowOnHighOff(rows)
	_, err := fmt.Fprintf(w, "gate=%s low_on=%.6g high_off=%.6g score=%.4f\n", gate, lowOn, highOff, repressor.DynamicRange(rows))
	return err
}
