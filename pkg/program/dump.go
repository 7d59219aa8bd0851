package program

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/chazu/isr/pkg/scene"
)

// Dump writes a human-readable listing of records, one line each, with
// the stack depth after the record runs.
func Dump(w io.Writer, records []scene.Record) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tKIND\tDEPTH\tCOLOR\tPARAMS")

	depth := 0
	for i, r := range records {
		k := r.Kind()
		if k.IsOperator() {
			depth--
		} else {
			depth++
		}
		c := r.Color()
		fmt.Fprintf(tw, "%d\t%s\t%d\t%.3g %.3g %.3g %.3g\t%s\n",
			i, k, depth, c.R, c.G, c.B, c.A, params(r, k))
	}
	return tw.Flush()
}

func params(r scene.Record, k scene.Kind) string {
	if k.IsOperator() {
		if r.Swapped() {
			return "right-first"
		}
		return "-"
	}
	n := scene.ParamCount(k) + 2 // material suffix
	parts := make([]string, n)
	for i := range parts {
		parts[i] = fmt.Sprintf("%g", r[scene.ParamOffset+i])
	}
	return strings.Join(parts, " ")
}
