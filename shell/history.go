package shell

import (
	"fmt"
	"io"
	"strings"
	"time"

	"library-lending/library"
)

// PrintHistory writes journal entries as a table, oldest first.
func PrintHistory(w io.Writer, entries []library.Entry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No history recorded.")
		return
	}
	fmt.Fprintf(w, "%-5s %-20s %-18s %s\n", "Seq", "When", "Event", "Details")
	fmt.Fprintln(w, strings.Repeat("-", 80))
	for _, e := range entries {
		fmt.Fprintf(w, "%-5d %-20s %-18s %s\n",
			e.Seq,
			e.OccurredAt.Local().Format(time.DateTime),
			e.Kind,
			describeEntry(e))
	}
}
