// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package history

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

// FormatTable writes jobs as an aligned table in the order given.
// Failed jobs show their error where successes show the output path.
func FormatTable(w io.Writer, jobs []Job) {
	fmt.Fprintf(w, "%-8s  %-16s  %-28s  %8s  %-6s  %s\n",
		"ID", "STARTED", "DATASET", "ROWS", "STATUS", "OUTPUT")
	fmt.Fprintln(w, strings.Repeat("-", 96))
	for _, job := range jobs {
		out := job.Output
		if job.Status == StatusFailed && job.Error != "" {
			out = job.Error
		}
		fmt.Fprintf(w, "%-8s  %-16s  %-28s  %8s  %-6s  %s\n",
			shortID(job.ID),
			job.StartedAt.Local().Format("2006-01-02 15:04"),
			truncate(job.Dataset, 28),
			strconv.FormatUint(job.Rows, 10),
			job.Status,
			truncate(out, 48),
		)
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}
