package service

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/layer-3/revbench/core"
)

// Report output formats
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Render writes reports to w in the given format
func Render(w io.Writer, reports []core.Report, format string) error {
	switch format {
	case FormatText, "":
		return renderText(w, reports)
	case FormatJSON:
		summaries := make([]core.Summary, len(reports))
		for i, r := range reports {
			summaries[i] = r.Summary()
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(summaries); err != nil {
			return fmt.Errorf("failed to encode reports: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("unknown report format %q: %w", format, core.ErrInvalidConfig)
	}
}

func renderText(w io.Writer, reports []core.Report) error {
	for _, r := range reports {
		if _, err := fmt.Fprintln(w, "-----------"); err != nil {
			return err
		}
		if r.Failed() {
			if _, err := fmt.Fprintf(w, "%s failed: %v\n", r.Registry, r.Err); err != nil {
				return err
			}
			continue
		}
		_, err := fmt.Fprintf(w,
			"%s:\nInsert %d took %s seconds.\nQuerying %d took %s seconds, with %d false positive\nMem used %s.\n",
			r.Registry,
			r.Insert.Count, formatSeconds(r.Insert.Seconds()),
			r.Query.Count, formatSeconds(r.Query.Seconds()), r.Probe.FalsePositives,
			HumanBytes(r.MemoryBytes),
		)
		if err != nil {
			return err
		}
	}
	return nil
}

func formatSeconds(s float64) string {
	return strconv.FormatFloat(s, 'f', -1, 64)
}

// HumanBytes formats n the way Redis reports used_memory_human:
// plain bytes below 1K, otherwise two decimals and a K, M, G or T suffix.
func HumanBytes(n int64) string {
	const units = "KMGT"
	if n < 1024 {
		return strconv.FormatInt(n, 10) + "B"
	}
	v := float64(n)
	unit := -1
	for v >= 1024 && unit < len(units)-1 {
		v /= 1024
		unit++
	}
	return fmt.Sprintf("%.2f%c", v, units[unit])
}
