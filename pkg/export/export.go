package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/kilianp07/metroplan/core/model"
)

// Format selects the export encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
)

// ParseFormat accepts "json" or "csv", case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatJSON, FormatCSV:
		return f, nil
	default:
		return "", fmt.Errorf("unknown export format %q", s)
	}
}

// WriteJSON writes the plan output to w as indented JSON.
func WriteJSON(w io.Writer, out model.PlanOutput) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// WriteScheduleCSV writes one depot_id,hour,trains row per depot and hour.
// Rows follow the order of depots and hours; a nil depots slice falls back
// to the sorted schedule keys.
func WriteScheduleCSV(w io.Writer, depots []string, hours []int, s model.Schedule) error {
	if depots == nil {
		depots = sortedKeys(s)
	}
	return writeSeries(w, []string{"depot_id", "hour", "trains"}, depots, hours, func(id string, h int) int {
		return s.At(id, h)
	})
}

// WriteDemandCSV writes one line_id,hour,passengers row per line and hour.
func WriteDemandCSV(w io.Writer, lines []string, hours []int, d model.Demand) error {
	if lines == nil {
		lines = sortedKeys(d)
	}
	return writeSeries(w, []string{"line_id", "hour", "passengers"}, lines, hours, func(id string, h int) int {
		return d.At(id, h)
	})
}

func writeSeries(w io.Writer, header, ids []string, hours []int, value func(string, int) int) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, id := range ids {
		for _, h := range hours {
			rec := []string{id, strconv.Itoa(h), strconv.Itoa(value(id, h))}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

func sortedKeys[M ~map[string]model.Series](m M) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Write exports a whole plan. JSON emits the full output; CSV emits the
// schedule followed by a blank line and the demand.
func Write(w io.Writer, f Format, in model.PlanInput, out model.PlanOutput) error {
	switch f {
	case FormatJSON:
		return WriteJSON(w, out)
	case FormatCSV:
		if err := WriteScheduleCSV(w, in.Depots.IDs(), in.Hours, out.Schedule); err != nil {
			return err
		}
		if _, err := io.WriteString(w, "\n"); err != nil {
			return err
		}
		return WriteDemandCSV(w, in.Lines.IDs(), in.Hours, out.PredictedDemand)
	default:
		return fmt.Errorf("unknown export format %q", f)
	}
}
