package pipeline

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/ntentasd/pdm-pipeline/pkg/types"
)

// Column naming is the contract the external training component depends on:
// machine_id, timestamp, <field>mean_<window> and <field>sd_<window> per
// window, <category>count per error category, <component> recency, model,
// age, label.

func windowSuffix(w time.Duration) string {
	return fmt.Sprintf("%dh", int(w.Hours()))
}

// Columns returns the output header for the configured category sets.
func Columns(cfg Config) []string {
	cols := []string{"machine_id", "timestamp"}
	for _, w := range []time.Duration{cfg.ShortWindow, cfg.LongWindow} {
		for _, f := range types.TelemetryFieldNames {
			cols = append(cols, f+"mean_"+windowSuffix(w))
		}
		for _, f := range types.TelemetryFieldNames {
			cols = append(cols, f+"sd_"+windowSuffix(w))
		}
	}
	for _, e := range cfg.ErrorSet {
		cols = append(cols, e+"count")
	}
	cols = append(cols, cfg.ComponentSet...)
	return append(cols, "model", "age", "label")
}

func row(rec types.LabelledRecord) []string {
	num := func(v float64) string {
		return strconv.FormatFloat(v, 'g', -1, 64)
	}

	out := []string{
		strconv.Itoa(rec.MachineID),
		rec.Timestamp.Format(time.DateTime),
	}
	for _, vec := range [][4]float64{rec.ShortMean, rec.ShortSD} {
		for _, v := range vec {
			out = append(out, num(v))
		}
	}
	for _, vec := range [][4]float64{rec.LongMean, rec.LongSD} {
		for _, v := range vec {
			out = append(out, num(v))
		}
	}
	for _, v := range rec.ErrorCounts {
		out = append(out, num(v))
	}
	for _, v := range rec.Recency {
		out = append(out, num(v))
	}
	return append(out, rec.Model, strconv.Itoa(rec.Age), rec.Label)
}

// WriteCSV writes the labelled table under the column-naming contract.
// Output is byte-deterministic for a given record order.
func WriteCSV(w io.Writer, cfg Config, records []types.LabelledRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns(cfg)); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, rec := range records {
		if err := cw.Write(row(rec)); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
