package bench

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// SweepRow is one thread count of a sweep. Speedup is time(T=1)/time(T)
// and is only meaningful when HasSpeedup is set.
type SweepRow struct {
	Report     Report
	Speedup    float64
	HasSpeedup bool
}

// NewSweep builds rows from reports and fills in speed-up relative to the
// T=1 report. Without a T=1 report every row is left without a speed-up.
func NewSweep(reports []Report) []SweepRow {
	rows := make([]SweepRow, len(reports))

	var base *Report
	for i := range reports {
		rows[i].Report = reports[i]
		if reports[i].Threads == 1 && base == nil {
			base = &reports[i]
		}
	}

	if base == nil || base.Stats.Min <= 0 {
		return rows
	}

	for i := range rows {
		if t := rows[i].Report.Stats.Min; t > 0 {
			rows[i].Speedup = float64(base.Stats.Min) / float64(t)
			rows[i].HasSpeedup = true
		}
	}

	return rows
}

var sweepHeader = []string{"threads", "n", "time_s", "checksum", "gbps", "speedup_vs_T1"}

func (r SweepRow) fields() []string {
	speedup := ""
	if r.HasSpeedup {
		speedup = strconv.FormatFloat(r.Speedup, 'f', 3, 64)
	}
	return []string{
		strconv.Itoa(r.Report.Threads),
		strconv.FormatUint(r.Report.Elements, 10),
		strconv.FormatFloat(r.Report.Stats.Min.Seconds(), 'f', 6, 64),
		strconv.FormatFloat(r.Report.Checksum, 'f', 3, 64),
		strconv.FormatFloat(GBps(r.Report.Bytes, r.Report.Stats.Min), 'f', 3, 64),
		speedup,
	}
}

// FormatSweepCSV writes rows as CSV with a header line.
func FormatSweepCSV(rows []SweepRow, w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(sweepHeader); err != nil {
		return err
	}
	for _, r := range rows {
		if err := cw.Write(r.fields()); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// FormatSweepTable writes rows as an aligned ASCII table.
func FormatSweepTable(rows []SweepRow, w io.Writer) {
	sb := &strings.Builder{}

	fmt.Fprintf(sb, "%7s  %12s  %12s  %16s  %10s  %8s\n", "Threads", "N", "Time(s)", "Checksum", "GB/s", "Speedup")
	fmt.Fprintln(sb, strings.Repeat("-", 73))

	for _, r := range rows {
		f := r.fields()
		fmt.Fprintf(sb, "%7s  %12s  %12s  %16s  %10s  %8s\n", f[0], f[1], f[2], f[3], f[4], f[5])
	}

	fmt.Fprint(w, sb.String())
}

type jsonSweepRow struct {
	Threads  int      `json:"threads"`
	Elements uint64   `json:"n"`
	Seconds  float64  `json:"seconds"`
	Checksum float64  `json:"checksum"`
	GBps     float64  `json:"gbps"`
	Speedup  *float64 `json:"speedup_vs_t1,omitempty"`
}

// FormatSweepJSON writes rows as an indented JSON array.
func FormatSweepJSON(rows []SweepRow, w io.Writer) error {
	out := make([]jsonSweepRow, len(rows))
	for i, r := range rows {
		out[i] = jsonSweepRow{
			Threads:  r.Report.Threads,
			Elements: r.Report.Elements,
			Seconds:  r.Report.Stats.Min.Seconds(),
			Checksum: r.Report.Checksum,
			GBps:     GBps(r.Report.Bytes, r.Report.Stats.Min),
		}
		if r.HasSpeedup {
			s := r.Speedup
			out[i].Speedup = &s
		}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
