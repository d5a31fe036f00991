package simulator

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/heliotrack/heliotrack/pkg/types"
)

var csvHeader = []string{
	"index",
	"timestamp",
	"hour",
	"zenith",
	"optimal_tilt",
	"optimal_azimuth",
	"dual_tilt",
	"dual_azimuth",
	"winter_mode",
	"temperature_c",
	"cloud_cover_pct",
	"irradiance",
	"power_dual",
	"power_single",
	"power_fixed",
	"action",
	"move_approved",
	"reason",
}

// WriteCSV writes one row per record to w with a header row.
func WriteCSV(w io.Writer, records []types.SimulationRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}

	for i, r := range records {
		var approved, reason string
		if r.Decision != nil {
			approved = strconv.FormatBool(r.Decision.MoveApproved)
			reason = r.Decision.Reason
		}
		row := []string{
			strconv.Itoa(i),
			r.Timestamp.Format(time.RFC3339),
			fmtFloat(r.HourFraction),
			fmtFloat(r.Zenith),
			fmtFloat(r.OptimalTilt),
			fmtFloat(r.OptimalAzimuth),
			fmtFloat(r.DualTilt),
			fmtFloat(r.DualAzimuth),
			strconv.FormatBool(r.WinterMode),
			fmtFloat(r.TemperatureC),
			fmtFloat(r.CloudCoverPct),
			fmtFloat(r.Irradiance),
			fmtFloat(r.PowerDual),
			fmtFloat(r.PowerSingle),
			fmtFloat(r.PowerFixed),
			string(r.Action),
			approved,
			reason,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write csv row %d: %w", i, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteCSVFile writes the records to path, or to stdout if path is "-".
func WriteCSVFile(path string, records []types.SimulationRecord) error {
	if path == "-" {
		return WriteCSV(os.Stdout, records)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := WriteCSV(f, records); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func fmtFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}
