package output

import (
	"io"

	"github.com/thozza/reportist/internal/report"
)

// WriteReport renders res in the given format. Density only applies to
// structured formats.
func WriteReport(w io.Writer, res *report.Result, format Format, density Density) error {
	if !format.IsStructured() {
		return report.WriteText(w, res)
	}

	formatter, err := GetFormatter(format)
	if err != nil {
		return err
	}
	return formatter.FormatToWriter(w, NewReportOutput(res, density))
}
