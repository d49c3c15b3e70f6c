package output

import (
	"fmt"

	"github.com/panbanda/reducto/pkg/models"
)

var columnTitles = map[string]string{
	"lines":                   "Lines",
	"number_of_functions":     "Functions",
	"average_function_length": "Avg Function",
	"docstring_lines":         "Docstring",
	"comment_lines":           "Comment",
	"blank_lines":             "Blank",
	"source_lines":            "Source",
	"source_files":            "Files",
}

// ReportTable renders a metrics report as a table. Structured formats
// serialize the report's nested mapping instead of the rows.
func ReportTable(r *models.Report) *Table {
	first := "File"
	if r.Grouped {
		first = "Package"
	}

	headers := []string{first}
	for _, f := range (models.Metrics{}).Fields(r.Percentage, r.Grouped) {
		headers = append(headers, columnTitles[f.Key])
	}

	var rows [][]string
	for _, entry := range r.Rows() {
		fields := entry.Metrics.Fields(r.Percentage, r.Grouped)
		row := make([]string, 0, len(fields)+1)
		row = append(row, entry.Key)
		for _, f := range fields {
			row = append(row, fmt.Sprint(f.Value))
		}
		rows = append(rows, row)
	}

	return NewTable(r.Name, headers, rows, r.Data())
}

// WriteReport renders r with f.
func WriteReport(f *Formatter, r *models.Report) error {
	return f.Output(ReportTable(r))
}
