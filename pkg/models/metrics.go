package models

import "fmt"

// Metrics is the report record for a file or, with SourceFiles set, a package.
type Metrics struct {
	Lines                 int `json:"lines" yaml:"lines"`
	NumberOfFunctions     int `json:"number_of_functions" yaml:"number_of_functions"`
	AverageFunctionLength int `json:"average_function_length" yaml:"average_function_length"`
	DocstringLines        int `json:"docstring_lines" yaml:"docstring_lines"`
	CommentLines          int `json:"comment_lines" yaml:"comment_lines"`
	BlankLines            int `json:"blank_lines" yaml:"blank_lines"`
	SourceLines           int `json:"source_lines" yaml:"source_lines"`
	SourceFiles           int `json:"source_files,omitempty" yaml:"source_files,omitempty"`
}

// Field is one key of a report record.
type Field struct {
	Key   string
	Value any
}

// Fields returns the record as ordered key/value pairs. With percentage set,
// the docstring, comment, blank and source counts become shares of Lines.
// The source_files key is emitted only for package rollups.
func (m Metrics) Fields(percentage, grouped bool) []Field {
	share := func(n int) any {
		if !percentage {
			return n
		}
		return Percent(n, m.Lines)
	}

	fields := []Field{
		{Key: "lines", Value: m.Lines},
		{Key: "number_of_functions", Value: m.NumberOfFunctions},
		{Key: "average_function_length", Value: m.AverageFunctionLength},
		{Key: "docstring_lines", Value: share(m.DocstringLines)},
		{Key: "comment_lines", Value: share(m.CommentLines)},
		{Key: "blank_lines", Value: share(m.BlankLines)},
		{Key: "source_lines", Value: share(m.SourceLines)},
	}
	if grouped {
		fields = append(fields, Field{Key: "source_files", Value: m.SourceFiles})
	}
	return fields
}

// Map returns the record as a mapping from key to value.
func (m Metrics) Map(percentage, grouped bool) map[string]any {
	fields := m.Fields(percentage, grouped)
	out := make(map[string]any, len(fields))
	for _, f := range fields {
		out[f.Key] = f.Value
	}
	return out
}

// Add returns the field-wise sum of m and o, ignoring AverageFunctionLength.
func (m Metrics) Add(o Metrics) Metrics {
	m.Lines += o.Lines
	m.NumberOfFunctions += o.NumberOfFunctions
	m.DocstringLines += o.DocstringLines
	m.CommentLines += o.CommentLines
	m.BlankLines += o.BlankLines
	m.SourceLines += o.SourceLines
	m.SourceFiles += o.SourceFiles
	return m
}

// Percent formats part as a percentage of total with two decimals.
func Percent(part, total int) string {
	if total == 0 {
		return "0.00%"
	}
	return fmt.Sprintf("%.2f%%", 100*float64(part)/float64(total))
}
