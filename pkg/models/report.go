package models

// FileEntry is one keyed file record of a report.
type FileEntry struct {
	Key     string
	Metrics Metrics
}

// Report is the read-only projection of a file or package analysis.
//
// A single file report holds one entry keyed by the file name. An ungrouped
// package report holds one entry per file keyed by "<package>/<relative path>"
// and nests them under the package name. A grouped report holds only Summary.
type Report struct {
	Name       string
	Package    bool
	Grouped    bool
	Percentage bool
	Files      []FileEntry
	Summary    Metrics
}

// Data returns the nested mapping form of the report used by serializers.
func (r *Report) Data() map[string]any {
	if r.Grouped {
		return map[string]any{r.Name: r.Summary.Map(r.Percentage, true)}
	}

	files := make(map[string]any, len(r.Files))
	for _, f := range r.Files {
		files[f.Key] = f.Metrics.Map(r.Percentage, false)
	}
	if !r.Package {
		return files
	}
	return map[string]any{r.Name: files}
}

// Rows returns the records of the report in display order, each with its key.
func (r *Report) Rows() []FileEntry {
	if r.Grouped {
		return []FileEntry{{Key: r.Name, Metrics: r.Summary}}
	}
	return r.Files
}
