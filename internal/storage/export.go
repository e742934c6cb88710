package storage

import (
	"encoding/json"
	"io"
	"os"
)

type ExportData struct {
	Meta        RunMetadata `json:"meta"`
	Steps       int         `json:"steps"`
	Diagnostics Diagnostics `json:"diagnostics"`
}

// ExportJSON writes a run and its diagnostics as indented JSON.
func ExportJSON(w io.Writer, meta RunMetadata, diag *Diagnostics) error {
	data := ExportData{Meta: meta}
	if diag != nil {
		data.Diagnostics = *diag
		data.Steps = len(diag.Times)
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

func ExportJSONFile(path string, meta RunMetadata, diag *Diagnostics) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return ExportJSON(file, meta, diag)
}
