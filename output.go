package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// WriteAnalyzedData writes the analyzed.json artifact, creating the output
// directory if needed. The write is atomic via a temp file rename so a
// crashed run never leaves a half-written artifact behind.
func WriteAnalyzedData(path string, data AnalyzedData) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating output dir: %w", err)
	}

	encoded, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling analyzed data: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, encoded, 0644); err != nil {
		return fmt.Errorf("writing analyzed data: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replacing analyzed data: %w", err)
	}
	return nil
}

func LoadAnalyzedData(path string) (AnalyzedData, error) {
	var data AnalyzedData
	raw, err := os.ReadFile(path)
	if err != nil {
		return data, fmt.Errorf("reading analyzed data: %w", err)
	}
	if err := json.Unmarshal(raw, &data); err != nil {
		return data, fmt.Errorf("parsing analyzed data: %w", err)
	}
	return data, nil
}
