package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/lead-cli/internal/export"
	"github.com/sells-group/lead-cli/internal/model"
)

// loadRunInput reads a run input file. .yaml and .yml files are parsed as
// YAML, everything else as JSON.
func loadRunInput(path string) (model.RunInput, error) {
	var in model.RunInput
	data, err := os.ReadFile(path)
	if err != nil {
		return in, eris.Wrapf(err, "read input %s", path)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &in)
	default:
		err = json.Unmarshal(data, &in)
	}
	if err != nil {
		return in, eris.Wrapf(err, "parse input %s", path)
	}
	return in, nil
}

// loadLeads reads a JSON array of leads, as written by run --leads-out.
func loadLeads(path string) ([]model.Lead, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "read leads %s", path)
	}
	var leads []model.Lead
	if err := json.Unmarshal(data, &leads); err != nil {
		return nil, eris.Wrapf(err, "parse leads %s", path)
	}
	return leads, nil
}

// applyOutputDefaults fills the run's output from config where the input
// leaves it unset.
func applyOutputDefaults(out model.OutputInput) model.OutputInput {
	if out.Format == "" {
		out.Format = cfg.Export.Format
	}
	if out.Format == export.FormatPostgres {
		return out
	}
	if out.Path == "" {
		out.Path = cfg.Export.Path
	}
	if out.Path == "" {
		out.Path = "leads." + out.Format
	}
	return out
}
