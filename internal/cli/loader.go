package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/sievekit/sieve/query"
)

// LoadCriteria reads a criteria file (canonical snapshot shape) in JSON
// or YAML and reconstructs the criteria. YAML is detected by file
// extension; a YAML sort mapping keeps its document order as the
// tie-break chain, same as JSON.
func LoadCriteria(path string) (*query.Criteria, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "reading criteria file", err)
	}

	var snap query.Snapshot
	if isYAML(path) {
		err = yaml.Unmarshal(data, &snap)
	} else {
		err = json.Unmarshal(data, &snap)
	}
	if err != nil {
		return nil, WrapExitError(ExitCommandError, fmt.Sprintf("parsing criteria file %s", path), err)
	}

	q, err := query.FromPlain(snap)
	if err != nil {
		return nil, WrapExitError(ExitFailure, "invalid criteria snapshot", err)
	}
	return q, nil
}

// LoadRecords reads a record sequence (a JSON array or YAML list of
// objects) from path.
func LoadRecords(path string) ([]map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "reading records file", err)
	}

	var records []map[string]any
	if isYAML(path) {
		err = yaml.Unmarshal(data, &records)
	} else {
		err = json.Unmarshal(data, &records)
	}
	if err != nil {
		return nil, WrapExitError(ExitCommandError, fmt.Sprintf("parsing records file %s", path), err)
	}
	return records, nil
}

func isYAML(path string) bool {
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		return true
	}
	return false
}
