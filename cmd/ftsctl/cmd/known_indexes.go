package cmd

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
)

// The Engine has no catalog of index names independent of a live process,
// so ftsctl keeps its own small sidecar file recording which indices it
// has created, scoped to --data-dir.
func knownIndexesPath() string {
	return filepath.Join(dataDir, "indexes.json")
}

func loadKnownIndexes() ([]string, error) {
	data, err := os.ReadFile(knownIndexesPath())
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return nil, err
	}
	return names, nil
}

func rememberIndex(name string) error {
	names, err := loadKnownIndexes()
	if err != nil {
		return err
	}
	for _, n := range names {
		if n == name {
			return nil
		}
	}
	names = append(names, name)
	sort.Strings(names)

	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(names, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(knownIndexesPath(), data, 0o644)
}
