package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// PolicyTable lists the policy labels the extractor recognizes and the
// subset of them that means a code may be imported.
type PolicyTable struct {
	Keywords  []string `yaml:"keywords"`
	Permitted []string `yaml:"permitted"`
}

func DefaultPolicyTable() PolicyTable {
	return PolicyTable{
		Keywords: []string{
			"Allowed",
			"Free",
			"Restricted",
			"Prohibited",
			"Special License Required",
			"Not Permitted",
		},
		Permitted: []string{"Allowed", "Free"},
	}
}

// LoadPolicyTable reads a YAML policy table. Missing sections fall back to
// the defaults.
func LoadPolicyTable(path string) (PolicyTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return PolicyTable{}, fmt.Errorf("failed to read policy table: %w", err)
	}

	var table PolicyTable
	if err := yaml.Unmarshal(data, &table); err != nil {
		return PolicyTable{}, fmt.Errorf("failed to parse policy table: %w", err)
	}

	defaults := DefaultPolicyTable()
	table.Keywords = compact(table.Keywords)
	table.Permitted = compact(table.Permitted)
	if len(table.Keywords) == 0 {
		table.Keywords = defaults.Keywords
	}
	if len(table.Permitted) == 0 {
		table.Permitted = defaults.Permitted
	}

	return table, nil
}

func compact(values []string) []string {
	out := values[:0]
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
