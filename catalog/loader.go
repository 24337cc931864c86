package catalog

import (
	"os"

	"gopkg.in/yaml.v3"
)

// LoadFile reads a rule catalog from a YAML file. The file holds an
// ordered list of rules; file order becomes catalog order.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path is intentional user input
	if err != nil {
		return nil, &CatalogError{Path: path, Reason: err.Error()}
	}

	var rules []Rule
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return nil, &CatalogError{Path: path, Reason: "parse: " + err.Error()}
	}
	if len(rules) == 0 {
		return nil, &CatalogError{Path: path, Reason: "no rules defined"}
	}

	cat, err := New(rules...)
	if err != nil {
		if cerr, ok := err.(*CatalogError); ok {
			cerr.Path = path
		}
		return nil, err
	}

	return cat, nil
}
