package catalog

import "fmt"

// Rule is a single declarative policy: a stable identifier, a human
// description, and a Rego module that computes `result`. The runner
// never interprets the expression itself; the expression signals a
// breach through the shape of its own output.
type Rule struct {
	ID          string `yaml:"id" json:"id"`
	Description string `yaml:"description" json:"description"`
	Expr        string `yaml:"expr" json:"expr"`
}

// CatalogError reports a malformed rule catalog. Fatal: nothing gets
// evaluated when the catalog itself cannot be trusted.
type CatalogError struct {
	Path   string
	Reason string
}

func (e *CatalogError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("invalid catalog: %s", e.Reason)
	}
	return fmt.Sprintf("invalid catalog %s: %s", e.Path, e.Reason)
}

// Catalog is an ordered, immutable set of rules. Order is significant:
// it becomes report order, so report diffs stay stable across runs.
type Catalog struct {
	rules []Rule
}

// New builds a catalog from rules, rejecting empty and duplicate
// identifiers.
func New(rules ...Rule) (*Catalog, error) {
	seen := make(map[string]bool, len(rules))
	for _, r := range rules {
		if r.ID == "" {
			return nil, &CatalogError{Reason: "rule with empty id"}
		}
		if seen[r.ID] {
			return nil, &CatalogError{Reason: fmt.Sprintf("duplicate rule id %q", r.ID)}
		}
		if r.Expr == "" {
			return nil, &CatalogError{Reason: fmt.Sprintf("rule %q has no expression", r.ID)}
		}
		seen[r.ID] = true
	}

	return &Catalog{rules: append([]Rule(nil), rules...)}, nil
}

// Rules returns the rules in catalog order.
func (c *Catalog) Rules() []Rule {
	return append([]Rule(nil), c.rules...)
}

// Len returns the number of rules.
func (c *Catalog) Len() int {
	return len(c.rules)
}

// Get looks up a rule by id.
func (c *Catalog) Get(id string) (Rule, bool) {
	for _, r := range c.rules {
		if r.ID == id {
			return r, true
		}
	}
	return Rule{}, false
}
