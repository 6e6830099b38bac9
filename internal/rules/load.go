package rules

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadFile reads a rule set from a YAML document: a top-level `rules:` list
// of RawRule entries, each converted via ToRule.
func LoadFile(path string) ([]Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return LoadBytes(data)
}

type ruleFile struct {
	Rules []RawRule `yaml:"rules"`
}

func LoadBytes(data []byte) ([]Rule, error) {
	var doc ruleFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	out := make([]Rule, 0, len(doc.Rules))
	for _, raw := range doc.Rules {
		rule := raw.ToRule()
		if err := rule.Validate(); err != nil {
			return nil, fmt.Errorf("rule %q: %w", rule.Name, err)
		}
		out = append(out, rule)
	}
	return out, nil
}
