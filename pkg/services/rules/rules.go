// Package rules loads declared reconciliation relationships from rule files.
// Relationships are always caller-declared, never inferred from the data.
package rules

import (
	"fmt"

	"github.com/de-tools/tally/pkg/models/domain"
	"github.com/spf13/viper"
)

// Rule is the declaration form of a relationship, shared by YAML rule files
// and the HTTP check request body.
type Rule struct {
	ID         string   `mapstructure:"id" json:"id"`
	Kind       string   `mapstructure:"kind" json:"kind"`
	Target     string   `mapstructure:"target" json:"target"`
	Sources    []string `mapstructure:"sources" json:"sources,omitempty"`
	Left       string   `mapstructure:"left" json:"left,omitempty"`
	Right      string   `mapstructure:"right" json:"right,omitempty"`
	Op         string   `mapstructure:"op" json:"op,omitempty"`
	Scale      float64  `mapstructure:"scale" json:"scale,omitempty"`
	SummaryRow *int     `mapstructure:"summary_row" json:"summary_row,omitempty"`
}

type ruleFile struct {
	Rules []Rule `mapstructure:"rules"`
}

// Load reads a YAML rule file and converts it into relationships.
func Load(path string) ([]domain.Relationship, error) {
	v := viper.New()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read rule file: %w", err)
	}

	var file ruleFile
	if err := v.Unmarshal(&file); err != nil {
		return nil, fmt.Errorf("failed to parse rule file: %w", err)
	}
	if len(file.Rules) == 0 {
		return nil, fmt.Errorf("rule file %q declares no rules", path)
	}

	return Convert(file.Rules)
}

// Convert validates declarations and maps them onto domain relationships.
func Convert(rules []Rule) ([]domain.Relationship, error) {
	relationships := make([]domain.Relationship, 0, len(rules))
	seen := make(map[string]struct{}, len(rules))

	for i, rule := range rules {
		if rule.ID == "" {
			return nil, fmt.Errorf("rule %d: id is required", i)
		}
		if _, dup := seen[rule.ID]; dup {
			return nil, fmt.Errorf("duplicate rule id %q", rule.ID)
		}
		seen[rule.ID] = struct{}{}

		rel, err := convertRule(rule)
		if err != nil {
			return nil, fmt.Errorf("rule %q: %w", rule.ID, err)
		}
		relationships = append(relationships, rel)
	}
	return relationships, nil
}

func convertRule(rule Rule) (domain.Relationship, error) {
	rel := domain.Relationship{
		ID:         rule.ID,
		Target:     rule.Target,
		SummaryRow: rule.SummaryRow,
	}
	if rule.Target == "" {
		return domain.Relationship{}, fmt.Errorf("target is required")
	}

	switch domain.RelationshipKind(rule.Kind) {
	case domain.Additive:
		if len(rule.Sources) == 0 {
			return domain.Relationship{}, fmt.Errorf("additive rule needs at least one source column")
		}
		rel.Kind = domain.Additive
		rel.Sources = rule.Sources
	case domain.Derived:
		if rule.Left == "" || rule.Right == "" {
			return domain.Relationship{}, fmt.Errorf("derived rule needs left and right columns")
		}
		op := domain.Operator(rule.Op)
		if op != domain.OpSubtract && op != domain.OpDivide {
			return domain.Relationship{}, fmt.Errorf("unknown operator %q", rule.Op)
		}
		if rule.Scale < 0 {
			return domain.Relationship{}, fmt.Errorf("scale must be non-negative")
		}
		rel.Kind = domain.Derived
		rel.Left = rule.Left
		rel.Right = rule.Right
		rel.Op = op
		rel.Scale = rule.Scale
	case domain.RowTotal:
		rel.Kind = domain.RowTotal
	default:
		return domain.Relationship{}, fmt.Errorf("unknown rule kind %q", rule.Kind)
	}
	return rel, nil
}
