// Package file loads the static data tables the engine is configured with:
// orders, classification rules, and action templates. The engine itself never
// touches the filesystem; these are injected at construction time.
package file

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/viridien/triage/pkg/domain"
)

// LoadOrders reads an order table from a YAML file.
func LoadOrders(path string) ([]domain.Order, error) {
	var orders []domain.Order
	if err := loadYAML(path, &orders); err != nil {
		return nil, fmt.Errorf("load orders: %w", err)
	}
	return orders, nil
}

// LoadRules reads classification rules from a YAML file.
func LoadRules(path string) ([]domain.ClassificationRule, error) {
	var rules []domain.ClassificationRule
	if err := loadYAML(path, &rules); err != nil {
		return nil, fmt.Errorf("load classification rules: %w", err)
	}
	return rules, nil
}

// LoadTemplates reads action templates from a YAML file.
func LoadTemplates(path string) ([]domain.ActionTemplate, error) {
	var templates []domain.ActionTemplate
	if err := loadYAML(path, &templates); err != nil {
		return nil, fmt.Errorf("load action templates: %w", err)
	}
	return templates, nil
}

func loadYAML(path string, out any) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}
