package output

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"
	"gopkg.in/yaml.v3"

	"github.com/wesleyorama2/phobia/internal/timeline"
)

// OutputFormat represents the available output formats
type OutputFormat string

const (
	// FormatText is the default human-readable text format
	FormatText OutputFormat = "text"
	// FormatJSON outputs in JSON format
	FormatJSON OutputFormat = "json"
	// FormatYAML outputs in YAML format
	FormatYAML OutputFormat = "yaml"
)

// ParseFormat converts a flag value into an OutputFormat.
func ParseFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(s)); f {
	case "", FormatText:
		return FormatText, nil
	case FormatJSON, FormatYAML:
		return f, nil
	default:
		return "", fmt.Errorf("unknown output format %q (expected text, json or yaml)", s)
	}
}

// PlanDocument is the rendered form of a timeline plan.
type PlanDocument struct {
	Unit     string              `json:"unit" yaml:"unit"`
	Duration string              `json:"duration" yaml:"duration"`
	Total    int                 `json:"totalDispatches" yaml:"totalDispatches"`
	Entries  []timeline.PlanItem `json:"entries" yaml:"entries"`
}

// NewPlanDocument describes entries whose scaled units each last unit.
// Duration is the real time until the last window closes.
func NewPlanDocument(entries []timeline.PlanItem, unit time.Duration) PlanDocument {
	last := lo.MaxBy(entries, func(a, b timeline.PlanItem) bool {
		return a.End > b.End
	})

	if entries == nil {
		entries = []timeline.PlanItem{}
	}

	return PlanDocument{
		Unit:     unit.String(),
		Duration: (time.Duration(last.End) * unit).String(),
		Total:    lo.SumBy(entries, func(p timeline.PlanItem) int { return p.Dispatches }),
		Entries:  entries,
	}
}

// PlanFormatter renders a plan document.
type PlanFormatter interface {
	FormatPlan(doc PlanDocument) (string, error)
}

// JSONFormatter formats output as JSON
type JSONFormatter struct {
	Pretty bool
}

// FormatPlan formats a plan as JSON
func (f *JSONFormatter) FormatPlan(doc PlanDocument) (string, error) {
	var out []byte
	var err error
	if f.Pretty {
		out, err = json.MarshalIndent(doc, "", "  ")
	} else {
		out, err = json.Marshal(doc)
	}
	if err != nil {
		return "", fmt.Errorf("failed to marshal plan: %w", err)
	}
	return string(out) + "\n", nil
}

// YAMLFormatter formats output as YAML
type YAMLFormatter struct{}

// FormatPlan formats a plan as YAML
func (f *YAMLFormatter) FormatPlan(doc PlanDocument) (string, error) {
	out, err := yaml.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("failed to marshal plan: %w", err)
	}
	return string(out), nil
}

// GetFormatter returns the appropriate formatter for the given format
func GetFormatter(format OutputFormat, noColor bool) PlanFormatter {
	switch format {
	case FormatJSON:
		return &JSONFormatter{Pretty: true}
	case FormatYAML:
		return &YAMLFormatter{}
	default:
		return NewFormatter(noColor)
	}
}
