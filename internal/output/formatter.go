package output

import (
	"fmt"
	"strings"
	"time"
)

// Formatter renders plans and run results as human-readable text
type Formatter struct {
	NoColor bool
	colors  *ColorScheme
}

// NewFormatter creates a new text formatter
func NewFormatter(noColor bool) *Formatter {
	colors := DefaultColorScheme()
	if noColor {
		colors = NoColorScheme()
	}
	return &Formatter{NoColor: noColor, colors: colors}
}

// FormatPlan renders one line per entry in release order followed by totals.
func (f *Formatter) FormatPlan(doc PlanDocument) (string, error) {
	var buf strings.Builder

	buf.WriteString(fmt.Sprintf("Timeline: %d entries, 1 unit = %s\n", len(doc.Entries), doc.Unit))

	for _, item := range doc.Entries {
		buf.WriteString(fmt.Sprintf("▶ %s %s %s every %d → %s\n",
			f.colors.Method.Sprintf("%-6s", item.Method),
			f.colors.URL.Sprint(item.URL),
			f.colors.Window.Sprintf("[%d, %d)", item.Start, item.End),
			item.Step,
			f.colors.Count.Sprintf("%d requests", item.Dispatches)))
	}

	buf.WriteString(fmt.Sprintf("Total: %s over %s\n",
		f.colors.Highlight.Sprintf("%d requests", doc.Total),
		doc.Duration))

	return buf.String(), nil
}

// FormatSummary reports a finished run.
func (f *Formatter) FormatSummary(dispatches int, elapsed time.Duration) string {
	return fmt.Sprintf("%s %s\n",
		SuccessIcon(f.NoColor),
		f.colors.Success.Sprintf("Timeline completed: %d requests in %s", dispatches, elapsed.Round(time.Millisecond)))
}

// FormatError reports a failed run.
func (f *Formatter) FormatError(err error) string {
	return fmt.Sprintf("%s %s\n", ErrorIcon(f.NoColor), f.colors.Error.Sprintf("Error: %v", err))
}
