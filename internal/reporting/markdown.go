package reporting

import (
	"fmt"
	"strings"
	"time"
)

// RenderMarkdown renders report as Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	// Header
	sb.WriteString("# Demand Forecast\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Model: %s (version %s)\n\n", r.Model, r.Version))

	// Summary
	s := r.Summary
	sb.WriteString("## Summary\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Start | %s |\n", r.Start.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("| Step | %s |\n", r.Step))
	sb.WriteString(fmt.Sprintf("| Steps | %d |\n", s.Steps))
	sb.WriteString(fmt.Sprintf("| Min (MW) | %.2f at %s |\n", s.Min, s.MinAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("| Max (MW) | %.2f at %s |\n", s.Max, s.MaxAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("| Mean (MW) | %.2f |\n", s.Mean))
	sb.WriteString(fmt.Sprintf("| Std dev (MW) | %.2f |\n", s.StdDev))
	sb.WriteString(fmt.Sprintf("| Peak hour (%s) | %02d:00 |\n", r.Start.Location(), s.PeakHour))
	sb.WriteString("\n")

	// Forecast table
	sb.WriteString("## Forecast\n\n")
	sb.WriteString("| Timestamp | Demand (MW) | Lower | Upper |\n")
	sb.WriteString("|-----------|-------------|-------|-------|\n")
	for _, row := range r.Rows {
		sb.WriteString(fmt.Sprintf("| %s | %.2f | %.2f | %.2f |\n",
			row.Timestamp.Format(time.RFC3339), row.Demand, row.Lower, row.Upper))
	}
	sb.WriteString("\n")

	if len(r.RecentPredictions) > 0 {
		sb.WriteString("## Recent Predictions\n\n")
		sb.WriteString("| ID | Kind | Model | Value | Created |\n")
		sb.WriteString("|----|------|-------|-------|---------|\n")
		for _, p := range r.RecentPredictions {
			sb.WriteString(fmt.Sprintf("| %s | %s | %s | %.2f | %s |\n",
				p.ID, p.Kind, p.Model, p.Value, p.CreatedAt.Format(time.RFC3339)))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}
