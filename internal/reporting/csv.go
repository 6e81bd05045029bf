package reporting

import (
	"fmt"
	"strings"
	"time"
)

// RenderCSV renders forecast rows as CSV string.
func RenderCSV(rows []ForecastRow) string {
	var sb strings.Builder

	// Header
	sb.WriteString("timestamp,predicted_demand_mw,lower_bound,upper_bound\n")

	// Rows
	for _, r := range rows {
		sb.WriteString(fmt.Sprintf("%s,%.2f,%.2f,%.2f\n",
			r.Timestamp.Format(time.RFC3339),
			r.Demand,
			r.Lower,
			r.Upper,
		))
	}

	return sb.String()
}
