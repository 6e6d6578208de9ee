package metadata

import "fmt"

// formatSize renders a byte count for display, "N/A" when unknown.
func formatSize(b int64) string {
	if b <= 0 {
		return "N/A"
	}
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%dB", b)
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f%ciB",
		float64(b)/float64(div),
		"KMGTPE"[exp],
	)
}

// formatViewCount compacts large view counts (1234567 -> "1.2M").
func formatViewCount(views int64) string {
	switch {
	case views >= 1_000_000_000:
		return fmt.Sprintf("%.1fB", float64(views)/1_000_000_000)
	case views >= 1_000_000:
		return fmt.Sprintf("%.1fM", float64(views)/1_000_000)
	case views >= 1_000:
		return fmt.Sprintf("%.1fK", float64(views)/1_000)
	case views <= 0:
		return "N/A"
	default:
		return fmt.Sprintf("%d", views)
	}
}
