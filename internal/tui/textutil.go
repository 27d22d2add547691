package tui

// truncateEnd shortens s to at most limit runes, ending in an ellipsis when
// anything was cut.
func truncateEnd(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	if limit <= 1 {
		return "…"
	}
	return string(r[:limit-1]) + "…"
}

// truncateMiddle keeps both ends of s around a single ellipsis. Artwork
// locations are shown this way so the file name stays visible.
func truncateMiddle(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	r := []rune(s)
	n := len(r)
	if n <= limit {
		return s
	}
	if limit <= 1 {
		return "…"
	}
	keep := limit - 1
	left := keep / 2
	right := keep - left
	if left <= 0 {
		return "…" + string(r[n-right:])
	}
	if right <= 0 {
		return string(r[:left]) + "…"
	}
	return string(r[:left]) + "…" + string(r[n-right:])
}
