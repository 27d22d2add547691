package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/pders01/dex/internal/catalog"
	"github.com/pders01/dex/internal/pokeapi"
)

// maxStatValue is the ceiling base stats are drawn against.
const maxStatValue = 255

// detailMarkdown lays out everything but the stat bars, which glamour
// cannot color.
func detailMarkdown(p *pokeapi.Pokemon, spriteBase string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s %s\n\n", catalog.FormatID(strconv.Itoa(p.ID)), displayName(p.Name))

	if types := p.TypeNames(); len(types) > 0 {
		fmt.Fprintf(&b, "**Type:** %s\n\n", strings.Join(types, " · "))
	}

	b.WriteString("| Height | Weight | Base experience |\n")
	b.WriteString("|---|---|---|\n")
	fmt.Fprintf(&b, "| %.1f m | %.1f kg | %d |\n\n", p.HeightMeters(), p.WeightKilograms(), p.BaseExperience)

	if abilities := p.AbilityNames(); len(abilities) > 0 {
		b.WriteString("## Abilities\n\n")
		for _, name := range abilities {
			fmt.Fprintf(&b, "- %s\n", name)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "**Artwork:** %s\n", p.ArtworkURL(spriteBase))
	return b.String()
}

// statTier buckets a base stat into one of StatTierColors.
func statTier(v int) int {
	switch {
	case v < 60:
		return 0
	case v < 90:
		return 1
	case v < 110:
		return 2
	case v < 140:
		return 3
	default:
		return 4
	}
}

func statBar(v, width int) string {
	if width <= 0 {
		return ""
	}
	filled := v * width / maxStatValue
	if v > 0 && filled == 0 {
		filled = 1
	}
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

func renderStats(stats []pokeapi.StatValue, barWidth int) string {
	if len(stats) == 0 {
		return ""
	}

	rows := []string{HeaderStyle.Render("Base stats"), ""}
	total := 0
	for _, s := range stats {
		total += s.BaseStat
		bar := lipgloss.NewStyle().
			Foreground(StatTierColors[statTier(s.BaseStat)]).
			Render(statBar(s.BaseStat, barWidth))
		rows = append(rows, fmt.Sprintf("%s %3d %s", renderMuted(fmt.Sprintf("%-11s", pokeapi.StatLabel(s.Stat.Name))), s.BaseStat, bar))
	}
	rows = append(rows, "", fmt.Sprintf("%s %3d", renderMuted(fmt.Sprintf("%-11s", "total")), total))

	return lipgloss.NewStyle().Padding(0, 2, 1).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (a *App) statBarWidth() int {
	w := a.width - 24
	if w > 40 {
		w = 40
	}
	if w < 10 {
		w = 10
	}
	return w
}

// RenderPokemon renders a full record: the markdown body through r (plain
// markdown when r is nil) followed by colored stat bars.
func RenderPokemon(p *pokeapi.Pokemon, spriteBase string, r *glamour.TermRenderer, barWidth int) string {
	md := detailMarkdown(p, spriteBase)

	body := md
	if r != nil {
		if rendered, err := r.Render(md); err == nil {
			body = rendered
		}
	}

	return lipgloss.JoinVertical(lipgloss.Left, body, renderStats(p.Stats, barWidth))
}

func (a *App) renderDetail(p *pokeapi.Pokemon) string {
	r, _ := a.getRenderer()
	return RenderPokemon(p, a.config.API.SpriteBaseURL, r, a.statBarWidth())
}
