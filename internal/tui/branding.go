package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/pders01/dex/internal/config"
)

const AppName = "dex"

// LogoLines is the ASCII logo shown on the splash and in the banner.
var LogoLines = []string{
	"██████▄  ▄██████ ██    ██",
	"██   ▀██ ██       ██  ██ ",
	"██    ██ ██████    ████  ",
	"██   ▄██ ██       ██  ██ ",
	"██████▀  ▀██████ ██    ██",
}

const CompactLogo = `dex ›`

// Banner gradient colors
var BannerColors = []lipgloss.Color{
	lipgloss.Color("#EF5350"),
	lipgloss.Color("#FFEB3B"),
	lipgloss.Color("#4ECDC4"),
	lipgloss.Color("#EAEAEA"),
	lipgloss.Color("#EF5350"),
}

var (
	PrimaryColor   = lipgloss.Color("#EF5350")
	SecondaryColor = lipgloss.Color("#4ECDC4")
	AccentColor    = lipgloss.Color("#FFEB3B")

	BackgroundColor = lipgloss.Color("#1A1A2E")
	SurfaceColor    = lipgloss.Color("#16213E")
	TextColor       = lipgloss.Color("#EAEAEA")
	MutedColor      = lipgloss.Color("#94A3B8")

	ErrorColor   = lipgloss.Color("#F87171")
	SuccessColor = lipgloss.Color("#4ADE80")
)

// Stat bar colors by tier, lowest first.
var StatTierColors = []lipgloss.Color{
	lipgloss.Color("#F87171"), // < 60
	lipgloss.Color("#FB923C"), // < 90
	lipgloss.Color("#FACC15"), // < 110
	lipgloss.Color("#4ADE80"), // < 140
	lipgloss.Color("#60A5FA"),
}

var (
	LogoStyle          lipgloss.Style
	TitleStyle         lipgloss.Style
	HeaderStyle        lipgloss.Style
	StatusBarStyle     lipgloss.Style
	HelpStyle          lipgloss.Style
	IDStyle            lipgloss.Style
	TypeStyle          lipgloss.Style
	SeparatorStyle     lipgloss.Style
	StatusInfoStyle    lipgloss.Style
	StatusSuccessStyle lipgloss.Style
	StatusWarnStyle    lipgloss.Style
	StatusErrorStyle   lipgloss.Style
	EmptyStyle         = lipgloss.NewStyle()
)

func init() {
	rebuildStyles()
}

func rebuildStyles() {
	LogoStyle = lipgloss.NewStyle().Foreground(PrimaryColor).Bold(true)
	TitleStyle = lipgloss.NewStyle().
		Foreground(TextColor).
		Background(PrimaryColor).
		Bold(true).
		Padding(0, 2)
	HeaderStyle = lipgloss.NewStyle().Foreground(SecondaryColor).Bold(true)
	StatusBarStyle = lipgloss.NewStyle().Foreground(MutedColor).Padding(0, 1)
	HelpStyle = lipgloss.NewStyle().Foreground(MutedColor).Italic(true)
	IDStyle = lipgloss.NewStyle().Foreground(MutedColor)
	TypeStyle = lipgloss.NewStyle().Foreground(AccentColor)
	SeparatorStyle = lipgloss.NewStyle().Foreground(MutedColor)
	StatusInfoStyle = lipgloss.NewStyle().Foreground(MutedColor)
	StatusSuccessStyle = lipgloss.NewStyle().Foreground(SuccessColor)
	StatusWarnStyle = lipgloss.NewStyle().Foreground(AccentColor)
	StatusErrorStyle = lipgloss.NewStyle().Foreground(ErrorColor).Bold(true)
}

// ApplyTheme overrides the palette with any colors set in the config.
func ApplyTheme(c config.UIColors) {
	set := func(dst *lipgloss.Color, v string) {
		if v != "" {
			*dst = lipgloss.Color(v)
		}
	}
	set(&PrimaryColor, c.Primary)
	set(&SecondaryColor, c.Secondary)
	set(&AccentColor, c.Accent)
	set(&BackgroundColor, c.Background)
	set(&SurfaceColor, c.Surface)
	set(&TextColor, c.Text)
	set(&MutedColor, c.Muted)
	set(&ErrorColor, c.Error)
	set(&SuccessColor, c.Success)
	rebuildStyles()
}

// ContentWrapper returns a style for wrapping content with width and height constraints
func ContentWrapper(width, height int) lipgloss.Style {
	return EmptyStyle.Width(width).Height(height).MaxHeight(height)
}

func GetCompactBanner(message string) string {
	var coloredLines []string
	for _, line := range LogoLines {
		coloredLines = append(coloredLines, LogoStyle.Render(line))
	}

	logo := lipgloss.JoinVertical(lipgloss.Center, coloredLines...)

	return lipgloss.JoinVertical(
		lipgloss.Center,
		logo,
		"",
		HelpStyle.Render(message),
	)
}

// RenderBanner builds the boxed, gradient banner printed by the CLI.
func RenderBanner(version string) string {
	lines := make([]string, len(LogoLines)+1)
	copy(lines, LogoLines)

	tagline := "  Terminal Pokédex"
	if version != "" && version != "dev" {
		if version[0] != 'v' && version[0] != 'V' {
			version = "v" + version
		}
		tagline += " " + version
	}
	lines = append(lines, tagline)

	var coloredLines []string
	for i, line := range lines {
		if line == "" {
			coloredLines = append(coloredLines, line)
			continue
		}
		style := lipgloss.NewStyle().
			Foreground(BannerColors[i%len(BannerColors)]).
			Bold(i < len(LogoLines))
		coloredLines = append(coloredLines, style.Render(line))
	}

	borderStyle := lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(SecondaryColor).
		Padding(1, 3).
		MarginTop(1)

	banner := borderStyle.Render(lipgloss.JoinVertical(lipgloss.Center, coloredLines...))
	separator := lipgloss.NewStyle().Foreground(PrimaryColor).Render("◓ ◒ ◓ ◒ ◓")

	center := lipgloss.NewStyle().Width(60).Align(lipgloss.Center)
	return lipgloss.JoinVertical(lipgloss.Left, center.Render(banner), center.MarginBottom(1).Render(separator))
}

func ShowBanner(version string) {
	fmt.Println(RenderBanner(version))
}
