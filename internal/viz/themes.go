package viz

import "github.com/charmbracelet/lipgloss"

// Theme colours the entity kinds and the panel text.
type Theme struct {
	Name   string
	Wolf   lipgloss.Color
	Sheep  lipgloss.Color
	Block  lipgloss.Color
	Wall   lipgloss.Color
	Accent lipgloss.Color
	Muted  lipgloss.Color
}

var (
	ThemeMeadow = Theme{
		Name:   "meadow",
		Wolf:   lipgloss.Color("#ff5f5f"),
		Sheep:  lipgloss.Color("#f5f5f5"),
		Block:  lipgloss.Color("#8a8a8a"),
		Wall:   lipgloss.Color("#5f875f"),
		Accent: lipgloss.Color("#87d787"),
		Muted:  lipgloss.Color("#666688"),
	}

	ThemeNight = Theme{
		Name:   "night",
		Wolf:   lipgloss.Color("#ff00ff"),
		Sheep:  lipgloss.Color("#00ffff"),
		Block:  lipgloss.Color("#444466"),
		Wall:   lipgloss.Color("#444466"),
		Accent: lipgloss.Color("#ffff00"),
		Muted:  lipgloss.Color("#666666"),
	}

	ThemeMono = Theme{
		Name:   "mono",
		Wolf:   lipgloss.Color("#ffffff"),
		Sheep:  lipgloss.Color("#cccccc"),
		Block:  lipgloss.Color("#888888"),
		Wall:   lipgloss.Color("#888888"),
		Accent: lipgloss.Color("#0088ff"),
		Muted:  lipgloss.Color("#888888"),
	}
)

var themes = []Theme{ThemeMeadow, ThemeNight, ThemeMono}

func GetTheme(name string) Theme {
	for _, t := range themes {
		if t.Name == name {
			return t
		}
	}
	return ThemeMeadow
}

// NextTheme cycles through the built-in themes.
func NextTheme(current Theme) Theme {
	for i, t := range themes {
		if t.Name == current.Name {
			return themes[(i+1)%len(themes)]
		}
	}
	return themes[0]
}

func ThemeNames() []string {
	names := make([]string, len(themes))
	for i, t := range themes {
		names[i] = t.Name
	}
	return names
}
