// Package theme defines color themes for the kasboard TUI.
package theme

import (
	"github.com/theirongolddev/kasboard/internal/model"

	"github.com/charmbracelet/lipgloss"
)

// Theme maps UI roles to colors.
type Theme struct {
	Name string

	Background    lipgloss.Color
	Surface       lipgloss.Color // cards and panels
	SurfaceHover  lipgloss.Color // active tab, selected row
	SurfaceBright lipgloss.Color
	Border        lipgloss.Color
	BorderAccent  lipgloss.Color // focused card

	TextDim     lipgloss.Color
	TextMuted   lipgloss.Color
	TextPrimary lipgloss.Color

	Accent       lipgloss.Color
	AccentBright lipgloss.Color

	Income lipgloss.Color // positive deltas, saved flash
	Danger lipgloss.Color // errors, delete prompts
	Warn   lipgloss.Color
	Chart  lipgloss.Color // monthly bars
	Key    lipgloss.Color // key hints in the help overlay

	Dues     lipgloss.Color
	Proposal lipgloss.Color
	Sponsor  lipgloss.Color
}

// KasGelap is the default dark theme.
var KasGelap = Theme{
	Name:          "kas-gelap",
	Background:    "#0F1412",
	Surface:       "#18201C",
	SurfaceHover:  "#243029",
	SurfaceBright: "#2F3D35",
	Border:        "#3A4A41",
	BorderAccent:  "#C9A227",
	TextDim:       "#56665D",
	TextMuted:     "#8FA197",
	TextPrimary:   "#EEF4EF",
	Accent:        "#C9A227",
	AccentBright:  "#E6C453",
	Income:        "#5FB97A",
	Danger:        "#E0605A",
	Warn:          "#E08E3C",
	Chart:         "#5AA0D8",
	Key:           "#7CC8C0",
	Dues:          "#5FB97A",
	Proposal:      "#5AA0D8",
	Sponsor:       "#C77DBA",
}

// Nord is a cool blue-grey theme.
var Nord = Theme{
	Name:          "nord",
	Background:    "#2E3440",
	Surface:       "#3B4252",
	SurfaceHover:  "#434C5E",
	SurfaceBright: "#4C566A",
	Border:        "#4C566A",
	BorderAccent:  "#88C0D0",
	TextDim:       "#616E88",
	TextMuted:     "#D8DEE9",
	TextPrimary:   "#ECEFF4",
	Accent:        "#88C0D0",
	AccentBright:  "#8FBCBB",
	Income:        "#A3BE8C",
	Danger:        "#BF616A",
	Warn:          "#D08770",
	Chart:         "#81A1C1",
	Key:           "#8FBCBB",
	Dues:          "#A3BE8C",
	Proposal:      "#81A1C1",
	Sponsor:       "#B48EAD",
}

// Gruvbox is a warm retro theme.
var Gruvbox = Theme{
	Name:          "gruvbox",
	Background:    "#1D2021",
	Surface:       "#282828",
	SurfaceHover:  "#3C3836",
	SurfaceBright: "#504945",
	Border:        "#504945",
	BorderAccent:  "#FABD2F",
	TextDim:       "#665C54",
	TextMuted:     "#A89984",
	TextPrimary:   "#FBF1C7",
	Accent:        "#FABD2F",
	AccentBright:  "#FFD866",
	Income:        "#B8BB26",
	Danger:        "#FB4934",
	Warn:          "#FE8019",
	Chart:         "#83A598",
	Key:           "#8EC07C",
	Dues:          "#B8BB26",
	Proposal:      "#83A598",
	Sponsor:       "#D3869B",
}

// Terminal sticks to the ANSI 16 colors.
var Terminal = Theme{
	Name:          "terminal",
	Background:    "0",
	Surface:       "0",
	SurfaceHover:  "8",
	SurfaceBright: "8",
	Border:        "8",
	BorderAccent:  "3",
	TextDim:       "8",
	TextMuted:     "7",
	TextPrimary:   "15",
	Accent:        "3",
	AccentBright:  "11",
	Income:        "2",
	Danger:        "1",
	Warn:          "3",
	Chart:         "4",
	Key:           "6",
	Dues:          "2",
	Proposal:      "4",
	Sponsor:       "5",
}

// All lists the themes in cycle order. The first is the default.
var All = []Theme{KasGelap, Nord, Gruvbox, Terminal}

// Active is the theme every renderer reads.
var Active = KasGelap

// ByName looks a theme up, falling back to the default.
func ByName(name string) Theme {
	for _, t := range All {
		if t.Name == name {
			return t
		}
	}
	return All[0]
}

func SetActive(name string) {
	Active = ByName(name)
}

func Names() []string {
	names := make([]string, 0, len(All))
	for _, t := range All {
		names = append(names, t.Name)
	}
	return names
}

// Next returns the theme after name, wrapping around.
func Next(name string) string {
	for i, t := range All {
		if t.Name == name {
			return All[(i+1)%len(All)].Name
		}
	}
	return All[0].Name
}

func (t Theme) SourceColor(src model.Source) lipgloss.Color {
	switch src {
	case model.SourceMemberDues:
		return t.Dues
	case model.SourceProposal:
		return t.Proposal
	case model.SourceSponsorship:
		return t.Sponsor
	}
	return t.TextMuted
}

// RoleColor highlights the logged-in role in the status bar.
func (t Theme) RoleColor(canWrite bool) lipgloss.Color {
	if canWrite {
		return t.Warn
	}
	return t.Key
}
