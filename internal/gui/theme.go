package gui

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/theme"
)

var (
	colorAccent  = color.NRGBA{R: 0x1F, G: 0x6F, B: 0xB2, A: 0xFF}
	colorSuccess = color.NRGBA{R: 0x2E, G: 0x7D, B: 0x32, A: 0xFF}
	colorDanger  = color.NRGBA{R: 0xC6, G: 0x28, B: 0x28, A: 0xFF}
)

// appTheme keeps the default theme and overrides the accent and status colors
// plus a slightly smaller body text.
type appTheme struct{}

var _ fyne.Theme = (*appTheme)(nil)

func (t *appTheme) Color(name fyne.ThemeColorName, variant fyne.ThemeVariant) color.Color {
	switch name {
	case theme.ColorNamePrimary, theme.ColorNameHyperlink, theme.ColorNameFocus:
		return colorAccent
	case theme.ColorNameSuccess:
		return colorSuccess
	case theme.ColorNameError:
		return colorDanger
	}
	return theme.DefaultTheme().Color(name, variant)
}

func (t *appTheme) Font(style fyne.TextStyle) fyne.Resource {
	return theme.DefaultTheme().Font(style)
}

func (t *appTheme) Icon(name fyne.ThemeIconName) fyne.Resource {
	return theme.DefaultTheme().Icon(name)
}

func (t *appTheme) Size(name fyne.ThemeSizeName) float32 {
	if name == theme.SizeNameText {
		return 13
	}
	return theme.DefaultTheme().Size(name)
}
