package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	bk "github.com/hanksha/garage-booking-backend/booking"
	"gopkg.in/yaml.v3"
)

// Theme holds the site colors used for bookings that carry none of their own.
type Theme struct {
	Primary       string `yaml:"primary"`
	PrimaryDark   string `yaml:"primary_dark"`
	TextOnPrimary string `yaml:"text_on_primary"`
}

func DefaultTheme() Theme {
	return Theme{
		Primary:       bk.DefaultColors.Background,
		PrimaryDark:   bk.DefaultColors.Border,
		TextOnPrimary: bk.DefaultColors.Text,
	}
}

// Normalize fills in missing colors so partial theme files still work.
func (t *Theme) Normalize() {
	def := DefaultTheme()
	if t.Primary == "" {
		t.Primary = def.Primary
	}
	if t.PrimaryDark == "" {
		t.PrimaryDark = def.PrimaryDark
	}
	if t.TextOnPrimary == "" {
		t.TextOnPrimary = def.TextOnPrimary
	}
}

func (t Theme) Colors() bk.Colors {
	return bk.Colors{
		Background: t.Primary,
		Border:     t.PrimaryDark,
		Text:       t.TextOnPrimary,
	}
}

// LoadTheme reads a YAML theme file. An empty path or a missing file yields the default theme.
func LoadTheme(path string) (Theme, error) {
	theme := DefaultTheme()

	if path == "" {
		return theme, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return theme, nil
	}
	if err != nil {
		return Theme{}, fmt.Errorf("failed to read theme file: %w", err)
	}

	theme = Theme{}
	if err := yaml.Unmarshal(data, &theme); err != nil {
		return Theme{}, fmt.Errorf("failed to parse theme file: %w", err)
	}

	theme.Normalize()

	return theme, nil
}
