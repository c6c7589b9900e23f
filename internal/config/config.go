package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	DefaultConfigFileName = "config.yaml"

	// EnvConfigFile overrides the config file path when set.
	EnvConfigFile = "SCHEDULE_CONFIG_FILE"
)

type Keymap struct {
	Up            string `yaml:"up"`
	Down          string `yaml:"down"`
	Select        string `yaml:"select"`
	SelectAlt     string `yaml:"select_alt"`
	SelectAll     string `yaml:"select_all"`
	ClearSelected string `yaml:"clear_selected"`
	Report        string `yaml:"report"`
	Sort          string `yaml:"sort"`
	SortDirection string `yaml:"sort_direction"`
	DateFormat    string `yaml:"date_format"`
	Refresh       string `yaml:"refresh"`
	Quit          string `yaml:"quit"`
}

type Config struct {
	DefaultReport         string            `yaml:"default_report"`
	DefaultDateFields     []string          `yaml:"default_date_fields"`
	ConfirmBeforeSchedule bool              `yaml:"confirm_before_schedule"`
	Hotkeys               map[string]string `yaml:"hotkeys"`
	Keys                  Keymap            `yaml:"keys"`
}

func Default() Config {
	return Config{
		DefaultReport:     "next",
		DefaultDateFields: []string{"scheduled"},
		Hotkeys: map[string]string{
			"1": "tomorrow",
			"2": "+2d",
			"3": "+3d",
			"4": "sow",
			"5": "som",
		},
		Keys: Keymap{
			Up:            "k",
			Down:          "j",
			Select:        "tab",
			SelectAlt:     "m",
			SelectAll:     "A",
			ClearSelected: "x",
			Report:        "r",
			Sort:          "o",
			SortDirection: "O",
			DateFormat:    "t",
			Refresh:       "R",
			Quit:          "q",
		},
	}
}

// ResolvePath returns the config file path. Priority: SCHEDULE_CONFIG_FILE,
// then $XDG_CONFIG_HOME/schedule/config.yaml, then ~/.config/schedule/config.yaml.
func ResolvePath() string {
	if p := os.Getenv(EnvConfigFile); p != "" {
		return p
	}
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "schedule", DefaultConfigFileName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return DefaultConfigFileName
	}
	return filepath.Join(home, ".config", "schedule", DefaultConfigFileName)
}

// fileConfig uses pointers so an absent key can be told apart from a zero
// value; only keys the file names override the defaults.
type fileConfig struct {
	DefaultReport         *string            `yaml:"default_report"`
	DefaultDateFields     *[]string          `yaml:"default_date_fields"`
	ConfirmBeforeSchedule *bool              `yaml:"confirm_before_schedule"`
	Hotkeys               *map[string]string `yaml:"hotkeys"`
	Keys                  *Keymap            `yaml:"keys"`
}

// Load reads the config file at path and merges it over the defaults.
// A missing, unreadable, or malformed file is not an error: the defaults are
// returned so a broken config can never keep the session from starting.
func Load(path string) Config {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return cfg
	}

	if fc.DefaultReport != nil {
		cfg.DefaultReport = *fc.DefaultReport
	}
	if fc.DefaultDateFields != nil {
		cfg.DefaultDateFields = *fc.DefaultDateFields
	}
	if fc.ConfirmBeforeSchedule != nil {
		cfg.ConfirmBeforeSchedule = *fc.ConfirmBeforeSchedule
	}
	if fc.Hotkeys != nil {
		cfg.Hotkeys = *fc.Hotkeys
	}
	if fc.Keys != nil {
		cfg.Keys = mergeKeys(cfg.Keys, *fc.Keys)
	}
	return cfg
}

func mergeKeys(base, over Keymap) Keymap {
	pick := func(def, set string) string {
		if set != "" {
			return set
		}
		return def
	}
	return Keymap{
		Up:            pick(base.Up, over.Up),
		Down:          pick(base.Down, over.Down),
		Select:        pick(base.Select, over.Select),
		SelectAlt:     pick(base.SelectAlt, over.SelectAlt),
		SelectAll:     pick(base.SelectAll, over.SelectAll),
		ClearSelected: pick(base.ClearSelected, over.ClearSelected),
		Report:        pick(base.Report, over.Report),
		Sort:          pick(base.Sort, over.Sort),
		SortDirection: pick(base.SortDirection, over.SortDirection),
		DateFormat:    pick(base.DateFormat, over.DateFormat),
		Refresh:       pick(base.Refresh, over.Refresh),
		Quit:          pick(base.Quit, over.Quit),
	}
}
