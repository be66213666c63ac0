package config

import (
	"testing"
)

func TestGetDefaults(t *testing.T) {
	cfg := GetDefaults()

	if cfg.Server.Port != 8080 {
		t.Errorf("Wrong default port: %d", cfg.Server.Port)
	}
	if cfg.Safety.RepairMaxDistance != 1 {
		t.Errorf("Wrong default repair distance: %d", cfg.Safety.RepairMaxDistance)
	}
	if cfg.Safety.LengthRatioMin >= cfg.Safety.LengthRatioMax {
		t.Errorf("Inverted length ratio band: [%f, %f]",
			cfg.Safety.LengthRatioMin, cfg.Safety.LengthRatioMax)
	}

	for _, lang := range []string{LangWolof, LangFrench} {
		if len(cfg.Lexicons.Negations[lang]) == 0 {
			t.Errorf("Default negation lexicon missing for %s", lang)
		}
	}

	if err := validateConfig(cfg); err != nil {
		t.Errorf("Defaults fail validation: %v", err)
	}
}

func TestValidateConfig(t *testing.T) {
	mutate := func(f func(*Config)) *Config {
		cfg := GetDefaults()
		f(cfg)
		return cfg
	}

	cases := []struct {
		name string
		cfg  *Config
	}{
		{"BadPort", mutate(func(c *Config) { c.Server.Port = 0 })},
		{"BadMaxInput", mutate(func(c *Config) { c.Safety.MaxInputLength = 0 })},
		{"InvertedRatioBand", mutate(func(c *Config) { c.Safety.LengthRatioMax = c.Safety.LengthRatioMin })},
		{"NegativeRepairDistance", mutate(func(c *Config) { c.Safety.RepairMaxDistance = -1 })},
		{"MissingLexicon", mutate(func(c *Config) { delete(c.Lexicons.Negations, LangWolof) })},
		{"MissingTranslatorURL", mutate(func(c *Config) { c.Translator.URL = "" })},
		{"BadLogLevel", mutate(func(c *Config) { c.Logging.Level = "verbose" })},
		{"BadLogFormat", mutate(func(c *Config) { c.Logging.Format = "xml" })},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := validateConfig(tc.cfg); err == nil {
				t.Error("Invalid configuration accepted")
			}
		})
	}
}
