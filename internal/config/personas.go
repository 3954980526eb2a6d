// ABOUTME: Persona file loading for companion definitions
// ABOUTME: Each TOML file in the personas directory declares one companion

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/coreyalejandro/drama-engine/internal/companion"
)

// LoadPersonas reads every *.toml file in dir and returns the companion
// configurations in filename order, so persona ordering (and with it the
// round-robin cycle) is stable across runs.
func LoadPersonas(dir string) ([]companion.Config, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading personas directory: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".toml") {
			continue
		}
		files = append(files, entry.Name())
	}
	sort.Strings(files)

	var configs []companion.Config
	for _, name := range files {
		cfg, err := loadPersonaFile(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		configs = append(configs, cfg)
	}
	return configs, nil
}

func loadPersonaFile(path string) (companion.Config, error) {
	var cfg companion.Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing persona %s: %w", filepath.Base(path), err)
	}

	if cfg.Name == "" {
		return cfg, fmt.Errorf("persona %s: name is required", filepath.Base(path))
	}
	switch cfg.Kind {
	case companion.KindUser, companion.KindNPC, companion.KindShell:
	case "":
		cfg.Kind = companion.KindNPC
	default:
		return cfg, fmt.Errorf("persona %s: unknown kind %q", filepath.Base(path), cfg.Kind)
	}
	return cfg, nil
}
