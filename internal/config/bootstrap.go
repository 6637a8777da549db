package config

import (
	_ "embed"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

//go:embed default.yml
var defaultYAML []byte

// EnsureUserConfig returns <dataDir>/config.yml. On first run the file is
// seeded from templatePath, or from the built-in template when templatePath
// is empty or missing. A template that does not parse is an error and
// nothing is written.
func EnsureUserConfig(dataDir, templatePath string) (string, error) {
	userPath := filepath.Join(dataDir, "config.yml")
	switch _, err := os.Stat(userPath); {
	case err == nil:
		return userPath, nil
	case !errors.Is(err, os.ErrNotExist):
		return "", err
	}

	seed, from, err := readTemplate(templatePath)
	if err != nil {
		return "", err
	}
	var probe Config
	if err := yaml.Unmarshal(seed, &probe); err != nil {
		return "", fmt.Errorf("config template %s: %w", from, err)
	}

	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return "", err
	}
	tmp := userPath + ".tmp"
	if err := os.WriteFile(tmp, seed, 0o644); err != nil {
		return "", err
	}
	if err := os.Rename(tmp, userPath); err != nil {
		_ = os.Remove(tmp)
		return "", err
	}
	log.Printf("[config] created %s from %s", userPath, from)
	return userPath, nil
}

func readTemplate(path string) ([]byte, string, error) {
	if path == "" {
		return defaultYAML, "built-in default", nil
	}
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return defaultYAML, "built-in default", nil
	}
	if err != nil {
		return nil, "", err
	}
	return b, path, nil
}
