package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

var ErrNoConfig = errors.New("no config selected")

const (
	defaultLabel = "Default"
	profileExt   = ".yaml"
)

func ConfigRoot() string {
	// Windows
	if appdata := os.Getenv("APPDATA"); appdata != "" {
		return filepath.Join(appdata, "noveld")
	}

	// Linux/macOS XDG
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "noveld")
	}

	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "noveld")
}

func ConfigsDir() string {
	return filepath.Join(ConfigRoot(), "configs")
}

func CurrentLabelFile() string {
	return filepath.Join(ConfigRoot(), "current_config")
}

// ConfigPathByLabel returns the file backing a profile without checking that
// it exists.
func ConfigPathByLabel(label string) (string, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return "", errors.New("label cannot be empty")
	}
	if strings.ContainsAny(label, `/\`) {
		return "", fmt.Errorf("invalid label %q", label)
	}

	return filepath.Join(ConfigsDir(), label+profileExt), nil
}

func ensureDirs() error {
	return os.MkdirAll(ConfigsDir(), 0755)
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func writeCurrent(label string) error {
	return os.WriteFile(CurrentLabelFile(), []byte(label), 0644)
}

func CurrentLabel() (string, error) {
	if err := ensureDirs(); err != nil {
		return "", err
	}

	b, err := os.ReadFile(CurrentLabelFile())
	if os.IsNotExist(err) {
		return "", ErrNoConfig
	}
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(string(b)), nil
}

func ActiveConfigPath() (string, error) {
	label, err := CurrentLabel()
	if err != nil || label == "" {
		return "", ErrNoConfig
	}

	return ConfigPathByLabel(label)
}

type ConfigInfo struct {
	Label  string
	Path   string
	Active bool
}

func ListConfigs() ([]ConfigInfo, error) {
	if err := ensureDirs(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(ConfigsDir())
	if err != nil {
		return nil, err
	}

	activeLabel, _ := CurrentLabel()
	var out []ConfigInfo

	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, profileExt) {
			continue
		}

		label := strings.TrimSuffix(name, profileExt)
		out = append(out, ConfigInfo{
			Label:  label,
			Path:   filepath.Join(ConfigsDir(), name),
			Active: label == activeLabel,
		})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Label < out[j].Label })
	return out, nil
}

func SwitchConfig(label string) error {
	path, err := ConfigPathByLabel(label)
	if err != nil {
		return err
	}
	if err := ensureDirs(); err != nil {
		return err
	}
	if !exists(path) {
		return fmt.Errorf("config %q does not exist", label)
	}

	return writeCurrent(label)
}

// CreateConfig writes a profile filled with defaults.
func CreateConfig(label string) (string, error) {
	path, err := ConfigPathByLabel(label)
	if err != nil {
		return "", err
	}
	if err := ensureDirs(); err != nil {
		return "", err
	}
	if exists(path) {
		return "", fmt.Errorf("config %q already exists", label)
	}

	if err := SaveYAML(DefaultConfig(), path); err != nil {
		return "", err
	}

	return path, nil
}

func RenameConfig(oldLabel, newLabel string) error {
	oldPath, err := ConfigPathByLabel(oldLabel)
	if err != nil {
		return err
	}
	newPath, err := ConfigPathByLabel(newLabel)
	if err != nil {
		return fmt.Errorf("new label: %w", err)
	}
	if err := ensureDirs(); err != nil {
		return err
	}

	if !exists(oldPath) {
		return fmt.Errorf("config %q does not exist", oldLabel)
	}
	if exists(newPath) {
		return fmt.Errorf("config %q already exists", newLabel)
	}

	if err := os.Rename(oldPath, newPath); err != nil {
		return err
	}

	if active, _ := CurrentLabel(); active == oldLabel {
		return writeCurrent(newLabel)
	}

	return nil
}

// RemoveConfig deletes a profile. Removing the active one switches back to
// Default, which itself cannot be removed.
func RemoveConfig(label string) error {
	path, err := ConfigPathByLabel(label)
	if err != nil {
		return err
	}
	if label == defaultLabel {
		return errors.New("cannot remove the Default config")
	}
	if !exists(path) {
		return fmt.Errorf("config %q does not exist", label)
	}

	if active, _ := CurrentLabel(); active == label {
		if err := SwitchConfig(defaultLabel); err != nil {
			return fmt.Errorf("failed switching to Default: %w", err)
		}
	}

	return os.Remove(path)
}

// InitDefaultConfig creates the Default profile and activates it. When it
// already exists it is only activated and os.ErrExist is returned.
func InitDefaultConfig() (string, error) {
	path, _ := ConfigPathByLabel(defaultLabel)
	if err := ensureDirs(); err != nil {
		return "", err
	}

	if exists(path) {
		_ = writeCurrent(defaultLabel)
		return path, os.ErrExist
	}

	if err := SaveYAML(DefaultConfig(), path); err != nil {
		return "", err
	}

	return path, writeCurrent(defaultLabel)
}
