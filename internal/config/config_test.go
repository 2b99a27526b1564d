package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withConfigHome(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("APPDATA", "")
	t.Setenv("XDG_CONFIG_HOME", dir)
	return filepath.Join(dir, "noveld")
}

func TestLoadMergedWithoutProfileUsesDefaults(t *testing.T) {
	withConfigHome(t)

	cfg, used, err := LoadMerged(Options{NovelOutput: "out"})
	require.NoError(t, err)

	assert.Equal(t, "(default config in memory)", used)
	assert.Equal(t, "out", cfg.NovelOutput)
	assert.Equal(t, "Manga", cfg.MangaOutput)
	assert.Equal(t, 3000, cfg.DefaultNovelChapters)
	assert.Equal(t, 1000, cfg.DefaultChapters)
	assert.Equal(t, 15*time.Second, cfg.NovelBatchDelay)
	assert.Equal(t, 5*time.Second, cfg.MangaBatchDelay)
}

func TestLoadMergedReadsActiveProfile(t *testing.T) {
	root := withConfigHome(t)

	path, err := InitDefaultConfig()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "configs", "Default.yaml"), path)

	require.NoError(t, os.WriteFile(path, []byte("downloads_dir: state\nchapter_delay: 250ms\n"), 0644))

	cfg, used, err := LoadMerged(Options{})
	require.NoError(t, err)
	assert.Equal(t, path, used)
	assert.Equal(t, "state", cfg.DownloadsDir)
	assert.Equal(t, 250*time.Millisecond, cfg.ChapterDelay)
	assert.Equal(t, 10, cfg.BatchSize, "keys missing from the file keep defaults")

	cfg, _, err = LoadMerged(Options{DownloadsDir: "flag"})
	require.NoError(t, err)
	assert.Equal(t, "flag", cfg.DownloadsDir)
}

func TestInitDefaultConfigTwice(t *testing.T) {
	withConfigHome(t)

	_, err := InitDefaultConfig()
	require.NoError(t, err)

	_, err = InitDefaultConfig()
	assert.True(t, errors.Is(err, os.ErrExist))
}

func TestProfileLifecycle(t *testing.T) {
	withConfigHome(t)

	_, err := InitDefaultConfig()
	require.NoError(t, err)

	_, err = CreateConfig("fast")
	require.NoError(t, err)
	_, err = CreateConfig("fast")
	assert.Error(t, err)

	require.NoError(t, SwitchConfig("fast"))
	label, err := CurrentLabel()
	require.NoError(t, err)
	assert.Equal(t, "fast", label)

	require.NoError(t, RenameConfig("fast", "quick"))
	label, _ = CurrentLabel()
	assert.Equal(t, "quick", label, "renaming the active profile follows it")

	list, err := ListConfigs()
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Default", list[0].Label)
	assert.True(t, list[1].Active)

	require.NoError(t, RemoveConfig("quick"))
	label, _ = CurrentLabel()
	assert.Equal(t, "Default", label)

	assert.Error(t, RemoveConfig("Default"))
	assert.Error(t, SwitchConfig("missing"))
	assert.Error(t, SwitchConfig("../escape"))
}

func TestActiveConfigPathWithoutSelection(t *testing.T) {
	withConfigHome(t)

	_, err := ActiveConfigPath()
	assert.ErrorIs(t, err, ErrNoConfig)
}
