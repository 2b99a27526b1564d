package config

import (
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the runtime settings of a noveld profile.
type Config struct {
	NovelOutput  string `yaml:"novel_output"`
	MangaOutput  string `yaml:"manga_output"`
	DownloadsDir string `yaml:"downloads_dir"`
	SourcesFile  string `yaml:"sources_file"`
	Debug        bool   `yaml:"debug"`
	ProgressBar  bool   `yaml:"progress_bar"`

	Cookie     string        `yaml:"cookie"`
	CookieFile string        `yaml:"cookie_file"`
	UserAgent  string        `yaml:"user_agent"`
	Timeout    time.Duration `yaml:"timeout"`

	ChapterDelay    time.Duration `yaml:"chapter_delay"`
	BatchSize       int           `yaml:"batch_size"`
	NovelBatchDelay time.Duration `yaml:"novel_batch_delay"`
	MangaBatchDelay time.Duration `yaml:"manga_batch_delay"`
	PausePoll       time.Duration `yaml:"pause_poll"`
	ImageRetries    int           `yaml:"image_retries"`
	ImageWorkers    int           `yaml:"image_workers"`
	RetryBackoff    time.Duration `yaml:"retry_backoff"`

	// Chapter counts assumed when a page does not advertise one.
	DefaultNovelChapters int `yaml:"default_novel_chapters"`
	DefaultChapters      int `yaml:"default_chapters"`

	MinContentLength int    `yaml:"min_content_length"`
	Language         string `yaml:"language"`
}

type Options struct {
	IgnoreConfig bool
	Debug        bool
	ProgressBar  bool
	NovelOutput  string
	MangaOutput  string
	DownloadsDir string
	SourcesFile  string
	Cookie       string
	CookieFile   string
	UserAgent    string
	Language     string
}

func DefaultConfig() *Config {
	return &Config{
		NovelOutput:          "Novels",
		MangaOutput:          "Manga",
		DownloadsDir:         "downloads",
		SourcesFile:          "sources.json",
		Timeout:              30 * time.Second,
		ChapterDelay:         time.Second,
		BatchSize:            10,
		NovelBatchDelay:      15 * time.Second,
		MangaBatchDelay:      5 * time.Second,
		PausePoll:            time.Second,
		ImageRetries:         3,
		ImageWorkers:         1,
		RetryBackoff:         time.Second,
		DefaultNovelChapters: 3000,
		DefaultChapters:      1000,
		MinContentLength:     100,
		Language:             "en",
	}
}

func SaveYAML(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

func loadYAML(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Keys missing from the file keep their defaults.
	c := DefaultConfig()
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, err
	}

	return c, nil
}

// LoadMerged resolves the active profile, applies CLI overrides and returns
// the settings together with a description of where they came from.
func LoadMerged(opts Options) (*Config, string, error) {
	if opts.IgnoreConfig {
		cfg := DefaultConfig()
		mergeConfig(cfg, opts)
		normalizeDefaults(cfg)
		return cfg, "(ignored config)", nil
	}

	activePath, err := ActiveConfigPath()
	if err == ErrNoConfig || activePath == "" {
		cfg := DefaultConfig()
		mergeConfig(cfg, opts)
		normalizeDefaults(cfg)
		return cfg, "(default config in memory)", nil
	}
	if err != nil {
		return nil, "", err
	}

	cfg, err := loadYAML(activePath)
	if err != nil {
		return nil, "", fmt.Errorf("failed to load config %s: %w", activePath, err)
	}

	mergeConfig(cfg, opts)
	normalizeDefaults(cfg)

	return cfg, activePath, nil
}

func mergeConfig(c *Config, o Options) {
	if o.Debug {
		c.Debug = true
	}
	if o.ProgressBar {
		c.ProgressBar = true
	}
	if o.NovelOutput != "" {
		c.NovelOutput = o.NovelOutput
	}
	if o.MangaOutput != "" {
		c.MangaOutput = o.MangaOutput
	}
	if o.DownloadsDir != "" {
		c.DownloadsDir = o.DownloadsDir
	}
	if o.SourcesFile != "" {
		c.SourcesFile = o.SourcesFile
	}
	if o.Cookie != "" {
		c.Cookie = o.Cookie
	}
	if o.CookieFile != "" {
		c.CookieFile = o.CookieFile
	}
	if o.UserAgent != "" {
		c.UserAgent = o.UserAgent
	}
	if o.Language != "" {
		c.Language = o.Language
	}
}

func normalizeDefaults(c *Config) {
	def := DefaultConfig()

	if c.NovelOutput == "" {
		c.NovelOutput = def.NovelOutput
	}
	if c.MangaOutput == "" {
		c.MangaOutput = def.MangaOutput
	}
	if c.DownloadsDir == "" {
		c.DownloadsDir = def.DownloadsDir
	}
	if c.SourcesFile == "" {
		c.SourcesFile = def.SourcesFile
	}
	if c.Timeout <= 0 {
		c.Timeout = def.Timeout
	}
	if c.BatchSize <= 0 {
		c.BatchSize = def.BatchSize
	}
	if c.PausePoll <= 0 {
		c.PausePoll = def.PausePoll
	}
	if c.ImageRetries <= 0 {
		c.ImageRetries = def.ImageRetries
	}
	if c.ImageWorkers <= 0 {
		c.ImageWorkers = def.ImageWorkers
	}
	if c.DefaultNovelChapters <= 0 {
		c.DefaultNovelChapters = def.DefaultNovelChapters
	}
	if c.DefaultChapters <= 0 {
		c.DefaultChapters = def.DefaultChapters
	}
	if c.MinContentLength <= 0 {
		c.MinContentLength = def.MinContentLength
	}
	if c.Language == "" {
		c.Language = def.Language
	}
}

// Print writes a human readable summary. Callers pass stderr so stdout stays
// reserved for JSON.
func (c *Config) Print(w io.Writer) {
	fmt.Fprintf(w, " -novel_output: %s\n", c.NovelOutput)
	fmt.Fprintf(w, " -manga_output: %s\n", c.MangaOutput)
	fmt.Fprintf(w, " -downloads_dir: %s\n", c.DownloadsDir)
	fmt.Fprintf(w, " -sources_file: %s\n", c.SourcesFile)
	fmt.Fprintf(w, " -timeout: %s\n", c.Timeout)
	fmt.Fprintf(w, " -chapter_delay: %s\n", c.ChapterDelay)
	fmt.Fprintf(w, " -batch: every %d (novel %s, manga %s)\n", c.BatchSize, c.NovelBatchDelay, c.MangaBatchDelay)
	fmt.Fprintf(w, " -image_retries: %d (workers %d)\n", c.ImageRetries, c.ImageWorkers)
	fmt.Fprintf(w, " -default_chapters: novel %d, other %d\n", c.DefaultNovelChapters, c.DefaultChapters)
	fmt.Fprintf(w, " -min_content_length: %d\n", c.MinContentLength)
	fmt.Fprintf(w, " -language: %s\n", c.Language)
	if c.Debug {
		fmt.Fprintf(w, " -debug: %t\n", c.Debug)
	}
	if c.ProgressBar {
		fmt.Fprintf(w, " -progress_bar: %t\n", c.ProgressBar)
	}
	if c.UserAgent != "" {
		fmt.Fprintf(w, " -user_agent: %s\n", c.UserAgent)
	}
	if c.CookieFile != "" {
		fmt.Fprintf(w, " -cookie_file: %s\n", c.CookieFile)
	}
}
