package config

import (
	"errors"
	"io/fs"
	"net/url"
	"os"
	"strings"
	"time"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	domainerr "bytesite/internal/domain/errors"
)

const (
	configPathEnv  = "BYTESITE_CONFIG"
	addrEnv        = "BYTESITE_ADDR"
	githubTokenEnv = "BYTESITE_GITHUB_TOKEN"
	logLevelEnv    = "BYTESITE_LOG_LEVEL"
)

type Config struct {
	Site   SiteConfig   `yaml:"site"`
	Blog   BlogConfig   `yaml:"blog"`
	Build  BuildConfig  `yaml:"build"`
	Server ServerConfig `yaml:"server"`
	GitHub GitHubConfig `yaml:"github"`
	Log    LogConfig    `yaml:"log"`
}

type SiteConfig struct {
	Title       string     `yaml:"title"`
	Tagline     string     `yaml:"tagline"`
	Description string     `yaml:"description"`
	Email       string     `yaml:"email"`
	SiteURL     string     `yaml:"site_url"`
	Theme       string     `yaml:"theme"`
	Language    string     `yaml:"language"`
	GitHubURL   string     `yaml:"github_url"`
	Nav         []NavItem  `yaml:"nav"`
	Team        []TeamCard `yaml:"team"`
}

type NavItem struct {
	Label string `yaml:"label"`
	Href  string `yaml:"href"`
}

type TeamCard struct {
	Name     string `yaml:"name"`
	Username string `yaml:"username"`
	Role     string `yaml:"role"`
	Bio      string `yaml:"bio"`
	GitHub   string `yaml:"github"`
	Avatar   string `yaml:"avatar"`
}

type BlogConfig struct {
	ContentDir     string `yaml:"content_dir"`
	PagesDir       string `yaml:"pages_dir"`
	RecentCount    int    `yaml:"recent_count"`
	WordsPerMinute int    `yaml:"words_per_minute"`
	// Classes overrides the CSS class per Markdown block kind, keyed by kind
	// ("h1", "codeblock", "alert.warning", ...).
	Classes map[string]string `yaml:"classes"`
}

type BuildConfig struct {
	PublicDir string    `yaml:"public_dir"`
	ThemeDir  string    `yaml:"theme_dir"`
	CachePath string    `yaml:"cache_path"`
	Now       time.Time `yaml:"-"`
}

type ServerConfig struct {
	Addr     string        `yaml:"addr"`
	Watch    bool          `yaml:"watch"`
	Debounce time.Duration `yaml:"debounce"`
	// Metrics exposes Prometheus metrics at /metrics.
	Metrics bool `yaml:"metrics"`
}

type GitHubConfig struct {
	Org      string        `yaml:"org"`
	APIBase  string        `yaml:"api_base"`
	Token    string        `yaml:"token"`
	Timeout  time.Duration `yaml:"timeout"`
	CacheTTL time.Duration `yaml:"cache_ttl"`
	Featured int           `yaml:"featured"`
}

// Enabled reports whether the home page should show repositories.
func (g GitHubConfig) Enabled() bool {
	return strings.TrimSpace(g.Org) != ""
}

type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

func Default() Config {
	return Config{
		Site: SiteConfig{
			Title:    "The Byte Array",
			Theme:    "default",
			Language: "en",
		},
		Blog: BlogConfig{
			ContentDir:     "content/blog",
			PagesDir:       "content/pages",
			RecentCount:    3,
			WordsPerMinute: 200,
		},
		Build: BuildConfig{
			PublicDir: "public",
			ThemeDir:  "themes",
			CachePath: ".bytesite/cache.db",
			Now:       time.Now(),
		},
		Server: ServerConfig{
			Addr:     ":8080",
			Watch:    true,
			Debounce: 200 * time.Millisecond,
			Metrics:  true,
		},
		GitHub: GitHubConfig{
			APIBase:  "https://api.github.com",
			Timeout:  10 * time.Second,
			CacheTTL: time.Hour,
			Featured: 3,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

func (c Config) Validate() error {
	var ve domainerr.ValidationError

	if strings.TrimSpace(c.Site.Title) == "" {
		ve.Add("site.title", "must not be empty")
	}
	if s := strings.TrimSpace(c.Site.SiteURL); s != "" && !isValidAbsURL(s) {
		ve.Add("site.site_url", "must be a valid absolute URL")
	}
	if strings.TrimSpace(c.Site.Theme) == "" {
		ve.Add("site.theme", "must not be empty")
	}
	if _, err := language.Parse(c.Site.Language); err != nil {
		ve.Add("site.language", "must be a BCP 47 language tag")
	}

	if strings.TrimSpace(c.Blog.ContentDir) == "" {
		ve.Add("blog.content_dir", "must not be empty")
	}
	if c.Blog.RecentCount < 0 {
		ve.Add("blog.recent_count", "must not be negative")
	}
	if c.Blog.WordsPerMinute <= 0 {
		ve.Add("blog.words_per_minute", "must be positive")
	}

	if strings.TrimSpace(c.Build.PublicDir) == "" {
		ve.Add("build.public_dir", "must not be empty")
	}
	if strings.TrimSpace(c.Build.ThemeDir) == "" {
		ve.Add("build.theme_dir", "must not be empty")
	}
	if strings.TrimSpace(c.Build.CachePath) == "" {
		ve.Add("build.cache_path", "must not be empty")
	}

	if strings.TrimSpace(c.Server.Addr) == "" {
		ve.Add("server.addr", "must not be empty")
	}
	if c.Server.Debounce < 0 {
		ve.Add("server.debounce", "must not be negative")
	}

	if c.GitHub.Enabled() {
		if !isValidAbsURL(c.GitHub.APIBase) {
			ve.Add("github.api_base", "must be a valid absolute URL")
		}
		if c.GitHub.Timeout <= 0 {
			ve.Add("github.timeout", "must be positive")
		}
		if c.GitHub.CacheTTL < 0 {
			ve.Add("github.cache_ttl", "must not be negative")
		}
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		ve.Add("log.level", "must be one of debug, info, warn, error")
	}

	if ve.HasAny() {
		return ve
	}
	return nil
}

// LanguageTag returns the parsed site language, English when invalid.
func (s SiteConfig) LanguageTag() language.Tag {
	tag, err := language.Parse(s.Language)
	if err != nil {
		return language.English
	}
	return tag
}

// AbsURL joins path onto the site URL, or returns "" when no site URL is set.
func (s SiteConfig) AbsURL(path string) string {
	base := strings.TrimRight(strings.TrimSpace(s.SiteURL), "/")
	if base == "" {
		return ""
	}
	return base + "/" + strings.TrimLeft(path, "/")
}

func isValidAbsURL(s string) bool {
	u, err := url.Parse(strings.TrimSpace(s))
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	return u.Host != ""
}

// Path resolves the config file location: the explicit path when given,
// then $BYTESITE_CONFIG, then ./site.yaml.
func Path(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if v := os.Getenv(configPathEnv); v != "" {
		return v
	}
	return "site.yaml"
}

func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	return finish(cfg, data)
}

// LoadOrDefault is Load, except that a missing file yields the defaults.
func LoadOrDefault(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return finish(cfg, nil)
		}
		return cfg, err
	}
	return finish(cfg, data)
}

func finish(cfg Config, data []byte) (Config, error) {
	// File values override the defaults; keys the file omits keep them.
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	}
	cfg.applyEnvOverrides()

	if cfg.Build.Now.IsZero() {
		cfg.Build.Now = time.Now()
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(addrEnv); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv(githubTokenEnv); v != "" {
		c.GitHub.Token = v
	}
	if v := os.Getenv(logLevelEnv); v != "" {
		c.Log.Level = v
	}
}
