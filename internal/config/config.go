// Package config holds the application configuration and its defaults.
package config

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/readitlater/internal/fspath"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// File-exists strategies.
const (
	StrategyAsk     = "ask"
	StrategyNothing = "nothing"
	StrategyAppend  = "append"
)

// Batch delimiters.
const (
	DelimiterNewline   = "newline"
	DelimiterComma     = "comma"
	DelimiterPeriod    = "period"
	DelimiterSemicolon = "semicolon"
)

// Config represents the application configuration.
type Config struct {
	App     ApplicationConfig `yaml:"app"`
	Vault   VaultConfig       `yaml:"vault"`
	Notes   NotesConfig       `yaml:"notes"`
	Fetch   FetchConfig       `yaml:"fetch"`
	Assets  AssetsConfig      `yaml:"assets"`
	Sources SourcesConfig     `yaml:"sources"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Vault.Validate(); err != nil {
		return err
	}
	if err := c.Notes.Validate(); err != nil {
		return err
	}
	if err := c.Fetch.Validate(); err != nil {
		return err
	}
	if err := c.Assets.Validate(); err != nil {
		return err
	}
	return c.Sources.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
	Auth     AuthConfig `yaml:"auth"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	if err := c.HTTP.Validate(); err != nil {
		return err
	}
	return c.Auth.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local use.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// VaultConfig describes where notes and downloaded media are written.
// InboxDir may contain {{contentType}}, {{date}} and {{fileName}}.
type VaultConfig struct {
	Path              string `yaml:"path"`
	InboxDir          string `yaml:"inbox_dir"`
	AssetsDir         string `yaml:"assets_dir"`
	Platform          string `yaml:"platform"`
	MaxPathLength     int    `yaml:"max_path_length"`
	MaxFileNameLength int    `yaml:"max_file_name_length"`
}

// Validate validates the vault configuration.
func (c *VaultConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
		validation.Field(&c.MaxPathLength, validation.Min(0)),
		validation.Field(&c.MaxFileNameLength, validation.Min(0)),
	)
}

// Limits returns the platform limits with any configured overrides applied.
func (c *VaultConfig) Limits() fspath.Limits {
	return fspath.LimitsFor(c.Platform).Override(c.MaxPathLength, c.MaxFileNameLength)
}

// NotesConfig controls note naming and the file-exists policy.
type NotesConfig struct {
	FileExistsStrategy string      `yaml:"file_exists_strategy"`
	OpenNewNote        bool        `yaml:"open_new_note"`
	OpenCommand        string      `yaml:"open_command"`
	Batch              BatchConfig `yaml:"batch"`
	DateTitleFormat    string      `yaml:"date_title_format"`
	DateContentFormat  string      `yaml:"date_content_format"`
	DateFolderFormat   string      `yaml:"date_folder_format"`
	DownloadMedia      bool        `yaml:"download_media"`
	PreferencesFile    string      `yaml:"preferences_file"`
}

// Validate validates the notes configuration.
func (c *NotesConfig) Validate() error {
	if c.FileExistsStrategy == "" {
		c.FileExistsStrategy = StrategyAsk
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.FileExistsStrategy, validation.In(StrategyAsk, StrategyNothing, StrategyAppend)),
	); err != nil {
		return err
	}
	if c.OpenNewNote && c.OpenCommand == "" {
		return fmt.Errorf("notes: open_new_note is set but open_command is empty")
	}
	return c.Batch.Validate()
}

// BatchConfig controls splitting of multi-URL input.
type BatchConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Delimiter string `yaml:"delimiter"`
}

// Validate validates the batch configuration.
func (c *BatchConfig) Validate() error {
	if c.Delimiter == "" {
		c.Delimiter = DelimiterNewline
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.Delimiter, validation.In(DelimiterNewline, DelimiterComma, DelimiterPeriod, DelimiterSemicolon)),
	)
}

// Separator returns the literal separator for the configured delimiter.
func (c *BatchConfig) Separator() string {
	switch c.Delimiter {
	case DelimiterComma:
		return ","
	case DelimiterPeriod:
		return "."
	case DelimiterSemicolon:
		return ";"
	default:
		return "\n"
	}
}

// FetchConfig tunes the outbound HTTP client.
type FetchConfig struct {
	Timeout      time.Duration `yaml:"timeout"`
	UserAgent    string        `yaml:"user_agent"`
	MaxBodyBytes int64         `yaml:"max_body_bytes"`
}

// Validate validates the fetch configuration.
func (c *FetchConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Timeout, validation.Min(time.Duration(0))),
		validation.Field(&c.MaxBodyBytes, validation.Min(int64(0))),
	)
}

// AssetsConfig tunes the media download pipeline. An empty HashIndexPath
// keeps the link hash index in memory only.
type AssetsConfig struct {
	HashIndexPath string `yaml:"hash_index_path"`
	HashCacheSize int    `yaml:"hash_cache_size"`
	MaxAttempts   int    `yaml:"max_attempts"`
	Concurrency   int    `yaml:"concurrency"`
}

// Validate validates the assets configuration.
func (c *AssetsConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.HashCacheSize, validation.Min(0)),
		validation.Field(&c.MaxAttempts, validation.Min(1), validation.Max(1000)),
		validation.Field(&c.Concurrency, validation.Min(1), validation.Max(64)),
	)
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
			Auth: AuthConfig{
				Mode: AuthModeDisabled,
			},
		},
		Vault: VaultConfig{
			Path:      "./vault",
			InboxDir:  "ReadItLater Inbox",
			AssetsDir: "ReadItLater Inbox/assets",
		},
		Notes: NotesConfig{
			FileExistsStrategy: StrategyAsk,
			Batch: BatchConfig{
				Enabled:   true,
				Delimiter: DelimiterNewline,
			},
			DateTitleFormat:   "%Y-%m-%d %H-%M-%S",
			DateContentFormat: "%Y-%m-%d",
			DateFolderFormat:  "%Y-%m-%d",
			DownloadMedia:     true,
			PreferencesFile:   "./config/preferences.yaml",
		},
		Fetch: FetchConfig{
			Timeout:      30 * time.Second,
			UserAgent:    "readitlater/1.0",
			MaxBodyBytes: 50 << 20,
		},
		Assets: AssetsConfig{
			HashCacheSize: 4096,
			MaxAttempts:   10,
			Concurrency:   4,
		},
		Sources: defaultSources(),
	}
}
