package config

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// SourceConfig is shared by every source family.
type SourceConfig struct {
	Enabled       bool   `yaml:"enabled"`
	TitleTemplate string `yaml:"title_template"`
	NoteTemplate  string `yaml:"note_template"`
}

// Validate requires templates for enabled sources.
func (c *SourceConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.TitleTemplate, validation.Required),
		validation.Field(&c.NoteTemplate, validation.Required),
	)
}

// YouTubeConfig configures video notes. Without an API key the watch page
// is scraped.
type YouTubeConfig struct {
	SourceConfig `yaml:",inline"`
	APIKey       string `yaml:"api_key"`
	EmbedWidth   int    `yaml:"embed_width"`
	EmbedHeight  int    `yaml:"embed_height"`
}

// YouTubeChannelConfig configures channel notes.
type YouTubeChannelConfig struct {
	SourceConfig `yaml:",inline"`
	APIKey       string `yaml:"api_key"`
}

// MastodonConfig configures toot notes.
type MastodonConfig struct {
	SourceConfig `yaml:",inline"`
	SaveReplies  bool `yaml:"save_replies"`
}

// StackExchangeConfig configures question notes.
type StackExchangeConfig struct {
	SourceConfig `yaml:",inline"`
	MaxAnswers   int `yaml:"max_answers"`
}

// WebsiteConfig configures article notes. ReadingSpeed is in words per
// minute.
type WebsiteConfig struct {
	SourceConfig `yaml:",inline"`
	ReadingSpeed int `yaml:"reading_speed"`
}

// SourcesConfig groups per-source settings.
type SourcesConfig struct {
	Website        WebsiteConfig        `yaml:"website"`
	YouTube        YouTubeConfig        `yaml:"youtube"`
	YouTubeChannel YouTubeChannelConfig `yaml:"youtube_channel"`
	Vimeo          SourceConfig         `yaml:"vimeo"`
	Bilibili       SourceConfig         `yaml:"bilibili"`
	TikTok         SourceConfig         `yaml:"tiktok"`
	Twitter        SourceConfig         `yaml:"twitter"`
	Mastodon       MastodonConfig       `yaml:"mastodon"`
	Bluesky        SourceConfig         `yaml:"bluesky"`
	StackExchange  StackExchangeConfig  `yaml:"stackexchange"`
	Text           SourceConfig         `yaml:"text"`
}

// Validate validates every source group.
func (c *SourcesConfig) Validate() error {
	return validation.Errors{
		"website":         c.Website.Validate(),
		"youtube":         c.YouTube.Validate(),
		"youtube_channel": c.YouTubeChannel.Validate(),
		"vimeo":           c.Vimeo.Validate(),
		"bilibili":        c.Bilibili.Validate(),
		"tiktok":          c.TikTok.Validate(),
		"twitter":         c.Twitter.Validate(),
		"mastodon":        c.Mastodon.Validate(),
		"bluesky":         c.Bluesky.Validate(),
		"stackexchange":   c.StackExchange.Validate(),
		"text":            c.Text.Validate(),
	}.Filter()
}

// Validate validates the YouTube group.
func (c *YouTubeConfig) Validate() error {
	if err := c.SourceConfig.Validate(); err != nil {
		return err
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.EmbedWidth, validation.Min(0)),
		validation.Field(&c.EmbedHeight, validation.Min(0)),
	)
}

// Validate validates the StackExchange group.
func (c *StackExchangeConfig) Validate() error {
	if err := c.SourceConfig.Validate(); err != nil {
		return err
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.MaxAnswers, validation.Min(0)),
	)
}

// Validate validates the website group.
func (c *WebsiteConfig) Validate() error {
	if err := c.SourceConfig.Validate(); err != nil {
		return err
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.ReadingSpeed, validation.Min(0)),
	)
}

func enabled(title, note string) SourceConfig {
	return SourceConfig{Enabled: true, TitleTemplate: title, NoteTemplate: note}
}

func defaultSources() SourcesConfig {
	return SourcesConfig{
		Website: WebsiteConfig{
			SourceConfig: enabled("{{ title }}", DefaultArticleTemplate),
			ReadingSpeed: 200,
		},
		YouTube: YouTubeConfig{
			SourceConfig: enabled("YouTube - {{ title }}", DefaultYouTubeTemplate),
			EmbedWidth:   560,
			EmbedHeight:  315,
		},
		YouTubeChannel: YouTubeChannelConfig{
			SourceConfig: enabled("{{ title }}", DefaultYouTubeChannelTemplate),
		},
		Vimeo:    enabled("Vimeo - {{ title }}", DefaultVimeoTemplate),
		Bilibili: enabled("Bilibili - {{ title }}", DefaultBilibiliTemplate),
		TikTok:   enabled("TikTok from {{ author }} ({{ date }})", DefaultTikTokTemplate),
		Twitter:  enabled("Tweet from {{ author }} ({{ date }})", DefaultTweetTemplate),
		Mastodon: MastodonConfig{
			SourceConfig: enabled("Toot from {{ author }} ({{ date }})", DefaultMastodonTemplate),
			SaveReplies:  false,
		},
		Bluesky: enabled("Bluesky from {{ author }} ({{ date }})", DefaultBlueskyTemplate),
		StackExchange: StackExchangeConfig{
			SourceConfig: enabled("{{ title }}", DefaultStackExchangeTemplate),
			MaxAnswers:   3,
		},
		Text: enabled("Notice {{ date }}", DefaultTextTemplate),
	}
}
