package config

// Default note templates. Placeholders are documented by the template
// reference served over MCP.
const (
	DefaultArticleTemplate = `[[ReadItLater]] [[Article]]

# [{{ title }}]({{ url }})

{{ author }} · {{ siteName }} · {{ readingTime }} min read

{{ content }}
`

	DefaultYouTubeTemplate = `[[ReadItLater]] [[YouTube]]

# [{{ title }}]({{ url }})

{{ player }}

Channel: [{{ channel }}]({{ channelURL }})
Published: {{ published }}
Duration: {{ duration }}

{{ description }}
`

	DefaultYouTubeChannelTemplate = `[[ReadItLater]] [[YouTubeChannel]]

![]({{ thumbnail }})

# [{{ title }}]({{ url }})

Subscribers: {{ subscribers }}

{{ description }}
`

	DefaultVimeoTemplate = `[[ReadItLater]] [[Vimeo]]

# [{{ title }}]({{ url }})

{{ player }}

By [{{ author }}]({{ authorURL }})

{{ description }}
`

	DefaultBilibiliTemplate = `[[ReadItLater]] [[Bilibili]]

# [{{ title }}]({{ url }})

{{ player }}

By {{ author }} · {{ published }} · {{ duration }}

{{ description }}
`

	DefaultTikTokTemplate = `[[ReadItLater]] [[TikTok]]

[{{ title }}]({{ url }})

{{ player }}

By [{{ author }}]({{ authorURL }})
`

	DefaultTweetTemplate = `[[ReadItLater]] [[Tweet]]

# [[{{ author }}]]
[Tweet]({{ url }}) ({{ published }})

{{ content|blockquote }}
`

	DefaultMastodonTemplate = `[[ReadItLater]] [[Toot]]

# [[{{ author }}]]
[Toot]({{ url }}) ({{ published }})

{{ content|blockquote }}

{{ media }}

{{ replies }}
`

	DefaultBlueskyTemplate = `[[ReadItLater]] [[Bluesky]]

# [[{{ author }}]] (@{{ handle }})
[Post]({{ url }}) ({{ published }})

{{ content|blockquote }}

{{ media }}

Likes: {{ likes }} · Reposts: {{ reposts }} · Replies: {{ replyCount }}
`

	DefaultStackExchangeTemplate = `[[ReadItLater]] [[StackExchange]]

# [{{ title }}]({{ url }})

Author: [{{ author }}]({{ authorURL }})

{{ question }}

***

{{ answers }}
`

	DefaultTextTemplate = `[[ReadItLater]] [[Textsnippet]]

{{ content }}
`
)
