package mcpserver

// TemplateReference documents the placeholders and filters available in
// title, note and inbox directory templates.
const TemplateReference = `# readitlater Template Reference

Templates are plain text with placeholders. Both ` + "`{{ name }}`" + ` and ` + "`%name%`" + `
are accepted. Unknown placeholders are left as written; missing values render
as an empty string.

## Filters

Filters are chained with ` + "`|`" + `: ` + "`{{ title|lower|trim }}`" + `. Arguments go in
parentheses and may be quoted: ` + "`{{ title|replace(\", \", \" - \") }}`" + `.

| Filter | Effect |
|---|---|
| lower, upper | change case |
| capitalize | upper-case the first letter |
| trim | strip surrounding whitespace |
| striptags(allowed...) | remove HTML tags, keeping the allowed ones |
| blockquote | prefix every line with "> " |
| replace(old, new) | replace every occurrence |
| default(value) | use value when empty |
| numberLength(n) | zero-pad a number to n digits |

## Placeholders by source

- every source: ` + "`date`" + ` (title and content date formats)
- website: title, url, author, siteName, excerpt, content, readingTime, thumbnail, published
- youtube: title, url, id, channel, channelURL, description, thumbnail, player, published, duration
- youtube_channel: title, url, description, thumbnail, subscribers
- vimeo, tiktok, bilibili: title, url, author, authorURL, thumbnail, player, published, duration
- twitter: author, url, content, published
- bluesky: author, handle, url, content, media, likes, reposts, replyCount, published
- mastodon: author, authorURL, url, content, media, replies, published
- stackexchange: title, url, author, authorURL, question, answers, answerCount
- text: content

## Inbox directory

` + "`vault.inbox_dir`" + ` accepts ` + "`{{ contentType }}`" + `, ` + "`{{ date }}`" + ` (folder date format)
and ` + "`{{ fileName }}`" + `. The result always stays inside the vault.

## Example

` + "```" + `
# [{{ title }}]({{ url }})

{{ author|default("unknown") }} · {{ readingTime }} min read

{{ content }}
` + "```" + `
`
