package bot

import "strings"

// Characters Telegram requires escaped in MarkdownV2 text.
// See https://core.telegram.org/bots/api#markdownv2-style.
const markdownV2Special = "_*[]()~`>#+-=|{}.!"

func escapeMarkdownV2(input string) string {
	var b strings.Builder
	b.Grow(len(input))

	for i := 0; i < len(input); i++ {
		if strings.IndexByte(markdownV2Special, input[i]) >= 0 {
			b.WriteByte('\\')
		}
		b.WriteByte(input[i])
	}

	return b.String()
}
