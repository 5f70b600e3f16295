package indicator

import (
	"os"
	"strings"
)

type messages struct {
	recording  string
	processing string
	errorText  string
}

var englishMessages = messages{
	recording:  "Recording…",
	processing: "Transcribing…",
	errorText:  "Speech recognition error",
}

// messagesFromEnv picks indicator text for $LANG, falling back to English.
func messagesFromEnv() messages {
	return messagesFor(os.Getenv("LANG"))
}

var catalog = map[string]messages{
	"en": englishMessages,
}

func messagesFor(lang string) messages {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if len(lang) >= 2 {
		if m, ok := catalog[lang[:2]]; ok {
			return m
		}
	}
	return englishMessages
}
