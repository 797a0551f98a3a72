package locale

// Language is a BCP-47 code for one of the supported call languages.
type Language string

const (
	English Language = "en-IN"
	Telugu  Language = "te-IN"
)

// Default voice profiles per language.
const (
	EnglishVoice = "en-IN-Wavenet-A"
	TeluguVoice  = "te-IN-Standard-A"
)

func (l Language) Valid() bool {
	return l == English || l == Telugu
}

// Alternate returns the other supported language. Transcription falls back to
// it exactly once when the hinted language fails.
func (l Language) Alternate() Language {
	if l == Telugu {
		return English
	}
	return Telugu
}

func (l Language) Voice() string {
	if l == Telugu {
		return TeluguVoice
	}
	return EnglishVoice
}

// Normalize maps loose caller input ("english", "te", "te-IN") to a Language.
// Unknown values default to English.
func Normalize(s string) Language {
	switch s {
	case "te-IN", "te", "telugu", "Telugu":
		return Telugu
	default:
		return English
	}
}
