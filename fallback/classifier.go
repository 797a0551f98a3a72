package fallback

import (
	"github.com/SaiNageswarS/vidya-core/locale"
)

// Classification is the handling contract for one error kind: whether the
// caller may retry, whether the call must end, and whether the telephony
// layer should route back to the menu.
type Classification struct {
	Kind           Kind
	Retryable      bool
	TerminatesCall bool
	RedirectToMenu bool
}

// utterance holds the spoken fallback for one kind, per language. This
// catalog is the single source of user-facing text; no other component
// composes fallback strings.
type utterance struct {
	english string
	telugu  string
}

type catalogEntry struct {
	Classification
	utterance
}

var catalog = map[Kind]catalogEntry{
	KindInvalidInput: {
		Classification{KindInvalidInput, true, false, true},
		utterance{
			english: "There was a problem with your recording. Please make sure you're in a quiet place and try recording your question again.",
			telugu:  "మీ రికార్డింగ్‌లో సమస్య ఉంది. దయచేసి మీరు నిశ్శబ్ద ప్రదేశంలో ఉన్నారని నిర్ధారించుకుని మీ ప్రశ్నను మళ్లీ రికార్డ్ చేయండి.",
		},
	},
	KindAudioUnclear: {
		Classification{KindAudioUnclear, true, false, true},
		utterance{
			english: "I couldn't understand your question clearly. Please speak slowly and clearly, then ask your question again.",
			telugu:  "మీ ప్రశ్న స్పష్టంగా అర్థం కాలేదు. దయచేసి నెమ్మదిగా మరియు స్పష్టంగా మాట్లాడి మీ ప్రశ్నను మళ్లీ అడగండి.",
		},
	},
	KindContentNotFound: {
		Classification{KindContentNotFound, true, false, true},
		utterance{
			english: "I don't have information about that topic in our Class 10 Science curriculum. Please ask about Physics, Chemistry, or Biology topics.",
			telugu:  "మా క్లాస్ 10 సైన్స్ పాఠ్యక్రమంలో ఆ విషయం గురించి నాకు సమాచారం లేదు. దయచేసి భౌతిక శాస్త్రం, రసాయన శాస్త్రం లేదా జీవ శాస్త్రం గురించి అడగండి.",
		},
	},
	KindRetrievalFailure: {
		Classification{KindRetrievalFailure, true, false, false},
		utterance{
			english: "I'm having connectivity issues. Please wait a moment while I reconnect, then try again.",
			telugu:  "నాకు కనెక్టివిటీ సమస్యలు ఉన్నాయి. నేను మళ్లీ కనెక్ట్ అవుతున్నప్పుడు దయచేసి కాసేపు వేచి ఉండి, ఆపై మళ్లీ ప్రయత్నించండి.",
		},
	},
	KindGenerationFailure: {
		Classification{KindGenerationFailure, true, false, true},
		utterance{
			english: "I'm taking longer than expected to answer your question. Let me try with a simpler approach. Please ask a more specific question.",
			telugu:  "మీ ప్రశ్నకు సమాధానం ఇవ్వడానికి ఊహించిన దానికంటే ఎక్కువ సమయం పడుతోంది. నేను సరళమైన విధానంతో ప్రయత్నిస్తాను. దయచేసి మరింత నిర్దిష్టమైన ప్రశ్న అడగండి.",
		},
	},
	KindSynthesisFailure: {
		Classification{KindSynthesisFailure, true, false, true},
		utterance{
			english: "I'm having trouble with the audio. Please speak clearly and try asking your question again.",
			telugu:  "ఆడియోతో నాకు సమస్య ఉంది. దయచేసి స్పష్టంగా మాట్లాడి మీ ప్రశ్నను మళ్లీ అడగండి.",
		},
	},
	KindTimeout: {
		Classification{KindTimeout, true, false, false},
		utterance{
			english: "I'm taking a bit longer than usual to process your question. Please wait a moment while I try again.",
			telugu:  "మీ ప్రశ్నను ప్రాసెస్ చేయడానికి సాధారణం కంటే ఎక్కువ సమయం పడుతోంది. నేను మళ్లీ ప్రయత్నిస్తున్నప్పుడు దయచేసి కాసేపు వేచి ఉండండి.",
		},
	},
	KindRateLimited: {
		Classification{KindRateLimited, true, false, false},
		utterance{
			english: "I'm currently handling many questions. Please wait a moment and I'll process your question shortly.",
			telugu:  "నేను ప్రస్తుతం చాలా ప్రశ్నలను హ్యాండిల్ చేస్తున్నాను. దయచేసి కాసేపు వేచి ఉండండి, నేను మీ ప్రశ్నను త్వరలో ప్రాసెస్ చేస్తాను.",
		},
	},
	KindSystemError: {
		Classification{KindSystemError, false, true, true},
		utterance{
			english: "I'm experiencing a technical issue. Please try asking your question again, or call back in a few minutes.",
			telugu:  "నాకు సాంకేతిక సమస్య ఉంది. దయచేసి మీ ప్రశ్నను మళ్లీ అడగండి లేదా కొన్ని నిమిషాల తర్వాత మళ్లీ కాల్ చేయండి.",
		},
	},
}

// Classify resolves err to its handling contract. Unknown errors classify as
// SystemError, the only kind allowed to terminate the call.
func Classify(err error) Classification {
	return ClassifyKind(KindOf(err))
}

func ClassifyKind(kind Kind) Classification {
	if kind == KindBusy {
		// Absorbed upstream; nothing is spoken and the call stays alive.
		return Classification{Kind: KindBusy, Retryable: true}
	}
	if entry, ok := catalog[kind]; ok {
		return entry.Classification
	}
	return catalog[KindSystemError].Classification
}

// UserMessage returns the spoken fallback for kind in the caller's language.
func UserMessage(kind Kind, lang locale.Language) string {
	entry, ok := catalog[kind]
	if !ok {
		entry = catalog[KindSystemError]
	}
	if lang == locale.Telugu {
		return entry.telugu
	}
	return entry.english
}
