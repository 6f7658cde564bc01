package domain

// Mood is the advisory sentiment classification of a message.
type Mood string

const (
	MoodPositive Mood = "positive"
	MoodNeutral  Mood = "neutral"
	MoodNegative Mood = "negative"
)

// Moderated is the ephemeral product of the moderation pipeline for one
// outgoing message. Never persisted by the core.
type Moderated struct {
	Original string
	Clean    string
	Mood     Mood
	// Payload is what actually goes out: the sealed ciphertext when a
	// sealer is configured, otherwise the scrubbed text bytes.
	Payload []byte
}
