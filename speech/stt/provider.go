// Package stt provides speech-to-text providers for caller audio.
package stt

import "context"

// Provider is the interface for speech-to-text services.
type Provider interface {
	// Name returns the provider identifier.
	Name() string

	// Transcribe converts one utterance of recorded audio to text.
	Transcribe(ctx context.Context, audio []byte, opts TranscribeOptions) (*Transcript, error)
}

// TranscribeOptions configures transcription.
type TranscribeOptions struct {
	Language   string // BCP-47 language code (e.g. "en-IN")
	SampleRate int    // Audio sample rate in Hz
}

// Transcript is the result of transcription.
type Transcript struct {
	Text       string  // Full transcribed text
	Language   string  // Language the recognizer was asked to use
	Confidence float64 // Confidence of the top alternative (0.0 to 1.0)
	Duration   float64 // Audio duration in seconds, when reported
}
