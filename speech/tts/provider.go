// Package tts provides text-to-speech providers for spoken answers.
package tts

import "context"

// Provider is the interface for text-to-speech services.
type Provider interface {
	// Name returns the provider identifier.
	Name() string

	// Synthesize converts text to audio.
	Synthesize(ctx context.Context, text string, opts SynthesizeOptions) (*Synthesis, error)
}

// SynthesizeOptions configures synthesis.
type SynthesizeOptions struct {
	Voice        string  // Voice name (e.g. "en-IN-Wavenet-A")
	Language     string  // BCP-47 language code
	SpeakingRate float64 // Speed multiplier (default 1.0)
	SampleRate   int     // Output sample rate in Hz
}

// Synthesis is the result of synthesis.
type Synthesis struct {
	Audio    []byte  // LINEAR16 audio data
	Duration float64 // Duration in seconds (approximate)
}
