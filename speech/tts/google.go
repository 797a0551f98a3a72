package tts

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/SaiNageswarS/go-api-boot/logger"
)

// GoogleProvider implements the Provider interface over the Cloud
// Text-to-Speech REST API.
type GoogleProvider struct {
	apiKey     string
	httpClient *http.Client
	url        string
}

func NewGoogle() *GoogleProvider {
	apiKey := os.Getenv("GOOGLE_TTS_API_KEY")
	if apiKey == "" {
		logger.Fatal("GOOGLE_TTS_API_KEY environment variable is not set")
		return nil
	}

	return &GoogleProvider{
		apiKey:     apiKey,
		httpClient: &http.Client{},
		url:        "https://texttospeech.googleapis.com/v1/text:synthesize",
	}
}

func (g *GoogleProvider) Name() string {
	return "google"
}

func (g *GoogleProvider) Synthesize(ctx context.Context, text string, opts SynthesizeOptions) (*Synthesis, error) {
	speakingRate := opts.SpeakingRate
	if speakingRate == 0 {
		speakingRate = 1.0
	}
	sampleRate := opts.SampleRate
	if sampleRate == 0 {
		sampleRate = 16000
	}

	request := googleSynthesizeRequest{
		Input: googleSynthesisInput{Text: text},
		Voice: googleVoiceSelection{
			LanguageCode: opts.Language,
			Name:         opts.Voice,
			SsmlGender:   "FEMALE",
		},
		AudioConfig: googleAudioConfig{
			AudioEncoding:   "LINEAR16",
			SampleRateHertz: sampleRate,
			SpeakingRate:    speakingRate,
			Pitch:           0.0,
			VolumeGainDb:    0.0,
		},
	}

	jsonData, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("error marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", g.url+"?key="+g.apiKey, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error making request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var response googleSynthesizeResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("error unmarshaling response: %w", err)
	}

	audio, err := base64.StdEncoding.DecodeString(response.AudioContent)
	if err != nil {
		return nil, fmt.Errorf("error decoding audio content: %w", err)
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("empty audio content in response")
	}

	return &Synthesis{
		Audio: audio,
		// 16-bit mono; close enough despite the WAV header bytes
		Duration: float64(len(audio)) / float64(2*sampleRate),
	}, nil
}

// Google Text-to-Speech API types
type googleSynthesizeRequest struct {
	Input       googleSynthesisInput `json:"input"`
	Voice       googleVoiceSelection `json:"voice"`
	AudioConfig googleAudioConfig    `json:"audioConfig"`
}

type googleSynthesisInput struct {
	Text string `json:"text"`
}

type googleVoiceSelection struct {
	LanguageCode string `json:"languageCode"`
	Name         string `json:"name"`
	SsmlGender   string `json:"ssmlGender"`
}

type googleAudioConfig struct {
	AudioEncoding   string  `json:"audioEncoding"`
	SampleRateHertz int     `json:"sampleRateHertz"`
	SpeakingRate    float64 `json:"speakingRate"`
	Pitch           float64 `json:"pitch"`
	VolumeGainDb    float64 `json:"volumeGainDb"`
}

type googleSynthesizeResponse struct {
	AudioContent string `json:"audioContent"`
}
