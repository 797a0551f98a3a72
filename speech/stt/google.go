package stt

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/SaiNageswarS/go-api-boot/logger"
)

// GoogleProvider implements the Provider interface over the Cloud
// Speech-to-Text REST API.
type GoogleProvider struct {
	apiKey     string
	httpClient *http.Client
	url        string
}

func NewGoogle() *GoogleProvider {
	apiKey := os.Getenv("GOOGLE_SPEECH_API_KEY")
	if apiKey == "" {
		logger.Fatal("GOOGLE_SPEECH_API_KEY environment variable is not set")
		return nil
	}

	return &GoogleProvider{
		apiKey:     apiKey,
		httpClient: &http.Client{},
		url:        "https://speech.googleapis.com/v1/speech:recognize",
	}
}

func (g *GoogleProvider) Name() string {
	return "google"
}

func (g *GoogleProvider) Transcribe(ctx context.Context, audio []byte, opts TranscribeOptions) (*Transcript, error) {
	sampleRate := opts.SampleRate
	if sampleRate == 0 {
		sampleRate = 16000
	}

	request := googleRecognizeRequest{
		Config: googleRecognitionConfig{
			Encoding:                   "LINEAR16",
			SampleRateHertz:            sampleRate,
			LanguageCode:               opts.Language,
			EnableAutomaticPunctuation: true,
			UseEnhanced:                true,
		},
		Audio: googleRecognitionAudio{
			Content: base64.StdEncoding.EncodeToString(audio),
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

	var response googleRecognizeResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("error unmarshaling response: %w", err)
	}

	// No results means the recognizer heard nothing usable. Reported as a
	// zero-confidence transcript so the caller's confidence gate handles it.
	if len(response.Results) == 0 {
		return &Transcript{Language: opts.Language}, nil
	}

	var text strings.Builder
	for _, result := range response.Results {
		if len(result.Alternatives) == 0 {
			continue
		}
		if text.Len() > 0 {
			text.WriteString(" ")
		}
		text.WriteString(strings.TrimSpace(result.Alternatives[0].Transcript))
	}

	t := &Transcript{
		Text:     text.String(),
		Language: opts.Language,
	}
	if len(response.Results[0].Alternatives) > 0 {
		t.Confidence = response.Results[0].Alternatives[0].Confidence
	}
	if d, err := time.ParseDuration(response.TotalBilledTime); err == nil {
		t.Duration = d.Seconds()
	}
	return t, nil
}

// Google Speech-to-Text API types
type googleRecognizeRequest struct {
	Config googleRecognitionConfig `json:"config"`
	Audio  googleRecognitionAudio  `json:"audio"`
}

type googleRecognitionConfig struct {
	Encoding                   string `json:"encoding"`
	SampleRateHertz            int    `json:"sampleRateHertz"`
	LanguageCode               string `json:"languageCode"`
	EnableAutomaticPunctuation bool   `json:"enableAutomaticPunctuation"`
	UseEnhanced                bool   `json:"useEnhanced"`
}

type googleRecognitionAudio struct {
	Content string `json:"content"`
}

type googleRecognizeResponse struct {
	Results         []googleRecognitionResult `json:"results"`
	TotalBilledTime string                    `json:"totalBilledTime"`
}

type googleRecognitionResult struct {
	Alternatives []googleRecognitionAlternative `json:"alternatives"`
	LanguageCode string                         `json:"languageCode"`
}

type googleRecognitionAlternative struct {
	Transcript string  `json:"transcript"`
	Confidence float64 `json:"confidence"`
}
