package stt

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// audio is streamed in ~128ms slices of 16kHz 16-bit mono
const streamChunkBytes = 4096

// StreamProvider implements the Provider interface against a websocket
// recognizer. It streams the recording in binary frames and collects final
// transcript messages, which suits recordings near the duration limit better
// than a single blocking upload.
type StreamProvider struct {
	apiKey string
	wsURL  string
}

// NewStream creates a streaming STT provider for the given websocket URL.
// STREAM_STT_API_KEY is optional; self-hosted recognizers often run without
// authentication.
func NewStream(wsURL string) *StreamProvider {
	return &StreamProvider{
		apiKey: os.Getenv("STREAM_STT_API_KEY"),
		wsURL:  wsURL,
	}
}

func (s *StreamProvider) Name() string {
	return "stream"
}

func (s *StreamProvider) Transcribe(ctx context.Context, audio []byte, opts TranscribeOptions) (*Transcript, error) {
	sess, err := s.dial(ctx, opts)
	if err != nil {
		return nil, err
	}
	defer sess.Close()

	for off := 0; off < len(audio); off += streamChunkBytes {
		end := off + streamChunkBytes
		if end > len(audio) {
			end = len(audio)
		}
		if err := sess.SendAudio(audio[off:end]); err != nil {
			return nil, fmt.Errorf("send audio: %w", err)
		}
	}
	if err := sess.Finalize(); err != nil {
		return nil, fmt.Errorf("finalize: %w", err)
	}

	var text strings.Builder
	var confidence, duration float64
	for delta := range sess.Transcripts() {
		if !delta.IsFinal {
			continue
		}
		if text.Len() > 0 {
			text.WriteString(" ")
		}
		text.WriteString(strings.TrimSpace(delta.Text))
		confidence = delta.Confidence
		if delta.Duration > 0 {
			duration = delta.Duration
		}
	}
	if err := sess.Err(); err != nil {
		return nil, err
	}

	return &Transcript{
		Text:       text.String(),
		Language:   opts.Language,
		Confidence: confidence,
		Duration:   duration,
	}, nil
}

func (s *StreamProvider) dial(ctx context.Context, opts TranscribeOptions) (*streamSession, error) {
	u, err := url.Parse(s.wsURL)
	if err != nil {
		return nil, fmt.Errorf("parse websocket URL: %w", err)
	}

	q := u.Query()
	language := opts.Language
	if language == "" {
		language = "en-IN"
	}
	q.Set("language", language)
	q.Set("encoding", "pcm_s16le")

	sampleRate := opts.SampleRate
	if sampleRate == 0 {
		sampleRate = 16000
	}
	q.Set("sample_rate", fmt.Sprintf("%d", sampleRate))
	u.RawQuery = q.Encode()

	headers := http.Header{}
	if s.apiKey != "" {
		headers.Set("X-API-Key", s.apiKey)
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	conn, resp, err := dialer.DialContext(ctx, u.String(), headers)
	if err != nil {
		if resp != nil {
			defer resp.Body.Close()
			body, _ := io.ReadAll(resp.Body)
			if len(body) > 0 {
				return nil, fmt.Errorf("websocket connect (status %d): %s", resp.StatusCode, string(body))
			}
			return nil, fmt.Errorf("websocket connect: status %d: %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("websocket connect: %w", err)
	}

	sess := &streamSession{
		conn:        conn,
		transcripts: make(chan transcriptDelta, 100),
		done:        make(chan struct{}),
	}
	go sess.readLoop()
	return sess, nil
}

// streamSession is one websocket recognition exchange.
type streamSession struct {
	conn        *websocket.Conn
	transcripts chan transcriptDelta
	done        chan struct{}
	closed      atomic.Bool
	writeMu     sync.Mutex
	errMu       sync.Mutex
	err         error
}

type transcriptDelta struct {
	Text       string
	IsFinal    bool
	Confidence float64
	Duration   float64
}

func (s *streamSession) readLoop() {
	defer func() {
		close(s.transcripts)
		close(s.done)
	}()

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) && !s.closed.Load() {
				s.setErr(err)
			}
			return
		}

		var msg streamMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}

		switch msg.Type {
		case "transcript":
			delta := transcriptDelta{
				Text:       msg.Text,
				IsFinal:    msg.IsFinal,
				Confidence: msg.Confidence,
				Duration:   msg.Duration,
			}
			select {
			case s.transcripts <- delta:
			case <-s.done:
				return
			}

		case "flush_done":
			// acknowledgment of finalize
			continue

		case "done":
			return

		case "error":
			s.setErr(fmt.Errorf("recognizer error: %s", msg.Error))
			return
		}
	}
}

type streamMessage struct {
	Type       string  `json:"type"` // "transcript", "flush_done", "done", "error"
	Text       string  `json:"text"`
	IsFinal    bool    `json:"is_final"`
	Confidence float64 `json:"confidence"`
	Duration   float64 `json:"duration"`
	Error      string  `json:"error"`
}

// SendAudio sends one binary frame of pcm_s16le audio.
func (s *streamSession) SendAudio(data []byte) error {
	if s.closed.Load() {
		return fmt.Errorf("session closed")
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.conn.WriteMessage(websocket.BinaryMessage, data)
}

// Finalize flushes remaining audio and signals end of input.
func (s *streamSession) Finalize() error {
	if s.closed.Load() {
		return fmt.Errorf("session closed")
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.conn.WriteMessage(websocket.TextMessage, []byte("finalize"))
}

// Transcripts returns the channel of transcript deltas. It is closed when
// the recognizer finishes or the connection drops.
func (s *streamSession) Transcripts() <-chan transcriptDelta {
	return s.transcripts
}

func (s *streamSession) Err() error {
	s.errMu.Lock()
	defer s.errMu.Unlock()
	return s.err
}

func (s *streamSession) setErr(err error) {
	s.errMu.Lock()
	if s.err == nil {
		s.err = err
	}
	s.errMu.Unlock()
}

func (s *streamSession) Close() error {
	if s.closed.Swap(true) {
		return nil
	}

	s.writeMu.Lock()
	s.conn.WriteMessage(websocket.TextMessage, []byte("done"))
	s.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	s.writeMu.Unlock()

	return s.conn.Close()
}
