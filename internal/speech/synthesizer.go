package speech

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/rx3lixir/amparo/internal/config"
)

type synthesisRequest struct {
	Input       synthesisInput `json:"input"`
	Voice       voiceParams    `json:"voice"`
	AudioConfig audioConfig    `json:"audioConfig"`
}

type synthesisInput struct {
	Text string `json:"text"`
}

type voiceParams struct {
	LanguageCode string `json:"languageCode"`
	Name         string `json:"name"`
}

type audioConfig struct {
	AudioEncoding string `json:"audioEncoding"`
}

type synthesisResponse struct {
	AudioContent string `json:"audioContent"`
}

// Synthesizer sends text to the cloud text-to-speech service and
// plays the decoded audio locally. Synthesis and playback failures
// are reported to the caller, never fatal to the conversation flow.
type Synthesizer struct {
	params config.SpeechParams
	player Player
	http   *http.Client
	log    *log.Logger
}

func NewSynthesizer(params config.SpeechParams, player Player, logger *log.Logger) *Synthesizer {
	return &Synthesizer{
		params: params,
		player: player,
		http:   &http.Client{Timeout: 15 * time.Second},
		log:    logger,
	}
}

// Speak synthesizes text and hands the decoded audio to the player.
func (s *Synthesizer) Speak(ctx context.Context, text string) error {
	body := synthesisRequest{
		Input: synthesisInput{Text: text},
		Voice: voiceParams{
			LanguageCode: s.params.LanguageCode,
			Name:         s.params.VoiceName,
		},
		AudioConfig: audioConfig{AudioEncoding: s.params.AudioEncoding},
	}

	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal synthesis request: %w", err)
	}

	endpoint := s.params.Endpoint + "?key=" + s.params.APIKey

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to build synthesis request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.http.Do(req)
	if err != nil {
		return fmt.Errorf("synthesis request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("synthesis service returned %d: %s",
			resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	var out synthesisResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return fmt.Errorf("failed to decode synthesis response: %w", err)
	}

	audio, err := base64.StdEncoding.DecodeString(out.AudioContent)
	if err != nil {
		return fmt.Errorf("failed to decode audio content: %w", err)
	}

	s.log.Debug("Speech synthesized", "chars", len(text), "bytes", len(audio))

	if err := s.player.Play(audio); err != nil {
		return fmt.Errorf("failed to play audio: %w", err)
	}
	return nil
}
