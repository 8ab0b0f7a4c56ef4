package assistant

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/rx3lixir/amparo/internal/backend"
)

// State is the voice screen state. Responding doubles as the idle
// state: it shows the welcome text on start and is where every
// interaction, successful or not, lands.
type State int

const (
	StateResponding State = iota
	StateListening
	StateThinking
)

func (s State) String() string {
	switch s {
	case StateListening:
		return "listening"
	case StateThinking:
		return "thinking"
	default:
		return "responding"
	}
}

const (
	AuthorUser      = "user"
	AuthorAssistant = "assistant"
)

// Message is one entry in the session-scoped conversation log. The
// log is append-only and never outlives the process.
type Message struct {
	Text   string
	Author string
	At     time.Time
}

// User-facing lines the flow depends on.
const (
	welcomeText     = "Hola, ¿en qué puedo ayudarte?"
	listeningText   = "Escuchando..."
	thinkingText    = "Pensando..."
	noMatchText     = "No te he entendido. Toca para reintentar."
	recognizerText  = "Hubo un error con el reconocimiento de voz."
	offlineText     = "No se pudo conectar con el asistente."
	synthesisText   = "Error al generar la voz."
	emergencyPrefix = "¡Emergencia detectada! "
)

// ErrNoMatch is reported by a Recognizer when speech was captured but
// nothing could be transcribed.
var ErrNoMatch = errors.New("no speech matched")

// Recognizer captures one utterance and returns its transcript.
type Recognizer interface {
	Listen(ctx context.Context) (string, error)
}

// Chat is the backend conversation endpoint.
type Chat interface {
	Chat(ctx context.Context, req backend.ChatRequest) (*backend.ChatResponse, error)
}

// Speaker voices assistant replies for voice-originated exchanges.
type Speaker interface {
	Speak(ctx context.Context, text string) error
}

// Escalator starts the emergency escalation when a reply flags one.
type Escalator interface {
	StartPolling()
}

// SessionSource supplies the conversation session id.
type SessionSource interface {
	ID() string
}

// Engine turns utterances into backend chat exchanges. Voice turns
// run the Listening/Thinking/Responding machine and are spoken back;
// typed turns reuse the same call path silently, touching only the
// message log.
type Engine struct {
	api      Chat
	speaker  Speaker
	escalate Escalator
	session  SessionSource
	deviceID string
	log      *log.Logger

	mu       sync.Mutex
	state    State
	display  string
	messages []Message
}

func NewEngine(api Chat, speaker Speaker, escalate Escalator, session SessionSource, deviceID string, logger *log.Logger) *Engine {
	e := &Engine{
		api:      api,
		speaker:  speaker,
		escalate: escalate,
		session:  session,
		deviceID: deviceID,
		log:      logger,
		state:    StateResponding,
		display:  welcomeText,
	}
	e.append(welcomeText, AuthorAssistant)
	return e
}

// StartListening moves to the listening state. Capture is only
// permitted while responding: an exchange in flight cannot be
// interrupted by a new one.
func (e *Engine) StartListening() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != StateResponding {
		return false
	}
	e.state = StateListening
	e.display = listeningText
	return true
}

// Capture runs one voice exchange end to end: gate on the responding
// state, listen, then either process the transcript or surface the
// recognition error.
func (e *Engine) Capture(ctx context.Context, rec Recognizer) {
	if !e.StartListening() {
		return
	}

	text, err := rec.Listen(ctx)
	if err != nil {
		e.RecognitionError(ctx, errors.Is(err, ErrNoMatch))
		return
	}
	e.Transcript(ctx, text)
}

// Transcript feeds a recognizer result into the machine. An empty
// transcript follows the no-match path.
func (e *Engine) Transcript(ctx context.Context, raw string) {
	text := cleanTranscription(raw)
	if text == "" {
		e.RecognitionError(ctx, true)
		return
	}
	e.process(ctx, text, true)
}

// RecognitionError resolves a failed capture: back to responding with
// a fixed message, spoken aloud.
func (e *Engine) RecognitionError(ctx context.Context, noMatch bool) {
	msg := recognizerText
	if noMatch {
		msg = noMatchText
	}

	e.setState(StateResponding, msg)
	e.speak(ctx, msg)
}

// Send runs a typed chat message through the backend without touching
// the voice state machine or speech output.
func (e *Engine) Send(ctx context.Context, text string) {
	text = cleanTranscription(text)
	if text == "" {
		return
	}
	e.process(ctx, text, false)
}

func (e *Engine) process(ctx context.Context, text string, spoken bool) {
	e.append(text, AuthorUser)
	if spoken {
		e.setState(StateThinking, thinkingText)
	}

	resp, err := e.api.Chat(ctx, backend.ChatRequest{
		Text:      text,
		DeviceID:  e.deviceID,
		SessionID: e.session.ID(),
	})
	if err != nil {
		e.log.Error("Chat request failed", "error", err)
		e.append(offlineText, AuthorAssistant)
		if spoken {
			e.setState(StateResponding, offlineText)
			e.speak(ctx, offlineText)
		}
		return
	}

	e.append(resp.Reply, AuthorAssistant)

	if resp.Emergency && e.escalate != nil {
		e.log.Warn("Chat reply flagged an emergency, starting escalation")
		e.escalate.StartPolling()
	}

	if spoken {
		out := resp.Reply
		if resp.Emergency {
			out = emergencyPrefix + out
		}
		e.setState(StateResponding, out)
		e.speak(ctx, out)
	}
}

func (e *Engine) speak(ctx context.Context, text string) {
	if e.speaker == nil {
		return
	}
	if err := e.speaker.Speak(ctx, text); err != nil {
		e.log.Error("Speech output failed", "error", err)
		e.setState(StateResponding, synthesisText)
	}
}

// State returns the current voice state and display text.
func (e *Engine) State() (State, string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state, e.display
}

// Messages returns a copy of the conversation log.
func (e *Engine) Messages() []Message {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]Message, len(e.messages))
	copy(out, e.messages)
	return out
}

func (e *Engine) setState(state State, display string) {
	e.mu.Lock()
	e.state = state
	e.display = display
	e.mu.Unlock()
}

func (e *Engine) append(text, author string) {
	e.mu.Lock()
	e.messages = append(e.messages, Message{Text: text, Author: author, At: time.Now()})
	e.mu.Unlock()
}

// cleanTranscription trims and collapses internal whitespace.
func cleanTranscription(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
