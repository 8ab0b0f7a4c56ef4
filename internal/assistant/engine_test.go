package assistant

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/rx3lixir/amparo/internal/backend"
)

type fakeChat struct {
	resp *backend.ChatResponse
	err  error
	got  backend.ChatRequest
}

func (f *fakeChat) Chat(ctx context.Context, req backend.ChatRequest) (*backend.ChatResponse, error) {
	f.got = req
	return f.resp, f.err
}

type fakeSpeaker struct {
	spoken []string
	err    error
}

func (f *fakeSpeaker) Speak(ctx context.Context, text string) error {
	f.spoken = append(f.spoken, text)
	return f.err
}

type fakeEscalator struct {
	started int
}

func (f *fakeEscalator) StartPolling() {
	f.started++
}

type fixedSession struct{}

func (fixedSession) ID() string { return "sess-1" }

func testLogger() *log.Logger {
	return log.New(io.Discard)
}

func newTestEngine(chat Chat, speaker Speaker, esc Escalator) *Engine {
	return NewEngine(chat, speaker, esc, fixedSession{}, "dev-1", testLogger())
}

func TestStartsRespondingWithWelcome(t *testing.T) {
	e := newTestEngine(&fakeChat{}, nil, nil)

	state, display := e.State()
	if state != StateResponding {
		t.Fatalf("initial state must be responding, got %s", state)
	}
	if display == "" {
		t.Fatal("welcome text missing")
	}

	msgs := e.Messages()
	if len(msgs) != 1 || msgs[0].Author != AuthorAssistant {
		t.Fatalf("log must open with the assistant welcome, got %+v", msgs)
	}
}

func TestListeningOnlyFromResponding(t *testing.T) {
	e := newTestEngine(&fakeChat{}, nil, nil)

	if !e.StartListening() {
		t.Fatal("listening must be allowed from responding")
	}
	if e.StartListening() {
		t.Fatal("listening must be rejected while already listening")
	}
}

func TestVoiceEmergencyReply(t *testing.T) {
	chat := &fakeChat{resp: &backend.ChatResponse{Reply: "Vale, te ayudo", Emergency: true}}
	speaker := &fakeSpeaker{}
	esc := &fakeEscalator{}
	e := newTestEngine(chat, speaker, esc)

	e.StartListening()
	e.Transcript(context.Background(), "  me   duele el pecho ")

	if chat.got.Text != "me duele el pecho" {
		t.Fatalf("transcript not cleaned: %q", chat.got.Text)
	}
	if chat.got.DeviceID != "dev-1" || chat.got.SessionID != "sess-1" {
		t.Fatalf("request identity wrong: %+v", chat.got)
	}

	msgs := e.Messages()
	last := msgs[len(msgs)-1]
	if last.Text != "Vale, te ayudo" || last.Author != AuthorAssistant {
		t.Fatalf("assistant reply missing from log: %+v", last)
	}

	if esc.started != 1 {
		t.Fatalf("escalation must start once, got %d", esc.started)
	}

	state, display := e.State()
	if state != StateResponding {
		t.Fatalf("exchange must land in responding, got %s", state)
	}
	want := "¡Emergencia detectada! Vale, te ayudo"
	if display != want {
		t.Fatalf("display = %q, want %q", display, want)
	}
	if len(speaker.spoken) != 1 || speaker.spoken[0] != want {
		t.Fatalf("spoken = %v, want %q", speaker.spoken, want)
	}
}

func TestTypedChatIsSilent(t *testing.T) {
	chat := &fakeChat{resp: &backend.ChatResponse{Reply: "Hola"}}
	speaker := &fakeSpeaker{}
	e := newTestEngine(chat, speaker, nil)

	e.Send(context.Background(), "buenos dias")

	if len(speaker.spoken) != 0 {
		t.Fatalf("typed chat must not be spoken: %v", speaker.spoken)
	}

	state, _ := e.State()
	if state != StateResponding {
		t.Fatalf("typed chat must not move the voice state, got %s", state)
	}

	msgs := e.Messages()
	if len(msgs) != 3 {
		t.Fatalf("expected welcome + user + reply, got %d messages", len(msgs))
	}
	if msgs[1].Author != AuthorUser || msgs[2].Text != "Hola" {
		t.Fatalf("log order wrong: %+v", msgs)
	}
}

func TestChatFailureAppendsOfflineMessage(t *testing.T) {
	chat := &fakeChat{err: errors.New("connection refused")}
	speaker := &fakeSpeaker{}
	e := newTestEngine(chat, speaker, nil)

	e.StartListening()
	e.Transcript(context.Background(), "hola")

	msgs := e.Messages()
	last := msgs[len(msgs)-1]
	if last.Author != AuthorAssistant || last.Text == "" {
		t.Fatalf("failure must append an assistant message, got %+v", last)
	}

	state, _ := e.State()
	if state != StateResponding {
		t.Fatalf("failure must still land in responding, got %s", state)
	}
	if len(speaker.spoken) != 1 {
		t.Fatalf("failure message must be spoken on the voice path, got %v", speaker.spoken)
	}
}

func TestRecognitionErrorPaths(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		rawText string
	}{
		{name: "no match error", err: ErrNoMatch},
		{name: "recognizer failure", err: errors.New("audio device busy")},
		{name: "empty transcript", rawText: "   "},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			speaker := &fakeSpeaker{}
			e := newTestEngine(&fakeChat{}, speaker, nil)

			e.StartListening()
			if tc.err != nil {
				e.RecognitionError(context.Background(), errors.Is(tc.err, ErrNoMatch))
			} else {
				e.Transcript(context.Background(), tc.rawText)
			}

			state, display := e.State()
			if state != StateResponding {
				t.Fatalf("error must resolve to responding, got %s", state)
			}
			if display == "" {
				t.Fatal("error display text missing")
			}
			if len(speaker.spoken) != 1 {
				t.Fatalf("error message must be spoken, got %v", speaker.spoken)
			}
		})
	}
}

func TestCaptureRunsRecognizer(t *testing.T) {
	chat := &fakeChat{resp: &backend.ChatResponse{Reply: "Claro"}}
	e := newTestEngine(chat, &fakeSpeaker{}, nil)

	e.Capture(context.Background(), recognizerFunc(func(ctx context.Context) (string, error) {
		return "que hora es", nil
	}))

	if chat.got.Text != "que hora es" {
		t.Fatalf("capture did not reach the backend: %q", chat.got.Text)
	}
}

type recognizerFunc func(ctx context.Context) (string, error)

func (f recognizerFunc) Listen(ctx context.Context) (string, error) {
	return f(ctx)
}

func TestCleanTranscription(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"  hola  ", "hola"},
		{"me   duele\tel  pecho", "me duele el pecho"},
		{"", ""},
		{"   ", ""},
	}
	for _, tc := range tests {
		if got := cleanTranscription(tc.in); got != tc.want {
			t.Errorf("cleanTranscription(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
