package speech

import (
	"fmt"
	"os"
	"os/exec"
	"sync"
)

// Player owns the single audio output. A new Play replaces whatever
// was playing before: only one playback exists at a time.
type Player interface {
	Play(audio []byte) error
}

// ExecPlayer writes the audio to a temp file and hands it to an
// external player binary such as mpg123.
type ExecPlayer struct {
	Command string

	mu      sync.Mutex
	current *exec.Cmd
}

func (p *ExecPlayer) Play(audio []byte) error {
	if p.Command == "" {
		return fmt.Errorf("player command is not configured")
	}

	tmp, err := os.CreateTemp("", "speech-*.mp3")
	if err != nil {
		return fmt.Errorf("failed to create audio file: %w", err)
	}
	if _, err := tmp.Write(audio); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write audio file: %w", err)
	}
	tmp.Close()

	p.mu.Lock()
	defer p.mu.Unlock()

	// Replace any playback still running; its goroutine reaps it
	if p.current != nil && p.current.Process != nil {
		p.current.Process.Kill()
	}

	cmd := exec.Command(p.Command, tmp.Name())
	if err := cmd.Start(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to start player: %w", err)
	}
	p.current = cmd

	go func(path string) {
		cmd.Wait()
		os.Remove(path)
	}(tmp.Name())

	return nil
}
