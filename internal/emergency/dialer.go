package emergency

import (
	"fmt"
	"os/exec"

	"github.com/charmbracelet/log"
)

// ExecDialer shells out to the platform dial command with the contact
// number as its argument.
type ExecDialer struct {
	Command string
}

func (d *ExecDialer) Dial(phone string) error {
	if d.Command == "" {
		return fmt.Errorf("dial command is not configured")
	}

	cmd := exec.Command(d.Command, phone)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("dial command failed: %w", err)
	}
	return nil
}

// LogDialer records call attempts in the log only. Used when the
// device carries no telephony, so escalation still surfaces visibly.
type LogDialer struct {
	Log *log.Logger
}

func (d *LogDialer) Dial(phone string) error {
	d.Log.Warn("Would place emergency call", "phone", phone)
	return nil
}
