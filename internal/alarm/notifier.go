package alarm

import (
	"fmt"
	"os/exec"
)

// ExecNotifier shells out to a desktop notification command such as
// notify-send. The alert is marked critical so it stays up and keeps
// sounding until the user dismisses it.
type ExecNotifier struct {
	Command string
}

func (n *ExecNotifier) Notify(title, message string) error {
	if n.Command == "" {
		return fmt.Errorf("notify command is not configured")
	}

	cmd := exec.Command(n.Command, "--urgency=critical", title, message)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("notify command failed: %w", err)
	}
	return nil
}
