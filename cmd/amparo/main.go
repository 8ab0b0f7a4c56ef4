package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/rx3lixir/amparo/internal/account"
	"github.com/rx3lixir/amparo/internal/alarm"
	"github.com/rx3lixir/amparo/internal/assistant"
	"github.com/rx3lixir/amparo/internal/backend"
	"github.com/rx3lixir/amparo/internal/config"
	"github.com/rx3lixir/amparo/internal/control"
	"github.com/rx3lixir/amparo/internal/emergency"
	"github.com/rx3lixir/amparo/internal/reminder"
	"github.com/rx3lixir/amparo/internal/speech"
	"github.com/rx3lixir/amparo/internal/store"
	"github.com/rx3lixir/amparo/pkg/token"
)

func main() {
	configPath := flag.String("config", "internal/config/config.yaml", "Path to config file")
	flag.Parse()

	// Setting up logger
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportCaller:    false,
		ReportTimestamp: true,
		TimeFormat:      "15:04:05",
		Level:           log.InfoLevel,
	})

	// Secrets (TTS key, control secret) may live in a .env next to
	// the binary; viper picks them up through the environment
	if err := godotenv.Load(); err != nil {
		logger.Debug("No .env file loaded", "error", err)
	}

	// Initializing global context instance
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initializing config manager
	cm, err := config.NewConfigManager(*configPath)
	if err != nil {
		logger.Error("Error getting config file", "error", err)
		os.Exit(1)
	}

	c := cm.GetConfig()

	// Validating configuration
	if err := c.Validate(); err != nil {
		logger.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	logger.Info(
		"Configuration loaded",
		"env", c.GeneralParams.Env,
		"backend", c.BackendParams.BaseURL,
		"control_addr", c.ControlParams.Address,
		"store", c.StoreParams.Path,
	)

	// Opening the identity store
	identity, err := store.OpenIdentity(c.StoreParams.Path)
	if err != nil {
		logger.Error("Failed to open identity store", "error", err)
		os.Exit(1)
	}
	defer identity.Close()

	deviceID, err := identity.GetOrCreateDeviceID()
	if err != nil {
		logger.Error("Failed to resolve device id", "error", err)
		os.Exit(1)
	}
	logger.Info("Device identity ready", "device_id", deviceID, "registered", identity.IsRegistered())

	// Every app run converses under a fresh session
	session := store.NewSession()
	session.StartNew()

	// Backend REST client
	api := backend.NewClient(c.BackendParams.BaseURL, c.BackendParams.GetTimeout(), logger)

	// Local alarm delivery
	notifier := &alarm.ExecNotifier{Command: c.StoreParams.NotifyCommand}
	alarms := alarm.NewScheduler(notifier, logger)
	defer alarms.Close()

	// Reminder repository bound to the device timezone
	reminders := reminder.NewService(api, alarms, deviceID, time.Local, logger)

	// Emergency escalation
	var dialer emergency.Dialer
	if c.EmergencyParams.DialCommand != "" {
		dialer = &emergency.ExecDialer{Command: c.EmergencyParams.DialCommand}
	} else {
		dialer = &emergency.LogDialer{Log: logger}
	}

	sos := emergency.NewController(
		api,
		dialer,
		deviceID,
		c.EmergencyParams.Protocol,
		c.EmergencyParams.GetPollInterval(),
		logger,
	)
	defer sos.Close()

	// Speech output
	player := &speech.ExecPlayer{Command: c.SpeechParams.PlayerCommand}
	speaker := speech.NewSynthesizer(c.SpeechParams, player, logger)

	// Conversation engine
	engine := assistant.NewEngine(api, speaker, sos, session, deviceID, logger)

	// Account flows
	accounts := account.NewService(api, identity, logger)

	// Caregiver control surface
	tokens := token.NewService(c.ControlParams.SecretKey, c.ControlParams.GetTokenTTL())
	controlServer := control.New(c.ControlParams.Address, reminders, sos, identity, tokens, logger)

	go func() {
		if err := controlServer.Start(); err != nil {
			logger.Error("Control server failed", "error", err)
		}
	}()

	// Initial reminder sync; a cold backend just means an empty list
	if err := reminders.Load(ctx); err != nil {
		logger.Warn("Initial reminder sync failed", "error", err)
	}

	// Shutting down on SIGINT/SIGTERM
	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		cancel()
	}()

	app := &App{
		engine:    engine,
		reminders: reminders,
		sos:       sos,
		accounts:  accounts,
		deviceID:  deviceID,
		logger:    logger,
	}
	app.InteractiveMode(ctx)

	// Orderly teardown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := controlServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("Control server shutdown failed", "error", err)
	}

	logger.Info("Goodbye!")
}

// App binds the interactive loop to the core services. The loop is a
// stand-in for the touch screens, which are out of scope here.
type App struct {
	engine    *assistant.Engine
	reminders *reminder.Service
	sos       *emergency.Controller
	accounts  *account.Service
	deviceID  string
	logger    *log.Logger
}

func (a *App) InteractiveMode(ctx context.Context) {
	reader := bufio.NewReader(os.Stdin)

	fmt.Println("\n---- amparo -----")
	fmt.Println("Commands:")
	fmt.Println("say <text>                         - Speak to the assistant (voiced reply)")
	fmt.Println("chat <text>                        - Type to the assistant (silent)")
	fmt.Println("remind list                        - List reminders")
	fmt.Println("remind add <date> <time> <title>   - Create a reminder (YYYY-MM-DD HH:MM)")
	fmt.Println("remind done <id>                   - Mark a reminder done")
	fmt.Println("remind rm <id>                     - Delete a reminder")
	fmt.Println("sos                                - Trigger the emergency flow")
	fmt.Println("sos cancel                         - Stop the local emergency flow")
	fmt.Println("register <name>;<contact>;<phone>  - Register this device")
	fmt.Println("profile                            - Show the health profile")
	fmt.Println("status                             - Show assistant state")
	fmt.Println("quit                               - Exit")
	fmt.Println()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		fmt.Print(">_ ")
		input, err := reader.ReadString('\n')
		if err != nil {
			return
		}

		input = strings.TrimSpace(input)
		parts := strings.Fields(input)

		if len(parts) == 0 {
			continue
		}

		switch parts[0] {
		case "say":
			if len(parts) < 2 {
				fmt.Println("Usage: say <text>")
				continue
			}
			a.say(ctx, strings.Join(parts[1:], " "))

		case "chat":
			if len(parts) < 2 {
				fmt.Println("Usage: chat <text>")
				continue
			}
			a.engine.Send(ctx, strings.Join(parts[1:], " "))
			a.printLastReply()

		case "remind":
			a.handleRemind(ctx, parts[1:])

		case "sos":
			if len(parts) > 1 && parts[1] == "cancel" {
				a.sos.Cancel()
				fmt.Println("Emergency flow stopped")
				continue
			}
			if err := a.sos.TriggerManual(ctx); err != nil {
				fmt.Println("Error triggering emergency:", err)
			} else {
				fmt.Println("Emergency triggered, contacting help...")
			}

		case "register":
			a.handleRegister(ctx, strings.TrimSpace(strings.TrimPrefix(input, "register")))

		case "profile":
			a.handleProfile(ctx, parts[1:])

		case "status":
			state, display := a.engine.State()
			fmt.Printf("State: %s | %s\n", state, display)
			if es := a.sos.Status(); es != nil {
				fmt.Printf("Emergency: %s (contact %s %s)\n", es.Status, es.ContactName, es.ContactPhone)
			}

		case "quit", "exit":
			return

		default:
			fmt.Println("Unknown command:", parts[0])
		}
	}
}

// say runs the voice path: the typed text stands in for a transcript.
func (a *App) say(ctx context.Context, text string) {
	if !a.engine.StartListening() {
		fmt.Println("Assistant is busy, try again in a moment")
		return
	}
	a.engine.Transcript(ctx, text)
	a.printLastReply()
}

func (a *App) printLastReply() {
	messages := a.engine.Messages()
	if len(messages) == 0 {
		return
	}
	last := messages[len(messages)-1]
	if last.Author == assistant.AuthorAssistant {
		fmt.Println(last.Text)
	}
}

func (a *App) handleRemind(ctx context.Context, args []string) {
	if len(args) == 0 {
		args = []string{"list"}
	}

	switch args[0] {
	case "list":
		if err := a.reminders.Load(ctx); err != nil {
			fmt.Println("Error loading reminders:", err)
			return
		}
		all := a.reminders.All()
		if len(all) == 0 {
			fmt.Println("No reminders")
			return
		}
		for _, r := range all {
			fmt.Printf("%s  %s  [%s]  %s\n",
				r.ID,
				a.reminders.DueLocal(r).Format("2006-01-02 15:04"),
				r.Status,
				r.Title,
			)
		}

	case "add":
		if len(args) < 4 {
			fmt.Println("Usage: remind add <YYYY-MM-DD> <HH:MM> <title>")
			return
		}
		due := args[1] + " " + args[2]
		title := strings.Join(args[3:], " ")
		if err := a.reminders.Create(ctx, title, due); err != nil {
			fmt.Println("Error creating reminder:", err)
			return
		}
		fmt.Println("Reminder created")

	case "done":
		if len(args) != 2 {
			fmt.Println("Usage: remind done <id>")
			return
		}
		if err := a.reminders.UpdateStatus(ctx, args[1], backend.StatusDone); err != nil {
			fmt.Println("Error updating reminder:", err)
			return
		}
		fmt.Println("Reminder marked done")

	case "rm":
		if len(args) != 2 {
			fmt.Println("Usage: remind rm <id>")
			return
		}
		if err := a.reminders.Delete(ctx, args[1]); err != nil {
			fmt.Println("Error deleting reminder:", err)
			return
		}
		fmt.Println("Reminder deleted")

	default:
		fmt.Println("Unknown remind command:", args[0])
	}
}

func (a *App) handleRegister(ctx context.Context, rest string) {
	fields := strings.Split(rest, ";")
	if len(fields) != 3 {
		fmt.Println("Usage: register <name>;<contact>;<phone>")
		return
	}

	err := a.accounts.Register(ctx,
		strings.TrimSpace(fields[0]),
		strings.TrimSpace(fields[1]),
		strings.TrimSpace(fields[2]),
	)
	if err != nil {
		fmt.Println("Registration failed:", err)
		return
	}
	fmt.Println("Registration complete")
}

func (a *App) handleProfile(ctx context.Context, args []string) {
	if len(args) == 0 {
		p, err := a.accounts.LoadProfile(ctx, a.deviceID)
		if err != nil {
			fmt.Println("Error loading profile:", err)
			return
		}
		fmt.Println("Notes:      ", strings.Join(p.Notes, ", "))
		fmt.Println("Conditions: ", strings.Join(p.Conditions, ", "))
		fmt.Println("Medications:", strings.Join(p.Medications, ", "))
		return
	}

	if len(args) < 3 {
		fmt.Println("Usage: profile [add|rm] <note|condition|medication> <text>")
		return
	}

	category := args[1]
	text := strings.Join(args[2:], " ")

	var err error
	switch args[0] {
	case "add":
		err = a.accounts.AddProfileItem(ctx, a.deviceID, category, text)
	case "rm":
		err = a.accounts.RemoveProfileItem(ctx, a.deviceID, category, text)
	default:
		fmt.Println("Unknown profile command:", args[0])
		return
	}

	if err != nil {
		fmt.Println("Error updating profile:", err)
		return
	}
	fmt.Println("Profile saved")
}
