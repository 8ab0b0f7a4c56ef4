package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/rx3lixir/amparo/internal/config"
	"github.com/rx3lixir/amparo/pkg/token"
)

// Mints a caregiver access token for the control API from the
// configured secret.
func main() {
	configPath := flag.String("config", "internal/config/config.yaml", "Path to config file")
	name := flag.String("name", "", "Caregiver name to put in the token")
	flag.Parse()

	if *name == "" {
		fmt.Println("Error: caregiver name is required")
		fmt.Println("Usage: token -name MARIA [-config path/to/config.yaml]")
		os.Exit(1)
	}

	godotenv.Load()

	cm, err := config.NewConfigManager(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading config: %v\n", err)
		os.Exit(1)
	}

	c := cm.GetConfig()
	if c.ControlParams.SecretKey == "" {
		fmt.Fprintln(os.Stderr, "Error: control secret_key is not configured")
		os.Exit(1)
	}

	svc := token.NewService(c.ControlParams.SecretKey, c.ControlParams.GetTokenTTL())

	tok, err := svc.Generate(*name)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error generating token: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("✓ Token for %s (valid %s):\n", *name, c.ControlParams.GetTokenTTL())
	fmt.Println(tok)
}
