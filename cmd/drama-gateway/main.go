// ABOUTME: Entry point for the drama-gateway CLI
// ABOUTME: Drives multi-companion chats against a remote generation backend

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/fatih/color"

	"github.com/coreyalejandro/drama-engine/internal/config"
)

// Version is set by goreleaser at build time.
var version = "dev"

const banner = `
     _                                                  _
  __| |_ __ __ _ _ __ ___   __ _        ___ _ __   __ _(_)_ __   ___
 / _' | '__/ _' | '_ ' _ \ / _' |_____ / _ \ '_ \ / _' | | '_ \ / _ \
| (_| | | | (_| | | | | | | (_| |_____|  __/ | | | (_| | | | | |  __/
 \__,_|_|  \__,_|_| |_| |_|\__,_|      \___|_| |_|\__, |_|_| |_|\___|
                                                  |___/
`

// getConfigPath returns the path to the gateway config file.
// Priority: DRAMA_CONFIG env var > XDG_CONFIG_HOME/drama/gateway.yaml > ~/.config/drama/gateway.yaml
func getConfigPath() string {
	if envPath := os.Getenv("DRAMA_CONFIG"); envPath != "" {
		return envPath
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "gateway.yaml" // fallback
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configDir, "drama", "gateway.yaml")
}

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: drama-gateway <command>")
		fmt.Println()
		fmt.Println("Commands:")
		fmt.Println("  chat               Run an interactive chat session")
		fmt.Println("  export <chat-id>   Export a stored chat transcript (markdown or --html)")
		fmt.Println("  health             Check backend reachability")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var err error
	switch os.Args[1] {
	case "chat":
		err = runChat(ctx)
	case "export":
		err = runExport(ctx)
	case "health":
		err = runHealth(ctx)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func argsAfterCommand() []string {
	if len(os.Args) <= 2 {
		return nil
	}
	return os.Args[2:]
}

func runHealth(ctx context.Context) error {
	cfg, err := config.Load(getConfigPath())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, cfg.Backend.BaseURL, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return fmt.Errorf("unhealthy: status %d", resp.StatusCode)
	}

	fmt.Println("healthy")
	return nil
}

func printBanner(configPath string, cfg *config.Config) {
	cyan := color.New(color.FgCyan)
	cyan.Print(banner)

	gray := color.New(color.FgHiBlack)
	gray.Printf("    version: %s\n\n", version)

	green := color.New(color.FgGreen)
	green.Print("    ▶ ")
	fmt.Printf("Config:   %s\n", configPath)
	green.Print("    ▶ ")
	fmt.Printf("Backend:  %s\n", cfg.Backend.BaseURL)
	green.Print("    ▶ ")
	fmt.Printf("Database: %s\n", cfg.Database.Path)
	fmt.Println()
}
