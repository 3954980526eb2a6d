// ABOUTME: Export command - prints a stored chat transcript
// ABOUTME: Markdown by default, HTML with --html

package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/coreyalejandro/drama-engine/internal/config"
	"github.com/coreyalejandro/drama-engine/internal/store"
	"github.com/coreyalejandro/drama-engine/internal/transcript"
)

func runExport(ctx context.Context) error {
	var chatID string
	var asHTML bool
	for _, arg := range argsAfterCommand() {
		switch {
		case arg == "--html":
			asHTML = true
		case chatID == "":
			chatID = arg
		default:
			return fmt.Errorf("unexpected argument: %s", arg)
		}
	}
	if chatID == "" {
		return fmt.Errorf("usage: drama-gateway export <chat-id> [--html]")
	}

	cfg, err := config.Load(getConfigPath())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	st, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer func() { _ = st.Close() }()

	rec, err := st.GetChat(ctx, chatID)
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("chat %q not found", chatID)
	}
	if err != nil {
		return fmt.Errorf("reading chat: %w", err)
	}

	if asHTML {
		html, err := transcript.RenderHTML(rec)
		if err != nil {
			return err
		}
		fmt.Print(html)
		return nil
	}

	fmt.Print(transcript.Render(rec))
	return nil
}
