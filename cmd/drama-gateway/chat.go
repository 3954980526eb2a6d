// ABOUTME: Interactive chat command for drama-gateway
// ABOUTME: Wires registry, scheduler, dispatcher, and store into a turn loop

package main

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/google/uuid"

	"github.com/coreyalejandro/drama-engine/internal/chat"
	"github.com/coreyalejandro/drama-engine/internal/companion"
	"github.com/coreyalejandro/drama-engine/internal/config"
	"github.com/coreyalejandro/drama-engine/internal/model"
	"github.com/coreyalejandro/drama-engine/internal/scheduler"
	"github.com/coreyalejandro/drama-engine/internal/store"
)

// promptWindow is how many trailing messages a companion reply prompt sees.
const promptWindow = 8

func runChat(ctx context.Context) error {
	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	printBanner(configPath, cfg)
	logger := setupLogger(cfg.Logging)
	log := logger.With("component", "chat-cli")

	registry, err := buildRegistry(cfg)
	if err != nil {
		return err
	}

	username := cfg.Chat.Username
	if username == "" {
		username = "user"
	}

	st, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer func() { _ = st.Close() }()

	var ids []string
	for _, c := range registry.List() {
		ids = append(ids, c.ID)
	}
	if err := st.SeedCompanionCounters(ctx, ids); err != nil {
		return fmt.Errorf("seeding companion counters: %w", err)
	}
	if err := st.SetWorldState(ctx, "USERNAME", username); err != nil {
		return fmt.Errorf("storing username: %w", err)
	}

	dispatcher := model.NewDispatcher(cfg.Backend.BaseURL, cfg.Model, st, logger)
	if cfg.Backend.Path != "" {
		dispatcher.SetPath(cfg.Backend.Path)
	}
	if cfg.Backend.Timeout > 0 {
		dispatcher.SetHTTPClient(&http.Client{Timeout: cfg.Backend.Timeout})
	}
	if cfg.Backend.APIKey != "" {
		key := cfg.Backend.APIKey
		dispatcher.SetRequestOptions(func(req *http.Request) {
			req.Header.Set("Authorization", "Bearer "+key)
		})
	}

	selector := scheduler.NewSelector(registry, dispatcher, logger)
	if cfg.Chat.ModeratorTimeout > 0 {
		selector.SetModeratorTimeout(cfg.Chat.ModeratorTimeout)
	}

	session := chat.New(uuid.New().String(), "conversation", registry.Speakers())
	if cfg.Chat.SpeakerSelection != "" {
		session.SpeakerSelection = chat.SelectionMode(cfg.Chat.SpeakerSelection)
	}
	session.AllowRepeatSpeaker = cfg.Chat.AllowRepeatSpeaker

	user := registry.User()
	log.Info("chat started", "chat_id", session.ID, "companions", len(session.Companions))

	userColor := color.New(color.FgGreen, color.Bold)
	npcColor := color.New(color.FgCyan, color.Bold)
	failColor := color.New(color.FgRed)

	var step int64
	scanner := bufio.NewScanner(os.Stdin)
	userColor.Print(username + "> ")
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			userColor.Print(username + "> ")
			continue
		}

		step++
		session.History.Append(user, line, step)

		decision, err := selector.NextSpeakers(ctx, &scheduler.Request{
			Chat:     session,
			Messages: session.History.Sorted(),
			Username: username,
		})
		if err != nil {
			return fmt.Errorf("selecting speakers: %w", err)
		}

		for _, speaker := range decision {
			if speaker.Config.Kind == companion.KindUser {
				continue
			}

			job := &model.Job{
				ID:     uuid.New().String(),
				Prompt: buildReplyPrompt(speaker, session, username),
				Config: jobConfig(speaker),
				Context: model.JobContext{
					ChatID:      session.ID,
					SituationID: session.Situation,
					RecipientID: speaker.ID,
				},
			}

			resp, err := dispatcher.Dispatch(ctx, job)
			if err != nil {
				// An ordinary companion reply failure is user-visible.
				failColor.Printf("%s could not answer: %v\n", speaker.Config.Name, err)
				continue
			}

			step++
			session.History.Append(speaker, resp.Response, step)
			speaker.Interactions++

			npcColor.Print(speaker.Config.Name + ": ")
			fmt.Println(resp.Response)
		}

		if err := st.LogChat(ctx, session.Record()); err != nil {
			log.Error("failed to log chat", "error", err, "chat_id", session.ID)
		}

		if ctx.Err() != nil {
			break
		}
		userColor.Print(username + "> ")
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading input: %w", err)
	}

	input, output := dispatcher.Usage()
	log.Info("chat ended",
		"chat_id", session.ID,
		"messages", session.History.Len(),
		"input_tokens", input,
		"output_tokens", output,
	)
	return nil
}

// buildRegistry loads personas and guarantees a user participant exists.
func buildRegistry(cfg *config.Config) (*companion.Registry, error) {
	registry := companion.NewRegistry()

	dir := cfg.Personas.Dir
	if dir == "" {
		dir = "personas"
	}
	personas, err := config.LoadPersonas(dir)
	if err != nil {
		return nil, fmt.Errorf("loading personas: %w", err)
	}
	for _, p := range personas {
		if err := registry.Add(companion.New(p)); err != nil {
			return nil, fmt.Errorf("registering companion: %w", err)
		}
	}

	if registry.User() == nil {
		you := companion.New(companion.Config{
			Name:        "You",
			Description: "A guest user in the chatroom.",
			Kind:        companion.KindUser,
		})
		if err := registry.Add(you); err != nil {
			return nil, fmt.Errorf("registering user: %w", err)
		}
	}

	// The moderator shell persona backs the scheduler's LLM fallback.
	if registry.Get(companion.ToID(companion.ModeratorConfig.Name)) == nil {
		if err := registry.Add(companion.New(companion.ModeratorConfig)); err != nil {
			return nil, fmt.Errorf("registering moderator: %w", err)
		}
	}

	return registry, nil
}

// buildReplyPrompt assembles a minimal generation prompt for a companion
// turn: persona base prompt plus the rendered recent exchange.
func buildReplyPrompt(speaker *companion.Companion, session *chat.Chat, username string) string {
	var b strings.Builder
	if speaker.Config.BasePrompt != "" {
		b.WriteString(speaker.Config.BasePrompt)
		b.WriteString("\n\n")
	}

	msgs := session.History.Sorted()
	if len(msgs) > promptWindow {
		msgs = msgs[len(msgs)-promptWindow:]
	}
	for _, msg := range msgs {
		name := msg.Companion.Config.Name
		if msg.Companion.Config.Kind == companion.KindUser {
			name = username
		}
		b.WriteString(name + ": " + strings.TrimSpace(msg.Text) + "\n")
	}

	b.WriteString(speaker.Config.Name + ":")
	return b.String()
}

// jobConfig returns the speaker's per-persona generation overrides, when
// the persona file declares a temperature.
func jobConfig(speaker *companion.Companion) *model.Config {
	raw, ok := speaker.Config.ModelDefaults["temperature"]
	if !ok {
		return nil
	}
	t, ok := raw.(float64)
	if !ok {
		return nil
	}
	return &model.Config{Temperature: &t}
}
