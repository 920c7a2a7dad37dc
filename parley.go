// Package parley is a client library for AI conversations in three modes:
// text chat grounded in curated documentation URLs, text chat grounded in
// web search, and a live bidirectional voice conversation. A small local
// knowledge base supplies the grounding material for the first and third
// modes. The host application owns the UI and wires these pieces to it.
package parley

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/parleygo/parley/pkg/capture"
	"github.com/parleygo/parley/pkg/chat"
	"github.com/parleygo/parley/pkg/config"
	"github.com/parleygo/parley/pkg/kb"
	"github.com/parleygo/parley/pkg/voice"
)

// App bundles the configured clients and the knowledge base.
type App struct {
	Config    config.Config
	Log       zerolog.Logger
	Knowledge *kb.Store
	Chat      *chat.Client
}

// New builds an App from configuration: it opens the knowledge base and the
// text-chat client. Voice sessions are created separately through
// NewVoiceController because they hold audio hardware.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	log := newLogger(cfg.Logging)

	store, err := kb.Open(cfg.Knowledge.StorePath, log)
	if err != nil {
		return nil, err
	}

	chatClient, err := chat.NewClient(ctx, cfg.APIKey, cfg.Chat.Model, log)
	if err != nil {
		store.Close()
		return nil, err
	}

	return &App{
		Config:    cfg,
		Log:       log,
		Knowledge: store,
		Chat:      chatClient,
	}, nil
}

// Close releases the App's resources. Voice controllers created from this
// App must be stopped by the host first.
func (a *App) Close() error {
	return a.Knowledge.Close()
}

// NewVoiceController creates a voice session controller bound to this App's
// knowledge base. It initializes the microphone backend; the speaker and the
// live connection are acquired per session by Start.
func (a *App) NewVoiceController(onMessage func(voice.Message)) (*voice.Controller, error) {
	captureCtx, err := capture.NewContext()
	if err != nil {
		return nil, fmt.Errorf("init capture backend: %w", err)
	}
	return voice.NewController(
		voice.Config{
			APIKey:       a.Config.APIKey,
			Model:        a.Config.Voice.Model,
			VoiceName:    a.Config.Voice.VoiceName,
			Endpoint:     a.Config.Voice.Endpoint,
			SystemPrompt: a.Config.Voice.SystemPrompt,
			Logger:       a.Log,
		},
		voice.Deps{
			Capture:   captureCtx,
			Knowledge: a.Knowledge,
		},
		onMessage,
	), nil
}

// AskDocs answers a question grounded in the active knowledge selection.
func (a *App) AskDocs(ctx context.Context, question string) (chat.Answer, error) {
	kc, err := a.Knowledge.ActiveContext(ctx)
	if err != nil {
		return chat.Answer{}, err
	}
	return a.Chat.AskDocs(ctx, question, kc)
}

// AskSearch answers a question grounded in web search.
func (a *App) AskSearch(ctx context.Context, question string) (chat.Answer, error) {
	return a.Chat.AskSearch(ctx, question)
}

func newLogger(cfg config.LoggingConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	if cfg.Pretty {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger()
}
