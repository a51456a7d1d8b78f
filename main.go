package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/subosito/gotenv"
	"go.uber.org/zap"

	"github.com/atlas-vision/backend/adapters/hasher"
	httpadapter "github.com/atlas-vision/backend/adapters/http"
	"github.com/atlas-vision/backend/adapters/llm"
	"github.com/atlas-vision/backend/adapters/speech"
	"github.com/atlas-vision/backend/adapters/tts"
	"github.com/atlas-vision/backend/adapters/vision"
	"github.com/atlas-vision/backend/adapters/websocket"
	"github.com/atlas-vision/backend/domain"
	"github.com/atlas-vision/backend/usecase"
	"github.com/atlas-vision/backend/utils/config"
	"github.com/atlas-vision/backend/utils/log"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	_ = gotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.Debug {
		if dev, err := zap.NewDevelopment(); err == nil {
			log.Set(dev)
		}
	}
	logger := log.L()
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()

	classifier := vision.NewCustomVisionClient(
		cfg.Vision.Endpoint,
		cfg.Vision.PredictionKey,
		cfg.Vision.ProjectID,
		cfg.Vision.Iteration,
		cfg.Vision.Timeout,
	)

	var primary, secondary domain.Llm
	if cfg.Gemini.Enabled() {
		primary, err = llm.NewGeminiClient(ctx, cfg.Gemini.APIKey, cfg.Gemini.Model, cfg.LLMTimeout)
		if err != nil {
			logger.Warn("Gemini disabled", zap.Error(err))
			primary = nil
		}
	} else {
		logger.Warn("GEMINI_API_KEY not set, primary provider disabled")
	}
	if cfg.Mistral.Enabled() {
		secondary = llm.NewMistralClient(cfg.Mistral.APIKey, cfg.Mistral.BaseURL, cfg.Mistral.Model, cfg.LLMTimeout)
	} else {
		logger.Warn("MISTRAL_API_KEY not set, secondary provider disabled")
	}

	generator := usecase.NewFallbackGenerator(primary, secondary, cfg.LLMTimeout)
	landmarks := usecase.NewLandmarkService(classifier, generator, hasher.New(16), cfg.DefaultLanguage)
	chat := usecase.NewChatService(generator)

	var (
		transcriber domain.Transcriber
		narrator    domain.Narrator
		closers     []func() error
	)
	if cfg.VoiceEnabled {
		t, closeSpeech, err := speech.NewGoogleSpeech(ctx)
		if err != nil {
			return fmt.Errorf("failed to initialize speech: %w", err)
		}
		n, closeTTS, err := tts.NewGoogleTTS(ctx)
		if err != nil {
			_ = closeSpeech()
			return fmt.Errorf("failed to initialize tts: %w", err)
		}
		transcriber, narrator = t, n
		closers = append(closers, closeSpeech, closeTTS)
	}
	voice := usecase.NewVoiceService(chat, transcriber, narrator, cfg.DefaultLanguage)

	wsServer := websocket.NewServer(chat)
	handler := httpadapter.NewLandmarkHandler(landmarks, chat, voice, wsServer.Hub(), httpadapter.ProviderStatus{
		Gemini:  primary != nil,
		Mistral: secondary != nil,
	})
	e := httpadapter.NewRouter(handler, wsServer.Handler)

	srv := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           e,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("Starting server",
			zap.String("address", srv.Addr),
			zap.Bool("gemini", primary != nil),
			zap.Bool("mistral", secondary != nil),
			zap.Bool("voice", voice.Enabled()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	wsServer.Hub().CloseAll()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}
	for _, closeFn := range closers {
		_ = closeFn()
	}

	logger.Info("Server exited")
	return nil
}
