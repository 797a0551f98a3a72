package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SaiNageswarS/go-api-boot/config"
	"github.com/SaiNageswarS/go-api-boot/dotenv"
	"github.com/SaiNageswarS/go-api-boot/logger"
	"github.com/SaiNageswarS/vidya-core/appconfig"
	"github.com/SaiNageswarS/vidya-core/cache"
	"github.com/SaiNageswarS/vidya-core/contentdb"
	"github.com/SaiNageswarS/vidya-core/generator"
	"github.com/SaiNageswarS/vidya-core/llm"
	"github.com/SaiNageswarS/vidya-core/pipeline"
	"github.com/SaiNageswarS/vidya-core/search"
	"github.com/SaiNageswarS/vidya-core/session"
	"github.com/SaiNageswarS/vidya-core/speech"
	"github.com/SaiNageswarS/vidya-core/speech/stt"
	"github.com/SaiNageswarS/vidya-core/speech/tts"
	"github.com/SaiNageswarS/vidya-core/web"
	"github.com/ollama/ollama/api"
	"go.uber.org/zap"
)

func main() {
	dotenv.LoadEnv()

	// load config file
	ccfg := &appconfig.AppConfig{}
	if err := config.LoadConfig("config.ini", ccfg); err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}
	if err := ccfg.Validate(); err != nil {
		logger.Fatal("Invalid config", zap.Error(err))
	}

	chunks, err := contentdb.LoadSnapshot(ccfg.SnapshotPath)
	if err != nil {
		logger.Fatal("Failed to load content snapshot", zap.Error(err))
	}
	logger.Info("content snapshot loaded",
		zap.String("path", ccfg.SnapshotPath),
		zap.Int("chunks", len(chunks)))

	index, err := search.NewIndex(chunks)
	if err != nil {
		logger.Fatal("Failed to build content index", zap.Error(err))
	}

	ollamaClient, err := api.ClientFromEnvironment()
	if err != nil {
		logger.Fatal("Failed to create Ollama client", zap.Error(err))
	}
	retriever := search.NewRetriever(search.NewOllamaEmbedder(ollamaClient), index,
		ccfg.RetrievalTopK, ccfg.RetrievalMinSimilarity, search.DefaultRetrieveTimeout)

	var llmClient llm.LLMClient
	switch ccfg.LLMProvider {
	case "openai":
		llmClient = llm.NewOpenAIClient(ccfg.LLMModel)
	case "anthropic":
		llmClient = llm.NewAnthropicClient(ccfg.LLMModel)
	default:
		llmClient = llm.NewGeminiClient(ccfg.LLMModel)
	}
	answerGen := generator.NewGenerator(llmClient, generator.DefaultTimeout)

	var sttProvider stt.Provider
	if ccfg.STTProvider == "stream" {
		sttProvider = stt.NewStream(ccfg.SpeechWSURL)
	} else {
		sttProvider = stt.NewGoogle()
	}
	gateway := speech.NewGateway(sttProvider, tts.NewGoogle(),
		speech.DefaultSTTTimeout, speech.DefaultTTSTimeout)

	answers := cache.NewStore(ccfg.AnswerCacheTTL(), ccfg.AudioCacheTTL())
	seeded, err := answers.SeedDemo()
	if err != nil {
		logger.Fatal("Failed to seed demo answers", zap.Error(err))
	}
	logger.Info("demo answers seeded", zap.Int("entries", seeded))

	sessions := session.NewStore(ccfg.SessionHistoryLimit, ccfg.SessionIdleTimeout())
	defer sessions.Close()

	orch := pipeline.NewOrchestrator(sessions, answers, gateway, retriever, answerGen, ccfg.PipelineDeadline())
	srv := web.New(pipeline.NewPool(orch, ccfg.MaxConcurrentCalls), sessions, answers)

	httpServer := &http.Server{Addr: ccfg.HTTPPort, Handler: srv.Handler()}
	go func() {
		logger.Info("listening", zap.String("addr", ccfg.HTTPPort))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	ctx := getCancellableContext()
	// catch SIGINT -> drain in-flight calls, then exit
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown incomplete", zap.Error(err))
	}
}

func getCancellableContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sig
		cancel()
	}()

	return ctx
}
