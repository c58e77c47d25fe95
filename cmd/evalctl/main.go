// evalctl wires the simulation engine, evaluation engine, and event
// pipeline together. It loads configuration and connects to PostgreSQL
// and Kafka, then does one of two things: given a named agent/scenario
// pair, it simulates N conversations for that pair and exits; given
// neither, it starts the conversation/evaluation/metrics consumers and
// runs them until interrupted.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/axionis47/agentprobe-go/pkg/config"
	"github.com/axionis47/agentprobe-go/pkg/llmclient"
	"github.com/axionis47/agentprobe-go/pkg/pipeline"
	"github.com/axionis47/agentprobe-go/pkg/services"
	"github.com/axionis47/agentprobe-go/pkg/store"
)

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	configDir := flag.String("config-dir", getEnv("CONFIG_DIR", "./deploy/config"), "Path to configuration directory")
	agentName := flag.String("agent", "", "Name of the agent-under-test configuration to run")
	scenarioID := flag.String("scenario", "", "Scenario configuration ID to run")
	numConversations := flag.Int("conversations", 0, "Number of conversations to simulate (0 = config default)")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	envPath := filepath.Join(*configDir, ".env")
	if err := godotenv.Load(envPath); err != nil {
		logger.Warn("could not load .env file, continuing with existing environment", "path", envPath, "error", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, logger, *configDir, *agentName, *scenarioID, *numConversations); err != nil {
		logger.Error("evalctl failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger, configDir, agentName, scenarioID string, numConversations int) error {
	cfg, err := config.Initialize(ctx, configDir)
	if err != nil {
		return fmt.Errorf("initialize configuration: %w", err)
	}
	stats := cfg.Stats()
	logger.Info("configuration loaded", "agents", stats.Agents, "scenarios", stats.Scenarios,
		"rubrics", stats.Rubrics, "llm_providers", stats.LLMProviders)

	dbCfg, err := store.LoadConfigFromEnv()
	if err != nil {
		return fmt.Errorf("load database config: %w", err)
	}
	pool, err := store.Open(ctx, dbCfg)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer pool.Close()
	persistence := store.NewPostgresStore(pool)
	logger.Info("connected to PostgreSQL", "host", dbCfg.Host, "database", dbCfg.Database)

	brokers := splitCSV(getEnv("KAFKA_BROKERS", "localhost:9092"))
	producer := pipeline.NewProducer(pipeline.ProducerConfig{Brokers: brokers})
	defer producer.Reset()

	if agentName == "" || scenarioID == "" {
		logger.Info("no --agent/--scenario given; starting consumers only")
		return runConsumers(ctx, logger, brokers, persistence, producer, cfg)
	}

	return runOnce(ctx, logger, cfg, persistence, producer, agentName, scenarioID, numConversations)
}

// runOnce loads one agent/scenario pair and drives a single simulation
// run against it, synchronously, then exits — evaluation and aggregation
// still flow asynchronously through the event pipeline once the
// conversation.completed events land, so runConsumers (or an
// already-running consumer fleet) must be processing the same topics.
func runOnce(
	ctx context.Context,
	logger *slog.Logger,
	cfg *config.Config,
	persistence store.Store,
	producer *pipeline.Producer,
	agentName, scenarioID string,
	numConversations int,
) error {
	agentCfg, err := cfg.GetAgent(agentName)
	if err != nil {
		return fmt.Errorf("resolve agent %q: %w", agentName, err)
	}
	scenarioCfg, err := cfg.GetScenario(scenarioID)
	if err != nil {
		return fmt.Errorf("resolve scenario %q: %w", scenarioID, err)
	}

	agentProviderName := agentCfg.LLMProvider
	if agentProviderName == "" {
		agentProviderName = cfg.Defaults.LLMProvider
	}
	agentProvider, err := cfg.GetLLMProvider(agentProviderName)
	if err != nil {
		return fmt.Errorf("resolve agent LLM provider %q: %w", agentProviderName, err)
	}
	agentLLM, err := llmclient.NewFromProviderConfig(ctx, agentProvider)
	if err != nil {
		return fmt.Errorf("build agent LLM client: %w", err)
	}

	// The user simulator's model id is recorded on UserPersona for
	// logging/metadata purposes, but SimulationService drives both the
	// agent and the simulated user through one shared LLM client per
	// conversation (see simulateOne) — a scenario's UserLLMProvider
	// override is only meaningful when it names the same provider as the
	// agent's; cross-provider user simulation would need a second Client
	// seam on ScenarioSpec, which the current simulation engine doesn't
	// expose.
	userProviderName := scenarioCfg.UserLLMProvider
	if userProviderName == "" {
		userProviderName = agentProviderName
	}
	userProvider, err := cfg.GetLLMProvider(userProviderName)
	if err != nil {
		return fmt.Errorf("resolve user LLM provider %q: %w", userProviderName, err)
	}

	n := numConversations
	if n <= 0 {
		n = cfg.Defaults.NumConversations
	}

	evalRun, err := persistence.CreateEvalRun(ctx, store.EvalRun{
		Name:             fmt.Sprintf("%s/%s", agentName, scenarioID),
		AgentConfigID:    agentName,
		ScenarioID:       scenarioID,
		RubricID:         resolveRubricID(scenarioCfg.RubricID, cfg.Defaults.RubricID),
		NumConversations: n,
	})
	if err != nil {
		return fmt.Errorf("create eval run: %w", err)
	}
	logger.Info("eval run created", "eval_run_id", evalRun.ID, "num_conversations", n)

	simService := services.NewSimulationService(agentLLM, persistence, producer, logger)
	spec := services.ScenarioSpec{
		AgentPersona:   agentCfg.ToPersona(agentName, agentProvider.Model),
		UserPersona:    scenarioCfg.ToUserPersona(userProvider.Model),
		InitialMessage: scenarioCfg.InitialMessage,
		Environment:    scenarioCfg.ToEnvironment(),
	}
	if err := simService.RunEval(ctx, evalRun.ID, n, spec); err != nil {
		return fmt.Errorf("run eval: %w", err)
	}
	logger.Info("eval run simulation finished", "eval_run_id", evalRun.ID)
	return nil
}

// runConsumers starts the three pipeline consumers and blocks until ctx is
// cancelled (SIGINT/SIGTERM). The evaluation service backing the
// conversation consumer uses the default judge model named by
// cfg.Defaults.JudgeModel.
func runConsumers(
	ctx context.Context,
	logger *slog.Logger,
	brokers []string,
	persistence store.Store,
	producer *pipeline.Producer,
	cfg *config.Config,
) error {
	judgeProviderName := cfg.Defaults.JudgeModel
	if judgeProviderName == "" {
		judgeProviderName = cfg.Defaults.LLMProvider
	}
	judgeProvider, err := cfg.GetLLMProvider(judgeProviderName)
	if err != nil {
		return fmt.Errorf("resolve judge LLM provider %q: %w", judgeProviderName, err)
	}
	judgeLLM, err := llmclient.NewFromProviderConfig(ctx, judgeProvider)
	if err != nil {
		return fmt.Errorf("build judge LLM client: %w", err)
	}

	evalService := services.NewEvaluationService(judgeLLM, judgeProvider.Model, persistence, producer, logger)

	maxRetries := cfg.Queue.MaxRetries

	conversationConsumer := pipeline.NewConsumer(
		pipeline.TopicConversationCompleted, "conversation-consumer", maxRetries,
		pipeline.NewKafkaSource(brokers, "conversation-consumer", pipeline.TopicConversationCompleted),
		pipeline.NewConversationCompletedHandler(evalService),
		producer,
	)
	evaluationConsumer := pipeline.NewConsumer(
		pipeline.TopicEvaluationCompleted, "evaluation-consumer", maxRetries,
		pipeline.NewKafkaSource(brokers, "evaluation-consumer", pipeline.TopicEvaluationCompleted),
		pipeline.NewEvaluationScoreCompletedHandler(persistence, producer),
		producer,
	)
	metricsConsumer := pipeline.NewConsumer(
		pipeline.TopicMetricsAggregated, "metrics-consumer", maxRetries,
		pipeline.NewKafkaSource(brokers, "metrics-consumer", pipeline.TopicMetricsAggregated),
		pipeline.NewMetricsAggregatedHandler(persistence),
		producer,
	)

	conversationConsumer.Start(ctx)
	evaluationConsumer.Start(ctx)
	metricsConsumer.Start(ctx)
	logger.Info("consumers started", "brokers", brokers, "max_retries", maxRetries)

	<-ctx.Done()
	logger.Info("shutdown signal received, stopping consumers")
	conversationConsumer.Stop()
	evaluationConsumer.Stop()
	metricsConsumer.Stop()
	return nil
}

func resolveRubricID(scenarioRubric, defaultRubric string) string {
	if scenarioRubric != "" {
		return scenarioRubric
	}
	return defaultRubric
}

func splitCSV(s string) []string {
	var out []string
	start := 0
	for i := 0; i <= len(s); i++ {
		if i == len(s) || s[i] == ',' {
			if i > start {
				out = append(out, s[start:i])
			}
			start = i + 1
		}
	}
	return out
}
