package main

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"

	"coach-agent/handler"
	"coach-agent/internal/agents"
	appconfig "coach-agent/internal/config"
	"coach-agent/internal/domain"
	"coach-agent/internal/integrations/exercisedb"
	"coach-agent/internal/integrations/openai"
	"coach-agent/internal/integrations/paramstore"
	"coach-agent/internal/kv/memory"
	"coach-agent/internal/kv/redisstore"
	"coach-agent/internal/plan"
	"coach-agent/internal/repository"
	"coach-agent/internal/session"
	"coach-agent/internal/usecase"
)

func main() {
	ctx := context.Background()

	// ---- Configuration (read only here) ----
	cfg, err := appconfig.Load()
	if err != nil {
		slog.Error("failed to load configuration", "err", err)
		os.Exit(1)
	}
	level, _ := cfg.Level()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	// ---- AWS SDK config ----
	awsCfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		fatal("failed to load AWS config", err)
	}

	// ---- Clients ----
	ssmClient, err := paramstore.New(awsssm.NewFromConfig(awsCfg))
	if err != nil {
		fatal("failed to create SSM client", err)
	}
	params, err := ssmClient.GetParameters(ctx, cfg.ModelParameter())
	if err != nil {
		fatal("failed to read model parameter", err)
	}
	model := strings.TrimSpace(params[cfg.ModelParameter()])

	plans, err := repository.New(awsdynamodb.NewFromConfig(awsCfg), cfg.PlansTable)
	if err != nil {
		fatal("failed to create plan repository", err)
	}

	openaiClient, err := openai.NewClient(ssmClient, cfg.ParamPrefix)
	if err != nil {
		fatal("failed to create OpenAI client", err)
	}
	exerciseClient, err := exercisedb.NewClient(ssmClient, cfg.ParamPrefix)
	if err != nil {
		fatal("failed to create ExerciseDB client", err)
	}

	// ---- Session memory ----
	backend, err := newBackend(ctx, cfg)
	if err != nil {
		fatal("failed to open session backend", err)
	}
	store, err := session.New(backend, session.WithLogger(logger))
	if err != nil {
		fatal("failed to create session store", err)
	}

	// ---- Domain handlers ----
	agentCfg := agents.Config{LLM: openaiClient, Model: model, Logger: logger}
	lookup, err := agents.NewExerciseLookup(exerciseClient, store, logger)
	if err != nil {
		fatal("failed to create exercise lookup", err)
	}
	nutrition, err := agents.NewNutrition(agentCfg)
	if err != nil {
		fatal("failed to create nutrition agent", err)
	}
	fitness, err := agents.NewFitness(agentCfg, lookup)
	if err != nil {
		fatal("failed to create fitness agent", err)
	}
	research, err := agents.NewResearch(agentCfg)
	if err != nil {
		fatal("failed to create research agent", err)
	}
	personalization, err := agents.NewPersonalization(agentCfg)
	if err != nil {
		fatal("failed to create personalization agent", err)
	}

	// ---- Handler ----
	chatService, err := usecase.NewChatService(store,
		map[domain.HandlerTag]usecase.DomainHandler{
			domain.TagNutrition:       nutrition,
			domain.TagFitness:         fitness,
			domain.TagResearch:        research,
			domain.TagPersonalization: personalization,
		},
		plan.NewSynthesizer(),
		plans,
		usecase.WithContextLimit(cfg.ContextLimit),
		usecase.WithMaxMessageLength(cfg.MaxMessageLength),
		usecase.WithLogger(logger),
	)
	if err != nil {
		fatal("failed to create chat service", err)
	}

	h, err := handler.NewHandler(chatService, handler.WithLogger(logger))
	if err != nil {
		fatal("failed to create handler", err)
	}

	lambda.StartWithOptions(h.Handle, lambda.WithEnableSIGTERM(store.Close))
}

func newBackend(ctx context.Context, cfg *appconfig.Config) (session.Backend, error) {
	if cfg.StoreBackend == appconfig.StoreMemory {
		slog.Warn("using in-memory session store; state is lost between instances")
		return memory.New(), nil
	}
	return redisstore.Dial(ctx, redisstore.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
}

func fatal(msg string, err error) {
	slog.Error(msg, "err", err)
	os.Exit(1)
}
