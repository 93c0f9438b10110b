// Command flowrun runs a single flow document against a host
// configuration and prints the execution result as JSON, mirroring the
// teacher's examples/runner demo layout but wired to this engine's
// Submit/Result contract instead of a NATS message loop.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/flowforge/flowrun/pkg/callback"
	"github.com/flowforge/flowrun/pkg/concurrency"
	"github.com/flowforge/flowrun/pkg/config"
	"github.com/flowforge/flowrun/pkg/events"
	"github.com/flowforge/flowrun/pkg/executor"
	"github.com/flowforge/flowrun/pkg/filestore"
	"github.com/flowforge/flowrun/pkg/flow"
	"github.com/flowforge/flowrun/pkg/logging"
	"github.com/flowforge/flowrun/pkg/nodes"
	"github.com/flowforge/flowrun/pkg/provider"
	"github.com/flowforge/flowrun/pkg/storage"
	"github.com/flowforge/flowrun/pkg/validator"

	natsconn "github.com/flowforge/flowrun/internal/nats"
	"github.com/flowforge/flowrun/internal/tracing"
)

func main() {
	flowPath := flag.String("flow", "", "path to a flow JSON document")
	configPath := flag.String("config", "", "path to a host configuration JSON document")
	inputPath := flag.String("input", "", "optional path to a JSON object of input variable values")
	flag.Parse()

	if *flowPath == "" {
		fmt.Fprintln(os.Stderr, "flowrun: -flow is required")
		os.Exit(2)
	}

	if err := run(*flowPath, *configPath, *inputPath); err != nil {
		fmt.Fprintf(os.Stderr, "flowrun: %v\n", err)
		os.Exit(1)
	}
}

func run(flowPath, configPath, inputPath string) error {
	zapLogger, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer zapLogger.Sync()
	logger := logging.NewZap(zapLogger)

	defer concurrency.InitializeForKubernetes(logger)()

	f, input, cfg, err := loadInputs(flowPath, configPath, inputPath)
	if err != nil {
		return err
	}

	if cfg.Tracing != nil {
		shutdown, err := tracing.SetupTracing(context.Background(), *cfg.Tracing, logger)
		if err != nil {
			logger.Warn("tracing setup failed, continuing without it", logging.F("error", err.Error()))
		} else {
			defer tracing.ShutdownTracing(shutdown, logger)
		}
	}

	files := buildFileStore(cfg, logger)
	providers := buildProviderSet(cfg)

	hooks, closeHooks, err := buildHooks(cfg, logger)
	if err != nil {
		return fmt.Errorf("lifecycle event bus: %w", err)
	}
	if closeHooks != nil {
		defer closeHooks()
	}

	limiter := concurrency.NewLimiter(cfg.ConcurrencyGlobalLimit)
	newFactory := func(flowID string) *nodes.Factory {
		return nodes.NewFactory(&nodes.Env{
			FlowID:    flowID,
			Logger:    logger,
			Providers: providers,
			Files:     files,
		})
	}
	exec := executor.New(limiter, newFactory, logger)
	defer exec.Shutdown(30 * time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if cfg.TimeoutMs > 0 {
		ctx, cancel = context.WithTimeout(ctx, time.Duration(cfg.TimeoutMs)*time.Millisecond)
		defer cancel()
	}

	result, err := exec.Submit(ctx, &executor.Request{
		Flow:      f,
		Input:     input,
		Providers: validator.AvailableProviders(cfg.ProviderAvailability()),
		Hooks:     hooks,
	})
	if err != nil {
		return fmt.Errorf("submit flow: %w", err)
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	fmt.Println(string(out))
	if !result.Success {
		os.Exit(1)
	}
	return nil
}

func loadInputs(flowPath, configPath, inputPath string) (*flow.Flow, map[string]interface{}, *config.Configuration, error) {
	flowData, err := os.ReadFile(flowPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("read flow: %w", err)
	}
	f, err := flow.ParseFlow(flowData)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("parse flow: %w", err)
	}

	cfg := config.Default()
	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("read config: %w", err)
		}
		cfg, err = config.Load(data)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("load config: %w", err)
		}
	}
	cfg.ApplyEnvOverrides()

	input := map[string]interface{}{}
	if inputPath != "" {
		data, err := os.ReadFile(inputPath)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("read input: %w", err)
		}
		if err := json.Unmarshal(data, &input); err != nil {
			return nil, nil, nil, fmt.Errorf("parse input: %w", err)
		}
	}

	return f, input, cfg, nil
}

// buildFileStore wires an Azure Blob mirror when the host configuration
// supplies a connection string; it falls back to a local-only store on
// any setup failure rather than failing the whole run, since file storage
// is an optional collaborator per §6.
func buildFileStore(cfg *config.Configuration, logger logging.Logger) *filestore.Store {
	if cfg.BlobConnectionString == "" {
		return filestore.New(nil, logger)
	}
	client, err := storage.NewAzureBlobClient(cfg.BlobConnectionString, cfg.BlobContainer, logger)
	if err != nil {
		logger.Warn("blob mirror unavailable, staying local-only", logging.F("error", err.Error()))
		return filestore.New(nil, logger)
	}
	return filestore.New(client, logger)
}

func buildProviderSet(cfg *config.Configuration) *provider.Set {
	set := provider.NewSet()
	if pc, ok := cfg.Provider("llm", "openai"); ok {
		set.WithLLM("openai", provider.NewOpenAIClient(pc.APIKey))
	}
	if pc, ok := cfg.Provider("embedding", "openai"); ok {
		set.WithEmbedding("openai", provider.NewOpenAIClient(pc.APIKey))
	}
	return set
}

// buildHooks enables the optional Lifecycle Event Bus when the host
// configuration supplies a NATS URL; otherwise this process runs with
// logging-only hooks.
func buildHooks(cfg *config.Configuration, logger logging.Logger) (*callback.Hooks, func(), error) {
	if cfg.NATSURL == "" {
		return &callback.Hooks{Logger: logger}, nil, nil
	}
	pub, err := events.Connect(context.Background(), natsconn.DefaultConnectionConfig(cfg.NATSURL), logger)
	if err != nil {
		return nil, nil, err
	}
	return pub.Hooks(), func() { pub.Close() }, nil
}
