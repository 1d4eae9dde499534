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

	"github.com/prometheus/client_golang/prometheus"
	backend "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/viridien/triage"
	httpAdapter "github.com/viridien/triage/internal/adapters/http"
	"github.com/viridien/triage/internal/config"
	"github.com/viridien/triage/internal/logging"
	"github.com/viridien/triage/internal/metrics"
	fileAdapter "github.com/viridien/triage/pkg/adapters/file"
	"github.com/viridien/triage/pkg/adapters/llm"
	"github.com/viridien/triage/pkg/adapters/memory"
	"github.com/viridien/triage/pkg/adapters/policy"
	redisAdapter "github.com/viridien/triage/pkg/adapters/redis"
	"github.com/viridien/triage/pkg/persistence/middleware"
	"github.com/viridien/triage/pkg/ports"
)

// fraudPolicySource is the conditionally selected policy document: it joins
// the candidate set only for these issue types on orders above the configured
// amount threshold.
const fraudPolicySource = "fraud_policy.md"

var fraudEligibleIssues = []string{"refund_request", "wrong_item", "missing_item"}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the triage HTTP server",
	Long:  `Starts the triage engine behind a JSON API with the admin review endpoints.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfgPath, _ := cmd.Flags().GetString("config")

		cfg, err := config.Load(cfgPath)
		if err != nil {
			return err
		}
		logger := logging.New(logging.ParseLevel(cfg.Log.Level))

		engineOpts := []triage.Option{triage.WithLogger(logger)}

		// Storage.
		var store ports.StateStore
		if cfg.Redis.Enabled {
			client := backend.NewClient(&backend.Options{
				Addr:     cfg.Redis.Addr,
				Password: cfg.Redis.Password,
				DB:       cfg.Redis.DB,
			})
			store = redisAdapter.NewFromClient(client)
			engineOpts = append(engineOpts, triage.WithDistributedLocker(redisAdapter.NewLocker(client, "triage:")))
			logger.Info("using redis state store", "addr", cfg.Redis.Addr)
		} else {
			store = memory.NewStore()
			logger.Warn("using in-memory state store, threads will not survive restarts")
		}

		// Store middleware. Masking runs before encryption so redacted text
		// is what gets sealed.
		var storeMiddleware []middleware.Middleware
		if len(cfg.Security.MaskPatterns) > 0 {
			storeMiddleware = append(storeMiddleware, middleware.NewPIIMiddleware(cfg.Security.MaskPatterns))
			logger.Info("masking persisted text", "patterns", len(cfg.Security.MaskPatterns))
		}
		if cfg.Security.EncryptionKey != "" {
			storeMiddleware = append(storeMiddleware, middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
				ActiveKey: []byte(cfg.Security.EncryptionKey),
			}))
			logger.Info("encrypting persisted state")
		}
		engineOpts = append(engineOpts, triage.WithStateStore(middleware.Chain(store, storeMiddleware...)))

		// Static data tables.
		orders, err := fileAdapter.LoadOrders(cfg.Data.OrdersFile)
		if err != nil {
			return err
		}
		rules, err := fileAdapter.LoadRules(cfg.Data.RulesFile)
		if err != nil {
			return err
		}
		templates, err := fileAdapter.LoadTemplates(cfg.Data.TemplatesFile)
		if err != nil {
			return err
		}
		engineOpts = append(engineOpts,
			triage.WithOrderStore(memory.NewOrderStore(orders)),
			triage.WithRules(rules),
			triage.WithTemplates(templates),
			triage.WithTopK(cfg.Retrieval.TopK),
		)

		// LLM drafting and policy retrieval. Both are optional: without them
		// the engine degrades to deterministic templates and no citations.
		if cfg.Generator.Enabled {
			generator, err := llm.NewOpenAI(cfg.Generator.APIKey, cfg.Generator.Model, cfg.Generator.BaseURL)
			if err != nil {
				return err
			}
			engineOpts = append(engineOpts, triage.WithTextGenerator(generator))

			retriever, err := buildRetriever(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			if retriever != nil {
				engineOpts = append(engineOpts, triage.WithPolicyRetriever(retriever))
			}
		}

		// Metrics.
		registry := prometheus.NewRegistry()
		engineOpts = append(engineOpts, triage.WithLifecycleHooks(metrics.New(registry).Hooks()))

		engine := triage.New(engineOpts...)

		handler := httpAdapter.NewHandler(engine,
			httpAdapter.WithLogger(logger),
			httpAdapter.WithMetricsGatherer(registry),
		)

		srv := &http.Server{
			Addr:    cfg.Server.Addr,
			Handler: handler,
		}

		serverErrors := make(chan error, 1)
		go func() {
			logger.Info("starting triage server", "addr", srv.Addr)
			serverErrors <- srv.ListenAndServe()
		}()

		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-serverErrors:
			return fmt.Errorf("server error: %w", err)

		case sig := <-shutdown:
			logger.Info("starting shutdown", "signal", sig.String())

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				logger.Error("graceful shutdown did not complete", "err", err)
				if err := srv.Close(); err != nil {
					return fmt.Errorf("closing server: %w", err)
				}
			}
			logger.Info("triage server stopped")
		}
		return nil
	},
}

// buildRetriever indexes the policy directory with OpenAI embeddings.
// A missing or empty policy directory disables retrieval instead of failing
// startup.
func buildRetriever(ctx context.Context, cfg *config.Config) (*policy.Retriever, error) {
	docs, err := policy.LoadDocs(cfg.Data.PoliciesDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	if len(docs) == 0 {
		return nil, nil
	}

	clientOpts := []openai.Option{openai.WithToken(cfg.Generator.APIKey)}
	if cfg.Generator.BaseURL != "" {
		clientOpts = append(clientOpts, openai.WithBaseURL(cfg.Generator.BaseURL))
	}
	client, err := openai.New(clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("embeddings client: %w", err)
	}
	embedder, err := embeddings.NewEmbedder(client)
	if err != nil {
		return nil, fmt.Errorf("embedder: %w", err)
	}

	return policy.NewRetriever(ctx, embedder, docs,
		policy.WithFraudPolicy(fraudPolicySource, fraudEligibleIssues, cfg.Retrieval.FraudThreshold),
	)
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
