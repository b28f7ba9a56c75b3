// cmd/matching-engine/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"referwell-matching/internal/common/cache"
	"referwell-matching/internal/common/config"
	"referwell-matching/internal/common/database"
	"referwell-matching/internal/common/logger"
	"referwell-matching/internal/common/observability"
	"referwell-matching/internal/matching"
	"referwell-matching/internal/matching/calibration"
	"referwell-matching/internal/matching/embedding"
	"referwell-matching/internal/matching/feasibility"
	"referwell-matching/internal/matching/hybrid"
	"referwell-matching/internal/matching/lexical"
	"referwell-matching/internal/matching/routing"
	"referwell-matching/internal/matching/structured"
	"referwell-matching/internal/models"
	"referwell-matching/internal/repository"
	"referwell-matching/pkg/registry"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2 // Exponential backoff
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	zapLog := logger.New("info", "console")
	defer zapLog.Sync()

	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting matching engine...")

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}

	obs := observability.New("matching-engine")
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")

	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	// --- Init Redis with retry ---
	var rdb *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		rdb, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return rdb.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")

	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer rdb.Close()
	zapLog.Info("Redis connected successfully")

	store := cache.NewRedis(rdb.Client, log)

	// --- Load Algorithm Registry ---
	opts := matching.Options{
		TopK:            cfg.Matching.TopK,
		VectorWeight:    cfg.Matching.VectorWeight,
		BM25Weight:      cfg.Matching.BM25Weight,
		StructuredBlend: cfg.Matching.StructuredBlend,
	}

	if cfg.Matching.RegistryPath != "" {
		reg, err := registry.LoadRegistry(cfg.Matching.RegistryPath)
		if err != nil {
			zapLog.Fatal("algorithm registry load failed", zap.Error(err))
		}
		algo, err := reg.Active()
		if cfg.Matching.Algorithm != "" {
			algo, err = reg.Find(cfg.Matching.Algorithm)
		}
		if err != nil {
			zapLog.Fatal("algorithm resolution failed", zap.Error(err))
		}
		opts.VectorWeight = algo.VectorWeight
		opts.BM25Weight = algo.BM25Weight
		opts.StructuredBlend = algo.StructuredBlend
		zapLog.Info("algorithm loaded",
			zap.String("name", algo.Name),
			zap.String("type", algo.Type),
			zap.String("version", algo.Version),
		)
	}

	// --- Assemble Pipeline ---
	embedTTL := time.Duration(cfg.Embedding.CacheTTL) * time.Second
	lexTTL := time.Duration(cfg.Matching.LexicalCacheTTL) * time.Second

	embedder := embedding.NewCached(embedding.NewClient(cfg.Embedding, log), store, embedTTL, log)
	lexSvc := lexical.NewService(store, lexTTL, log)
	searcher := hybrid.NewSearcher(lexSvc, embedder, log)
	filter := feasibility.NewFilter(log)
	scorer := structured.NewScorer(log)
	calibrator := calibration.New(calibration.MethodIsotonic, log)

	candidates := repository.NewCandidateRepository(pg.DB, log)
	thresholds := repository.NewThresholdRepository(pg.DB, log)
	router := routing.NewRouter(thresholds, store, 0, log)

	engine := matching.NewEngine(candidates, filter, searcher, scorer, calibrator, router, store, opts, log)

	zapLog.Info("Matching pipeline assembled")

	// --- Health & Metrics Server ---
	go func() {
		http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "healthy",
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		http.HandleFunc("/match", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				w.WriteHeader(http.StatusMethodNotAllowed)
				return
			}
			var query models.ReferralQuery
			if err := json.NewDecoder(r.Body).Decode(&query); err != nil {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusBadRequest)
				json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
				return
			}
			outcome := engine.Match(r.Context(), &query)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(outcome)
		})
		http.HandleFunc("/stats", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(engine.Stats())
		})
		http.Handle("/metrics", promhttp.Handler())
		zapLog.Info("Health/Metrics server listening", zap.String("address", cfg.Metrics.Address))
		if err := http.ListenAndServe(cfg.Metrics.Address, nil); err != nil {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	_ = shutdownCtx

	zapLog.Info("Matching engine stopped")
}
