package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	agreementhandler "steward/internal/agreement/handler"
	agreementservice "steward/internal/agreement/service"
	agreementstore "steward/internal/agreement/store"
	eligibilityadapters "steward/internal/eligibility/adapters"
	eligibilityhandler "steward/internal/eligibility/handler"
	eligibilitymetrics "steward/internal/eligibility/metrics"
	eligibilityservice "steward/internal/eligibility/service"
	jwttoken "steward/internal/jwt_token"
	"steward/internal/platform/config"
	"steward/internal/platform/kafka"
	"steward/internal/platform/metrics"
	"steward/internal/platform/postgres"
	"steward/internal/platform/redis"
	studyadapters "steward/internal/study/adapters"
	"steward/internal/study/cache"
	studyhandler "steward/internal/study/handler"
	studymetrics "steward/internal/study/metrics"
	studyservice "steward/internal/study/service"
	studystore "steward/internal/study/store"
	"steward/internal/study/workflow"
	traininghandler "steward/internal/training/handler"
	trainingmetrics "steward/internal/training/metrics"
	trainingmodels "steward/internal/training/models"
	trainingservice "steward/internal/training/service"
	trainingstore "steward/internal/training/store"
	userhandler "steward/internal/user/handler"
	userservice "steward/internal/user/service"
	userstore "steward/internal/user/store"
	"steward/pkg/platform/audit"
	"steward/pkg/platform/audit/publishers/compliance"
	"steward/pkg/platform/audit/relay"
	auditmemory "steward/pkg/platform/audit/store/memory"
	auditpostgres "steward/pkg/platform/audit/store/postgres"
	"steward/pkg/platform/circuit"
	"steward/pkg/platform/httputil"
	authmw "steward/pkg/platform/middleware/auth"
	"steward/pkg/platform/middleware/request"
	txcontext "steward/pkg/platform/tx"
)

// stores bundles one backend's implementations.
type stores struct {
	users      userservice.Store
	agreements agreementservice.Store
	training   trainingservice.Store
	studies    studyStore
	audit      auditStore
	tx         txcontext.Runner
}

type studyStore interface {
	studyservice.Store
	studyservice.AssetStore
}

type auditStore interface {
	audit.Store
	audit.Outbox
}

// app is the wired process: the router plus the resources main must run
// and close.
type app struct {
	router   http.Handler
	relay    *relay.Relay
	producer *kafka.Producer
	closers  []func()
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func newStores(ctx context.Context, cfg config.Server, log *slog.Logger) (*stores, func(), error) {
	if cfg.DatabaseURL == "" {
		log.WarnContext(ctx, "DATABASE_URL not set, using in-memory stores")
		return &stores{
			users:      userstore.NewInMemory(),
			agreements: agreementstore.NewInMemory(),
			training:   trainingstore.NewInMemory(),
			studies:    studystore.NewInMemory(),
			audit:      auditmemory.NewInMemoryStore(),
			tx:         txcontext.NewInMemoryRunner(),
		}, func() {}, nil
	}

	db, err := postgres.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	return &stores{
		users:      userstore.NewPostgres(db),
		agreements: agreementstore.NewPostgres(db),
		training:   trainingstore.NewPostgres(db),
		studies:    studystore.NewPostgres(db),
		audit:      auditpostgres.New(db),
		tx:         txcontext.NewSQLRunner(db),
	}, func() { closeDB(db, log) }, nil
}

func closeDB(db *sql.DB, log *slog.Logger) {
	if err := db.Close(); err != nil {
		log.Error("failed to close database", "error", err)
	}
}

func trainingConfig(p config.TrainingPolicy) (trainingservice.Config, error) {
	kinds := make([]trainingmodels.Kind, 0, len(p.RequiredKinds))
	for _, raw := range p.RequiredKinds {
		k, err := trainingmodels.ParseKind(raw)
		if err != nil {
			return trainingservice.Config{}, err
		}
		kinds = append(kinds, k)
	}
	return trainingservice.Config{
		ValidityPeriodDays: p.ValidityPeriodDays,
		Thresholds:         trainingmodels.ThresholdsFromDays(p.LowDays, p.MediumDays, p.HighDays),
		RequiredKinds:      kinds,
	}, nil
}

// newApp wires every service against st and builds the router.
func newApp(ctx context.Context, cfg config.Server, policy config.Policy, st *stores, log *slog.Logger) (*app, error) {
	a := &app{}
	reg := metrics.NewRegistry()
	publisher := compliance.New(st.audit,
		compliance.WithLogger(log),
		compliance.WithMetrics(compliance.NewMetrics(reg)),
	)

	users := userservice.New(st.users,
		userservice.Config{RequireFullName: policy.Profile.RequireFullName},
		userservice.WithLogger(log),
		userservice.WithAuditPublisher(publisher),
		userservice.WithTxRunner(st.tx),
	)
	agreements := agreementservice.New(st.agreements,
		agreementservice.WithLogger(log),
		agreementservice.WithAuditPublisher(publisher),
		agreementservice.WithTxRunner(st.tx),
	)
	tcfg, err := trainingConfig(policy.Training)
	if err != nil {
		return nil, err
	}
	training, err := trainingservice.New(st.training, tcfg,
		trainingservice.WithLogger(log),
		trainingservice.WithMetrics(trainingmetrics.New(reg)),
		trainingservice.WithAuditPublisher(publisher),
		trainingservice.WithTxRunner(st.tx),
	)
	if err != nil {
		return nil, err
	}
	eligibility := eligibilityservice.New(
		eligibilityadapters.NewProfileAdapter(users),
		eligibilityadapters.NewAgreementAdapter(agreements),
		training,
		eligibilityservice.WithLogger(log),
		eligibilityservice.WithMetrics(eligibilitymetrics.New(reg)),
	)

	studyOpts := []studyservice.Option{
		studyservice.WithLogger(log),
		studyservice.WithMetrics(studymetrics.New(reg)),
		studyservice.WithAuditPublisher(publisher),
		studyservice.WithTxRunner(st.tx),
		studyservice.WithPolicy(workflow.Policy{
			ApprovedEdit:           workflow.ApprovedEditPolicy(policy.Workflow.ApprovedEdit),
			ClearFeedbackOnApprove: policy.Workflow.ClearFeedbackOnApprove,
		}),
	}
	redisClient, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		// The cache is optional; scores are computed on every read without it.
		log.WarnContext(ctx, "redis unavailable, risk cache disabled", "error", err)
	}
	if redisClient != nil {
		a.closers = append(a.closers, func() { _ = redisClient.Close() })
		studyOpts = append(studyOpts, studyservice.WithRiskCache(cache.NewRiskCache(
			redisClient.Client, cfg.Redis.RiskCacheTTL,
			cache.WithBreaker(circuit.New("risk-cache")),
			cache.WithLogger(log),
		)))
	}
	studies, err := studyservice.New(st.studies, st.studies, eligibility, agreements,
		studyadapters.NewDirectoryAdapter(users), studyOpts...)
	if err != nil {
		return nil, err
	}

	producer, err := kafka.NewProducer(cfg.Kafka)
	if err != nil {
		return nil, err
	}
	if producer != nil {
		a.producer = producer
		a.closers = append(a.closers, producer.Close)
		if err := producer.EnsureTopics(ctx, 3, 1, cfg.Kafka.WorkflowTopic); err != nil {
			log.WarnContext(ctx, "failed to provision workflow topic", "topic", cfg.Kafka.WorkflowTopic, "error", err)
		}
		a.relay = relay.New(st.audit, producer, cfg.Kafka.WorkflowTopic,
			relay.WithInterval(cfg.Kafka.RelayInterval),
			relay.WithBatchSize(cfg.Kafka.RelayBatch),
			relay.WithLogger(log),
		)
	}

	jwtValidator := jwttoken.NewJWTService(cfg.JWTSigningKey, cfg.JWTIssuer, cfg.JWTAudience)
	userHandler := userhandler.New(users, log)

	r := chi.NewRouter()
	r.Use(request.RequestID)
	r.Use(request.Time)
	r.Use(request.Recovery(log))
	r.Use(request.Logger(log))
	r.Use(metrics.NewHTTP(reg).Middleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/ready", readyHandler(redisClient, producer))
	r.Handle("/metrics", metrics.Handler(reg))

	r.Group(func(r chi.Router) {
		r.Use(authmw.RequireAuth(jwtValidator, log))
		r.Use(userHandler.EnsureUser)

		userHandler.Register(r)
		agreementhandler.New(agreements, log).Register(r)
		traininghandler.New(training, log).Register(r)
		eligibilityhandler.New(eligibility, log).Register(r)
		studyhandler.New(studies, log).Register(r)
	})

	a.router = r
	return a, nil
}

// readyHandler reports dependency health. Postgres is checked at startup.
func readyHandler(redisClient *redis.Client, producer *kafka.Producer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := map[string]string{}
		status := http.StatusOK
		if redisClient != nil {
			checks["redis"] = "ok"
			if err := redisClient.Health(r.Context()); err != nil {
				checks["redis"] = fmt.Sprintf("unavailable: %v", err)
			}
		}
		if producer != nil {
			checks["kafka"] = "ok"
			if err := producer.Ping(r.Context()); err != nil {
				checks["kafka"] = fmt.Sprintf("unavailable: %v", err)
				status = http.StatusServiceUnavailable
			}
		}
		httputil.WriteJSON(w, status, checks)
	}
}
