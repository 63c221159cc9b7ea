// Package app собирает зависимости сервиса: базу, каналы хранилища,
// движок синхронизации и сервис групп. Используется HTTP-сервером и CLI.
package app

import (
	"database/sql"

	"github.com/bagdasarian/uniportal-groups/internal/config"
	"github.com/bagdasarian/uniportal-groups/internal/db"
	"github.com/bagdasarian/uniportal-groups/internal/metrics"
	"github.com/bagdasarian/uniportal-groups/internal/reconcile"
	"github.com/bagdasarian/uniportal-groups/internal/repository"
	"github.com/bagdasarian/uniportal-groups/internal/repository/postgres"
	"github.com/bagdasarian/uniportal-groups/internal/repository/rest"
	"github.com/bagdasarian/uniportal-groups/internal/service"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

type App struct {
	DB       *sql.DB
	Groups   service.GroupService
	Registry *prometheus.Registry
}

func New(cfg *config.Config, log *zap.Logger) (*App, error) {
	database, err := db.NewPostgres(cfg)
	if err != nil {
		return nil, err
	}
	log.Info("connected to database",
		zap.String("host", cfg.Database.Host),
		zap.String("db", cfg.Database.DBName),
	)

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	groupRepo := postgres.NewGroupRepository(database)
	members := postgres.NewMemberRepository(database)

	reconciler := reconcile.NewReconciler(
		members,
		EscalationStore(cfg.AdminAPI, log),
		reconcile.Options{
			MaxRetries:  cfg.Reconcile.MaxRetries,
			BaseBackoff: cfg.Reconcile.BaseBackoff,
			MaxBackoff:  cfg.Reconcile.MaxBackoff,
			Deadline:    cfg.Reconcile.Deadline,
		},
		log.Named("reconcile"),
		m,
	)

	groups := service.NewGroupService(
		groupRepo,
		members,
		service.NewCreatorIdentityChecker(),
		reconciler,
		log.Named("service"),
	)

	return &App{
		DB:       database,
		Groups:   groups,
		Registry: registry,
	}, nil
}

// EscalationStore возвращает nil, если альтернативный канал не настроен
func EscalationStore(cfg config.AdminAPIConfig, log *zap.Logger) repository.MemberStore {
	if !cfg.EscalationEnabled() {
		log.Warn("admin API is not configured, escalation disabled")
		return nil
	}
	return rest.NewMemberClient(rest.MemberClientOptions{
		BaseURL:    cfg.URL,
		ServiceKey: cfg.ServiceKey,
		Timeout:    cfg.Timeout,
		UserAgent:  "uniportal-groups",
	})
}

func (a *App) Close() error {
	return a.DB.Close()
}
