package search

import (
	apphttp "kanvaro_backend/internal/http"
	"kanvaro_backend/internal/search/handler"
	"kanvaro_backend/internal/search/history"
	"kanvaro_backend/internal/search/repository"
	"kanvaro_backend/internal/search/service"
	"kanvaro_backend/platform/config"
	"kanvaro_backend/platform/logger"
	"kanvaro_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

type Module struct {
	handler *handler.Handler
}

// NewModule wires the search stack. redisClient and recorder are optional;
// without them recent-search history and search analytics are disabled.
func NewModule(
	pool *pgxpool.Pool,
	val *validator.Validator,
	cfg config.SearchConfig,
	redisClient *redis.Client,
	recorder service.SearchRecorder,
	log *logger.Logger,
) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, repo, service.Options{
		DefaultLimit:   cfg.GetSearchDefaultLimit(),
		MaxLimit:       cfg.GetSearchMaxLimit(),
		PartialResults: cfg.GetSearchPartialResults(),
	}, log)

	if redisClient != nil {
		svc.SetHistory(history.NewRedisHistory(redisClient, cfg.GetSearchRecentLimit(), cfg.GetSearchRecentTTL()))
	}
	if recorder != nil {
		svc.SetRecorder(recorder)
	}

	return &Module{handler: handler.New(svc, val)}
}

func (m *Module) Name() string {
	return "search"
}

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected.Group("/search"))
	m.handler.RegisterAdminRoutes(ctx.Admin.Group("/search"))
}

var _ apphttp.Module = (*Module)(nil)
