package bootstrap

import (
	"context"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/threedrepo/repo-backend/config"
	httpapi "github.com/threedrepo/repo-backend/internal/api/http"
	"github.com/threedrepo/repo-backend/internal/api/http/middleware"
	"github.com/threedrepo/repo-backend/internal/api/http/routes"
	"github.com/threedrepo/repo-backend/internal/auth"
	authmw "github.com/threedrepo/repo-backend/internal/auth/middleware"
	"github.com/threedrepo/repo-backend/internal/metrics"
	"github.com/threedrepo/repo-backend/internal/modelsettings"
	"github.com/threedrepo/repo-backend/internal/permissions"
	"github.com/threedrepo/repo-backend/internal/projects/repository"
	projectservice "github.com/threedrepo/repo-backend/internal/projects/service"
	"github.com/threedrepo/repo-backend/internal/revisions"
	"github.com/threedrepo/repo-backend/internal/storage/mongodb"
	"github.com/threedrepo/repo-backend/internal/users"
)

type RouterDeps struct {
	ServiceName    string
	Version        string
	AllowedOrigins []string
	Auth           config.AuthConfig
	Log            *zap.Logger
	Metrics        *metrics.Metrics
	Conns          *mongodb.ConnectionManager
	Redis          *redis.Client
}

func BuildRouter(dep RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(cors.New(corsConfig(dep.AllowedOrigins)))
	r.Use(middleware.RequestIDMiddleware(dep.Log, dep.Metrics))

	var cache httpapi.Pinger
	if dep.Redis != nil {
		cache = httpapi.PingFunc(func(ctx context.Context) error { return dep.Redis.Ping(ctx).Err() })
	}
	healthHandler := httpapi.NewHealthHandler(dep.ServiceName, dep.Version, dep.Conns, cache)
	healthHandler.RegisterRoutes(r)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	store := mongodb.NewStore(dep.Conns, dep.Log, dep.Metrics)

	userRepo := users.NewRepo(store)
	projectRepo := repository.NewProjectRepository(store)
	settingsRepo := modelsettings.NewRepo(store)

	templateSvc := permissions.NewTemplateService(userRepo, dep.Log)
	projectSvc := projectservice.NewProjectService(projectRepo, userRepo, settingsRepo, dep.Log)
	settingsSvc := modelsettings.NewService(settingsRepo, templateSvc, userRepo, projectSvc, dep.Log)
	sessions := auth.NewService(dep.Conns, auth.NewSessionRepository(dep.Redis, dep.Auth.SessionTTL), dep.Log)

	routes.Register(r, routes.Deps{
		Sessions:     sessions,
		LoginLimiter: authmw.NewIPRateLimiter(loginRate(dep.Auth.LoginRatePerMin), dep.Auth.LoginBurst),
		Users:        userRepo,
		Projects:     projectSvc,
		Templates:    templateSvc,
		Settings:     settingsSvc,
		Revisions:    revisions.NewService(store, dep.Log),
	})

	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", middleware.HeaderRequestID},
		ExposeHeaders: []string{middleware.HeaderRequestID},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
		cfg.AllowCredentials = true
	}
	return cfg
}

func loginRate(perMinute int) rate.Limit {
	if perMinute <= 0 {
		return rate.Inf
	}
	return rate.Every(time.Minute / time.Duration(perMinute))
}
