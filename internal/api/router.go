package api

import (
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/hoopsight/prop-engine/internal/api/handlers"
	"github.com/hoopsight/prop-engine/internal/cache"
	"github.com/hoopsight/prop-engine/internal/repository"
	"github.com/hoopsight/prop-engine/internal/services"
	"github.com/hoopsight/prop-engine/pkg/database"
)

// Deps carries everything the route handlers need.
type Deps struct {
	DB         *database.DB
	Redis      *redis.Client
	Games      repository.GameRepository
	Stats      repository.StatsRepository
	Confidence *services.ConfidenceService
	Rest       *services.RestImpactService
	Blowout    *services.BlowoutRiskService
	Context    *services.GameContextService
	Advanced   *services.AdvancedMetricsService
	CacheData  *cache.CacheService
	CacheSync  *cache.CacheSyncService
	Logger     *logrus.Logger
}

// SetupRoutes registers the API surface on the given group.
func SetupRoutes(group *gin.RouterGroup, deps Deps) {
	confidenceHandler := handlers.NewConfidenceHandler(deps.Stats, deps.Confidence, deps.CacheData, deps.CacheSync, deps.Logger)
	impactsHandler := handlers.NewImpactsHandler(deps.Stats, deps.Games, deps.Rest, deps.Blowout, deps.Context, deps.Advanced, deps.CacheData, deps.Logger)
	dashboardHandler := handlers.NewDashboardHandler(deps.Stats, deps.Confidence, deps.CacheData, deps.CacheSync, deps.Logger)

	group.GET("/players/:id/confidence", confidenceHandler.GetConfidence)
	group.GET("/players/:id/impacts/rest", impactsHandler.GetRestImpact)
	group.GET("/players/:id/impacts/advanced", impactsHandler.GetAdvancedImpact)
	group.GET("/players/:id/impacts/context", impactsHandler.GetGameContext)
	group.GET("/games/:id/blowout", impactsHandler.GetBlowoutRisk)
	group.GET("/dashboard", dashboardHandler.GetDashboard)
}
