// Package router wires middleware and handlers into the gin engine.
package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/quienpaga/quienpaga-backend/config"
	"github.com/quienpaga/quienpaga-backend/handlers"
	"github.com/quienpaga/quienpaga-backend/middleware"
	"github.com/quienpaga/quienpaga-backend/types"
)

// Dependencies holds everything SetupRouter needs.
type Dependencies struct {
	Config        *config.Config
	RedisClient   *redis.Client
	GroupHandler  *handlers.GroupHandler
	LedgerHandler *handlers.LedgerHandler
	HealthHandler *handlers.HealthHandler
	AuthHandler   *handlers.AuthHandler
	RoleChecker   middleware.RoleChecker
}

// SetupRouter configures and returns the main gin engine.
func SetupRouter(deps Dependencies) *gin.Engine {
	if deps.Config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.RequestMetrics())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.CORSMiddleware(&deps.Config.Server))

	// Health and metrics, unauthenticated.
	r.GET("/health", deps.HealthHandler.DetailedHealth)
	r.GET("/health/liveness", deps.HealthHandler.LivenessCheck)
	r.GET("/health/readiness", deps.HealthHandler.ReadinessCheck)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/v1")

	if deps.AuthHandler != nil {
		v1.POST("/auth/refresh", deps.AuthHandler.RefreshTokenHandler)
	}

	authed := v1.Group("")
	authed.Use(middleware.AuthMiddleware(&deps.Config.Supabase))
	if deps.RedisClient != nil {
		authed.Use(middleware.RateLimiter(
			deps.RedisClient,
			deps.Config.RateLimit.RequestsPerMinute,
			time.Duration(deps.Config.RateLimit.WindowSeconds)*time.Second,
		))
	}

	groups := authed.Group("/groups")
	{
		groups.POST("", deps.GroupHandler.CreateGroupHandler)
		groups.GET("", deps.GroupHandler.ListGroupsHandler)
		groups.GET("/:id", deps.GroupHandler.GetGroupHandler)

		// Mutations to the group itself and its membership are admin only.
		groups.PATCH("/:id",
			middleware.RequireGroupRole(deps.RoleChecker, types.MemberRoleAdmin),
			deps.GroupHandler.UpdateGroupHandler,
		)
		groups.DELETE("/:id",
			middleware.RequireGroupRole(deps.RoleChecker, types.MemberRoleAdmin),
			deps.GroupHandler.DeleteGroupHandler,
		)

		members := groups.Group("/:id/members")
		{
			members.GET("",
				middleware.RequireGroupRole(deps.RoleChecker, types.MemberRoleMember),
				deps.GroupHandler.GetMembersHandler,
			)
			members.POST("",
				middleware.RequireGroupRole(deps.RoleChecker, types.MemberRoleAdmin),
				deps.GroupHandler.AddMemberHandler,
			)
		}

		ledger := groups.Group("/:id")
		ledger.Use(middleware.RequireGroupRole(deps.RoleChecker, types.MemberRoleMember))
		{
			ledger.POST("/expenses", deps.LedgerHandler.CreateExpenseHandler)
			ledger.GET("/expenses", deps.LedgerHandler.ListExpensesHandler)
			ledger.POST("/transfers", deps.LedgerHandler.CreateTransferHandler)
			ledger.GET("/transfers", deps.LedgerHandler.ListTransfersHandler)
			ledger.GET("/balances", deps.LedgerHandler.GetBalancesHandler)
		}
	}

	return r
}
