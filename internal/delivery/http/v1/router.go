package v1

import (
	"net/http"

	"exec-marketplace-backend/config"
	"exec-marketplace-backend/internal/delivery/http/middleware"
	"exec-marketplace-backend/internal/delivery/http/response"
	"exec-marketplace-backend/internal/domain"
	"exec-marketplace-backend/pkg/auth"
	"exec-marketplace-backend/pkg/webhook"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

type RouterDeps struct {
	SearchUC     domain.SearchUsecase
	DisclosureUC domain.DisclosureUsecase
	CandidateUC  domain.CandidateUsecase
	AccountRepo  domain.AccountRepository
	JWKSProvider *auth.Provider
	Verifier     *webhook.Verifier
	Config       *config.Config
}

func NewRouter(deps RouterDeps) *gin.Engine {
	r := gin.New()

	// Global Middlewares
	r.Use(middleware.CORSMiddleware()) // CORS must be first!
	r.Use(gin.Recovery())
	r.Use(gin.Logger())
	r.Use(middleware.SecurityHeadersMiddleware())
	r.Use(middleware.RequestID())
	r.Use(middleware.ErrorHandler())

	v1 := r.Group("/v1")

	// Health Check
	v1.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, "System operational", nil)
	})

	// Swagger
	v1.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Payment processor callback: authenticated by signature, not by JWT.
	NewWebhookHandler(v1, deps.DisclosureUC, deps.Verifier)

	// Search runs for anonymous viewers too (public mode, maximal
	// redaction); a present token upgrades the view.
	searchGroup := v1.Group("")
	searchGroup.Use(middleware.RateLimitMiddleware(middleware.SearchRateLimitConfig()))
	searchGroup.Use(middleware.OptionalAuthMiddleware(deps.JWKSProvider, deps.Config, deps.AccountRepo))
	NewSearchHandler(searchGroup, deps.SearchUC)

	// Protected routes
	protected := v1.Group("")
	protected.Use(middleware.AuthMiddleware(deps.JWKSProvider, deps.Config, deps.AccountRepo))
	{
		unlockLimited := protected.Group("")
		unlockLimited.Use(middleware.RateLimitMiddleware(middleware.UnlockRateLimitConfig()))
		NewDisclosureHandler(unlockLimited, deps.DisclosureUC)

		NewCandidateHandler(v1, protected, deps.CandidateUC)
	}

	return r
}
