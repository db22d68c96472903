package handler

import (
	"github.com/atlas-express/service-delivery/internal/application"
	"github.com/atlas-express/service-delivery/internal/auth"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// NewRouter builds the gin engine with all middleware and routes wired.
func NewRouter(
	log *zap.Logger,
	jwtManager *auth.JWTManager,
	service *application.DeliveryService,
	db *gorm.DB,
) *gin.Engine {
	router := gin.New()

	router.Use(RecoveryMiddleware(log))
	router.Use(LoggerMiddleware(log))
	router.Use(CORSMiddleware())

	NewHealthHandler(db, "service-delivery").RegisterRoutes(router)
	NewDeliveryHandler(service).RegisterRoutes(&router.RouterGroup, jwtManager)

	return router
}
