package handler

import (
	"github.com/atlas-express/service-delivery/internal/apperr"
	"github.com/gin-gonic/gin"
)

// respondError renders err as {"error": message} with the status carried by
// its error kind.
func respondError(c *gin.Context, err error) {
	c.JSON(apperr.StatusOf(err), gin.H{"error": err.Error()})
}
