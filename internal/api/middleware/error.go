package middleware

import (
	"fmt"
	"runtime/debug"

	apperrors "github.com/frostdev-ops/home-planner-go/pkg/errors"
	"github.com/frostdev-ops/home-planner-go/pkg/utils"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Recovery turns handler panics into a 500 response and logs the stack
func Recovery(logger *logrus.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		logger.WithFields(logrus.Fields{
			"request_id": c.GetString(ContextRequestID),
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"panic":      fmt.Sprint(recovered),
			"stack":      string(debug.Stack()),
		}).Error("Panic recovered")

		utils.SendAppError(c, apperrors.ErrInternalServer)
	})
}
