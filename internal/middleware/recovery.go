// internal/middleware/recovery.go
package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/b2b-marketplace/internal/i18n"
	"github.com/javajoker/b2b-marketplace/internal/utils"
)

// Recovery turns panics into a 500 envelope. Outside production the panic
// value and stack are included in the response details.
func Recovery(production bool) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		stack := string(debug.Stack())
		logrus.WithFields(logrus.Fields{
			"panic":      fmt.Sprint(recovered),
			"path":       c.Request.URL.Path,
			"request_id": c.GetString("request_id"),
		}).Error("Recovered from panic")

		var details interface{}
		if !production {
			details = gin.H{"panic": fmt.Sprint(recovered), "stack": stack}
		}
		utils.ErrorResponse(c, http.StatusInternalServerError, "INTERNAL_ERROR",
			i18n.T(utils.GetLangFromContext(c), i18n.KeyInternalError), details)
	})
}
