package employee

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts the employee resource. writeGuards run before the
// mutating handlers only (rate limit, idempotency).
func RegisterRoutes(r gin.IRouter, handler *Handler, writeGuards ...gin.HandlerFunc) {
	guarded := func(h gin.HandlerFunc) []gin.HandlerFunc {
		chain := make([]gin.HandlerFunc, 0, len(writeGuards)+1)
		return append(append(chain, writeGuards...), h)
	}

	employees := r.Group("/employees")
	{
		for _, path := range []string{"", "/"} {
			employees.GET(path, handler.List)
			employees.POST(path, guarded(handler.Create)...)
		}

		employees.GET("/:id", handler.GetByID)
		employees.DELETE("/:id", guarded(handler.Delete)...)
	}
}
