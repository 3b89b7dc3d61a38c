package attendance

import "github.com/gin-gonic/gin"

func RegisterRoutes(r gin.IRouter, h *Handler, writeGuards ...gin.HandlerFunc) {
	create := make([]gin.HandlerFunc, 0, len(writeGuards)+1)
	create = append(append(create, writeGuards...), h.Create)

	attendance := r.Group("/attendance")
	{
		for _, path := range []string{"", "/"} {
			attendance.GET(path, h.List)
			attendance.POST(path, create...)
		}
		attendance.GET("/summary", h.Summary)
	}
}
