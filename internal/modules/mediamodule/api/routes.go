package api

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers all catalog routes.
func RegisterRoutes(router *gin.Engine, handler *Handler) {
	mediaGroup := router.Group("/api/media")
	{
		mediaGroup.GET("", handler.GetMedia)
		mediaGroup.GET("/search", handler.SearchMedia)
		mediaGroup.POST("", handler.CreateMedia)
		mediaGroup.POST("/remove", handler.DeleteMediaBulk)
		mediaGroup.POST("/publish", handler.PublishMediaBulk(true))
		mediaGroup.POST("/unpublish", handler.PublishMediaBulk(false))
		mediaGroup.GET("/:id", handler.GetMediaByID)
		mediaGroup.PATCH("/:id", handler.UpdateMedia)
		mediaGroup.DELETE("/:id", handler.DeleteMedia)
		mediaGroup.POST("/:id/publish", handler.PublishMedia(true))
		mediaGroup.POST("/:id/unpublish", handler.PublishMedia(false))
		mediaGroup.POST("/:id/views", handler.IncrementViews)
	}

	pointGroup := router.Group("/api/points")
	{
		pointGroup.GET("", handler.GetPoints)
		pointGroup.POST("", handler.CreatePoints)
		pointGroup.PATCH("/:id", handler.UpdatePoint)
		pointGroup.DELETE("/:id", handler.DeletePoint)
	}
}
