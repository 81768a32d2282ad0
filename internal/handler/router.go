package handler

import (
	"github.com/gin-gonic/gin"
)

// Handlers 汇总了所有控制器，用于注册路由。
type Handlers struct {
	Auth       *AuthHandler
	Document   *DocumentHandler
	Collection *CollectionHandler
	Member     *MemberHandler
	Chat       *ChatHandler
	Analytics  *AnalyticsHandler
}

// Register 把所有路由挂到 r 上。admin 为 nil 时管理接口不做鉴权。
func (h *Handlers) Register(r *gin.Engine, admin gin.HandlerFunc) {
	if admin == nil {
		admin = func(c *gin.Context) { c.Next() }
	}

	r.GET("/health", Health)

	apiV1 := r.Group("/api/v1")
	{
		apiV1.POST("/auth/login", h.Auth.Login)

		documents := apiV1.Group("/documents")
		{
			documents.POST("/upload", h.Document.Upload)
			documents.GET("", h.Document.List)
			documents.GET("/stats/overview", h.Document.Stats)
			documents.GET("/types/list", h.Document.Types)
			documents.GET("/search", h.Document.Search)
			documents.GET("/search/index", h.Document.SearchIndex)
			documents.GET("/type/:type", h.Document.ByType)
			documents.GET("/:id", h.Document.Get)
			documents.GET("/:id/download", h.Document.Download)
			documents.DELETE("/:id", admin, h.Document.Delete)
			documents.PUT("/:id/tags", h.Document.UpdateTags)
			documents.PUT("/:id/category", h.Document.UpdateCategory)
		}

		collections := apiV1.Group("/collections")
		{
			collections.POST("", h.Collection.Create)
			collections.GET("", h.Collection.List)
			collections.GET("/:id/documents", h.Collection.Documents)
			collections.PUT("/:id/add", h.Collection.AddDocuments)
		}

		members := apiV1.Group("/members")
		{
			members.POST("/upload-csv", admin, h.Member.UploadCSV)
			members.GET("", h.Member.List)
		}

		chat := apiV1.Group("/chat")
		{
			chat.POST("/query", h.Chat.Query)
			chat.GET("/context", h.Chat.Context)
			chat.GET("/history/:sessionId", h.Chat.History)
			chat.GET("/ws", h.Chat.Websocket)
		}

		apiV1.GET("/stats/overview", h.Analytics.Stats)

		analytics := apiV1.Group("/analytics")
		{
			analytics.GET("/members", h.Analytics.Members)
			analytics.GET("/documents", h.Analytics.Documents)
			analytics.GET("/overview", h.Analytics.Overview)
		}
	}
}
