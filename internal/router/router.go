package router

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/weibaohui/contracthub/config"
	"github.com/weibaohui/contracthub/internal/handler"
	"github.com/weibaohui/contracthub/internal/middleware"
	"github.com/weibaohui/contracthub/internal/model"
	"github.com/weibaohui/contracthub/internal/service"
	"github.com/weibaohui/contracthub/internal/web"
)

// Handlers 路由用到的全部 handler
type Handlers struct {
	Auth         *handler.AuthHandler
	Contract     *handler.ContractHandler
	Attachment   *handler.AttachmentHandler
	Client       *handler.ClientHandler
	User         *handler.UserHandler
	Term         *handler.TermHandler
	Report       *handler.ReportHandler
	Notification *handler.NotificationHandler
	Health       *handler.HealthHandler
	WS           *handler.WSHandler
}

func Setup(cfg *config.Config, auth service.AuthService, h Handlers) *gin.Engine {
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
	}))
	r.Use(middleware.Metrics())

	r.GET("/health", h.Health.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/sign/:id/:token", handler.SignRedirect("/pdf-sign.html"))

	authed := middleware.Auth(auth)
	staff := middleware.RequireRoles(model.RoleAdmin, model.RoleStaff)
	staffOrSigner := middleware.RolesOrSigner(model.RoleAdmin, model.RoleStaff)
	admin := middleware.RequireRoles(model.RoleAdmin)

	r.GET("/ws", authed, staff, h.WS.Serve)

	api := r.Group("/api")
	{
		api.POST("/login", h.Auth.Login)

		contracts := api.Group("/contracts", authed)
		{
			contracts.GET("", staff, h.Contract.List)
			contracts.POST("", staff, h.Contract.Create)
			contracts.GET("/export/csv", staff, h.Contract.ExportCSV)
			contracts.GET("/export/xlsx", staff, h.Contract.ExportXLSX)
			contracts.GET("/:id", staffOrSigner, h.Contract.Get)
			contracts.PUT("/:id", staff, h.Contract.Update)
			contracts.DELETE("/:id", admin, h.Contract.Delete)
			contracts.POST("/:id/sign", staffOrSigner, h.Contract.Sign)
			contracts.GET("/:id/download", staffOrSigner, h.Contract.Download)
			contracts.POST("/:id/signing-link", staff, h.Contract.SigningLink)
			contracts.POST("/:id/attachments", staffOrSigner, h.Attachment.Save)
			contracts.GET("/:id/attachments", staffOrSigner, h.Attachment.List)
			contracts.GET("/:id/attachments/file/:filename", staffOrSigner, h.Attachment.File)
		}

		clients := api.Group("/clients", authed, staff)
		{
			clients.GET("", h.Client.List)
			clients.POST("", h.Client.Create)
			clients.GET("/:id", h.Client.Get)
			clients.PUT("/:id", h.Client.Update)
			clients.DELETE("/:id", h.Client.Delete)
		}

		users := api.Group("/users", authed)
		{
			users.GET("/me", h.User.Me)
			users.GET("", admin, h.User.List)
			users.POST("", admin, h.User.Create)
			users.GET("/:id", middleware.SelfOrRoles(model.RoleAdmin), h.User.Get)
			users.PUT("/:id", middleware.SelfOrRoles(model.RoleAdmin), h.User.Update)
			users.DELETE("/:id", admin, h.User.Delete)
		}

		terms := api.Group("/terms", authed, staff)
		{
			terms.GET("", h.Term.List)
			terms.POST("", h.Term.Create)
			terms.GET("/:id", h.Term.Get)
			terms.PUT("/:id", h.Term.Update)
			terms.DELETE("/:id", h.Term.Delete)
		}

		reports := api.Group("/reports", authed, staff)
		{
			for _, kind := range []service.ReportKind{service.ReportCollectors, service.ReportMarketers, service.ReportClients} {
				reports.GET("/"+string(kind), h.Report.Summary(kind))
				reports.GET("/"+string(kind)+"/:name", h.Report.Detail(kind))
			}
		}

		notifications := api.Group("/notifications", authed, staff)
		{
			notifications.POST("", h.Notification.Send)
			notifications.GET("/online", h.Notification.Online)
		}
	}

	web.Setup(r, cfg.Storage.PublicDir)

	return r
}
