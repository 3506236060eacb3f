package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-pedagogy-api/internal/models"
)

// Handlers groups every HTTP handler mounted by RegisterRoutes.
type Handlers struct {
	Auth          *AuthHandler
	Dashboard     *DashboardHandler
	Documents     *DocumentHandler
	Templates     *TemplateHandler
	Risk          *RiskHandler
	Interventions *InterventionHandler
	Occurrences   *OccurrenceHandler
	Imports       *ImportHandler
	Uploads       *UploadHandler
	Reference     *ReferenceHandler
	Audit         *AuditHandler
	Metrics       *MetricsHandler
}

// RouteMiddleware carries the middleware built by the caller.
type RouteMiddleware struct {
	Auth          gin.HandlerFunc
	SchoolScope   gin.HandlerFunc
	DefaultLimit  gin.HandlerFunc
	CriticalLimit gin.HandlerFunc
	RequireRoles  func(roles ...models.UserRole) gin.HandlerFunc
}

var (
	staffRoles      = []models.UserRole{models.RoleAdmin, models.RoleGestor, models.RoleSubgestor, models.RolePedagogo}
	everyRole       = []models.UserRole{models.RoleAdmin, models.RoleGestor, models.RoleSubgestor, models.RolePedagogo, models.RoleProfessor}
	templateEditors = []models.UserRole{models.RoleAdmin, models.RoleGestor, models.RoleSubgestor}
	riskOperators   = []models.UserRole{models.RoleAdmin, models.RoleGestor, models.RolePedagogo}
	auditReaders    = []models.UserRole{models.RoleAdmin, models.RoleGestor}
)

// RegisterRoutes mounts the API under group.
func RegisterRoutes(group *gin.RouterGroup, h Handlers, mw RouteMiddleware) {
	group.POST("/auth/login", mw.CriticalLimit, h.Auth.Login)
	// signed links are the credential
	group.GET("/uploads/:token", mw.DefaultLimit, h.Uploads.Download)

	me := group.Group("", mw.Auth, mw.DefaultLimit)
	me.GET("/auth/me", h.Auth.Me)

	api := group.Group("", mw.Auth, mw.SchoolScope, mw.DefaultLimit)
	roles := mw.RequireRoles

	api.GET("/dashboard", h.Dashboard.Summary)
	api.GET("/reference", h.Reference.Get)
	api.GET("/audit-logs", roles(auditReaders...), h.Audit.List)
	api.GET("/system/metrics", roles(models.RoleAdmin), h.Metrics.System)

	documents := api.Group("/documents")
	documents.GET("", h.Documents.List)
	documents.POST("", roles(staffRoles...), mw.CriticalLimit, h.Documents.Create)
	documents.GET("/:id", h.Documents.Get)
	documents.PUT("/:id", roles(staffRoles...), mw.CriticalLimit, h.Documents.Update)
	documents.PATCH("/:id", roles(staffRoles...), mw.CriticalLimit, h.Documents.Action)
	documents.GET("/:id/revisions", h.Documents.Revisions)
	documents.GET("/:id/pdf", h.Documents.PDF)
	documents.GET("/:id/docx", h.Documents.DOCX)

	templates := api.Group("/templates")
	templates.GET("", h.Templates.List)
	templates.GET("/:id", h.Templates.Get)
	templates.POST("", roles(templateEditors...), h.Templates.Create)
	templates.PATCH("/:id", roles(templateEditors...), h.Templates.Update)

	rules := api.Group("/risk-rules", roles(riskOperators...))
	rules.GET("", h.Risk.ListRules)
	rules.POST("", h.Risk.CreateRule)
	rules.POST("/run", mw.CriticalLimit, h.Risk.Run)
	rules.PUT("/:id", h.Risk.UpdateRule)
	rules.PATCH("/:id", h.Risk.ToggleRule)

	alerts := api.Group("/risk-alerts", roles(staffRoles...))
	alerts.GET("", h.Risk.ListAlerts)
	alerts.GET("/export", h.Risk.ExportAlerts)
	alerts.POST("/:id/ack", h.Risk.AcknowledgeAlert)

	interventions := api.Group("/interventions", roles(staffRoles...))
	interventions.GET("", h.Interventions.List)
	interventions.GET("/:id", h.Interventions.Get)
	interventions.POST("", mw.CriticalLimit, h.Interventions.Create)
	interventions.PATCH("/:id", mw.CriticalLimit, h.Interventions.Update)

	occurrences := api.Group("/occurrences")
	occurrences.GET("", h.Occurrences.List)
	occurrences.GET("/:id", h.Occurrences.Get)
	occurrences.POST("", roles(everyRole...), mw.CriticalLimit, h.Occurrences.Create)
	occurrences.PATCH("/:id", roles(staffRoles...), h.Occurrences.Update)
	occurrences.DELETE("/:id", roles(models.RoleAdmin), h.Occurrences.Delete)

	api.POST("/imports/grades", roles(riskOperators...), mw.CriticalLimit, h.Imports.Grades)
	api.POST("/uploads", roles(everyRole...), mw.CriticalLimit, h.Uploads.Upload)
}
