package sispendik

import (
	"github.com/gofiber/fiber/v2"

	"sekolah-backend/internal/audit"
	"sekolah-backend/internal/auth"
	"sekolah-backend/internal/models"
)

// RegisterRoutes mounts the sispendik API. Reads are public; every mutation
// goes through requireAuth. Catalog deletes, period resets and undo are
// reserved for super admins.
func RegisterRoutes(api fiber.Router, svc *Service, auditRepo audit.Repository, requireAuth fiber.Handler) {
	requireAdmin := auth.RequireRole(models.RoleSuperAdmin)
	sp := api.Group("/sispendik")

	sp.Get("/waste-types", ListWasteTypesHandler(svc))
	sp.Post("/waste-types", requireAuth, CreateWasteTypeHandler(svc))
	sp.Put("/waste-types/:id", requireAuth, UpdateWasteTypeHandler(svc))
	sp.Delete("/waste-types/:id", requireAuth, requireAdmin, DeleteWasteTypeHandler(svc))

	sp.Get("/classes", ListClassesHandler(svc))

	sp.Get("/teachers", ListTeachersHandler(svc))
	sp.Post("/teachers", requireAuth, CreateTeacherHandler(svc))
	sp.Put("/teachers/:id", requireAuth, UpdateTeacherHandler(svc))
	sp.Delete("/teachers/:id", requireAuth, requireAdmin, DeleteTeacherHandler(svc))

	sp.Get("/deposits", ListDepositsHandler(svc))
	sp.Post("/deposits/reset", requireAuth, requireAdmin, ResetPeriodHandler(svc))
	sp.Get("/deposits/:id", GetDepositHandler(svc))
	sp.Post("/deposits", requireAuth, CreateDepositHandler(svc))
	sp.Put("/deposits/:id", requireAuth, UpdateDepositHandler(svc))
	sp.Delete("/deposits/:id", requireAuth, DeleteDepositHandler(svc))

	sp.Get("/reports/year-recap", YearRecapHandler(svc))
	sp.Get("/reports/:dimension/export", ExportReportHandler(svc))
	sp.Get("/reports/:dimension", ReportHandler(svc))
	sp.Get("/rankings/:dimension", RankingHandler(svc))

	logs := api.Group("/audit-logs", requireAuth)
	logs.Get("/", audit.ListAuditLogsHandler(auditRepo))
	logs.Post("/:id/undo", requireAdmin, UndoAuditLogHandler(svc))
}
