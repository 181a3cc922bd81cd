package sispendik

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"sekolah-backend/internal/auth"
	"sekolah-backend/internal/validate"
)

func actor(c *fiber.Ctx) Actor {
	id, name := auth.Actor(c)
	return Actor{UserID: id, UserName: name}
}

func paramID(c *fiber.Ctx) (uint, error) {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return 0, validate.NewValidationError("id", "id tidak valid")
	}
	return uint(id), nil
}

func parseBody(c *fiber.Ctx, out interface{}) error {
	if err := c.BodyParser(out); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Body JSON tidak valid")
	}
	return nil
}

func parseDimension(c *fiber.Ctx) (Dimension, error) {
	dim, ok := ParseDimension(c.Params("dimension"))
	if !ok {
		return "", validate.NewValidationError("dimension", "gunakan classes, teachers atau waste-types")
	}
	return dim, nil
}

func parseWindow(c *fiber.Ctx) (Window, error) {
	var w Window
	if err := c.QueryParser(&w); err != nil {
		return w, validate.NewValidationError("month", "month dan year harus berupa angka")
	}
	return w, nil
}

// -------------------------
// Jenis sampah
// -------------------------

// GET /api/sispendik/waste-types
func ListWasteTypesHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		types, err := svc.ListWasteTypes(c.UserContext())
		if err != nil {
			return Fail(c, err)
		}
		return ok(c, fiber.StatusOK, "OK", types)
	}
}

// POST /api/sispendik/waste-types
func CreateWasteTypeHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req WasteTypeRequest
		if err := parseBody(c, &req); err != nil {
			return Fail(c, err)
		}
		wt, err := svc.CreateWasteType(c.UserContext(), actor(c), req)
		if err != nil {
			return Fail(c, err)
		}
		return ok(c, fiber.StatusCreated, "Jenis sampah berhasil ditambahkan", wt)
	}
}

// PUT /api/sispendik/waste-types/:id
func UpdateWasteTypeHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c)
		if err != nil {
			return Fail(c, err)
		}
		var req WasteTypeRequest
		if err := parseBody(c, &req); err != nil {
			return Fail(c, err)
		}
		wt, err := svc.UpdateWasteType(c.UserContext(), actor(c), id, req)
		if err != nil {
			return Fail(c, err)
		}
		return ok(c, fiber.StatusOK, "Jenis sampah berhasil diperbarui", wt)
	}
}

// DELETE /api/sispendik/waste-types/:id
func DeleteWasteTypeHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c)
		if err != nil {
			return Fail(c, err)
		}
		if err := svc.DeleteWasteType(c.UserContext(), actor(c), id); err != nil {
			return Fail(c, err)
		}
		return ok(c, fiber.StatusOK, "Jenis sampah berhasil dihapus", nil)
	}
}

// -------------------------
// Kelas & guru
// -------------------------

// GET /api/sispendik/classes
func ListClassesHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		classes, err := svc.ListClasses(c.UserContext())
		if err != nil {
			return Fail(c, err)
		}
		type classResponse struct {
			ID      uint   `json:"id"`
			Grade   int    `json:"grade"`
			Section string `json:"section"`
			Label   string `json:"label"`
		}
		resp := make([]classResponse, 0, len(classes))
		for _, cl := range classes {
			resp = append(resp, classResponse{ID: cl.ID, Grade: cl.Grade, Section: cl.Section, Label: cl.Label()})
		}
		return ok(c, fiber.StatusOK, "OK", resp)
	}
}

// GET /api/sispendik/teachers
func ListTeachersHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		teachers, err := svc.ListTeachers(c.UserContext())
		if err != nil {
			return Fail(c, err)
		}
		return ok(c, fiber.StatusOK, "OK", teachers)
	}
}

// POST /api/sispendik/teachers
func CreateTeacherHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req TeacherRequest
		if err := parseBody(c, &req); err != nil {
			return Fail(c, err)
		}
		t, err := svc.CreateTeacher(c.UserContext(), actor(c), req)
		if err != nil {
			return Fail(c, err)
		}
		return ok(c, fiber.StatusCreated, "Guru berhasil ditambahkan", t)
	}
}

// PUT /api/sispendik/teachers/:id
func UpdateTeacherHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c)
		if err != nil {
			return Fail(c, err)
		}
		var req TeacherRequest
		if err := parseBody(c, &req); err != nil {
			return Fail(c, err)
		}
		t, err := svc.UpdateTeacher(c.UserContext(), actor(c), id, req)
		if err != nil {
			return Fail(c, err)
		}
		return ok(c, fiber.StatusOK, "Guru berhasil diperbarui", t)
	}
}

// DELETE /api/sispendik/teachers/:id
func DeleteTeacherHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c)
		if err != nil {
			return Fail(c, err)
		}
		if err := svc.DeleteTeacher(c.UserContext(), actor(c), id); err != nil {
			return Fail(c, err)
		}
		return ok(c, fiber.StatusOK, "Guru berhasil dihapus", nil)
	}
}

// -------------------------
// Setoran
// -------------------------

// GET /api/sispendik/deposits?owner_type=class&owner_id=1&month=3&year=2024
func ListDepositsHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var q DepositQuery
		if err := c.QueryParser(&q); err != nil {
			return Fail(c, fiber.NewError(fiber.StatusBadRequest, "Parameter query tidak valid"))
		}
		deposits, err := svc.ListDeposits(c.UserContext(), q)
		if err != nil {
			return Fail(c, err)
		}
		return ok(c, fiber.StatusOK, "OK", deposits)
	}
}

// GET /api/sispendik/deposits/:id
func GetDepositHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c)
		if err != nil {
			return Fail(c, err)
		}
		d, err := svc.GetDeposit(c.UserContext(), id)
		if err != nil {
			return Fail(c, err)
		}
		return ok(c, fiber.StatusOK, "OK", d)
	}
}

// POST /api/sispendik/deposits
func CreateDepositHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req DepositRequest
		if err := parseBody(c, &req); err != nil {
			return Fail(c, err)
		}
		d, err := svc.CreateDeposit(c.UserContext(), actor(c), req)
		if err != nil {
			return Fail(c, err)
		}
		return ok(c, fiber.StatusCreated, "Setoran berhasil disimpan", d)
	}
}

// PUT /api/sispendik/deposits/:id
func UpdateDepositHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c)
		if err != nil {
			return Fail(c, err)
		}
		var req UpdateDepositRequest
		if err := parseBody(c, &req); err != nil {
			return Fail(c, err)
		}
		d, err := svc.UpdateDeposit(c.UserContext(), actor(c), id, req)
		if err != nil {
			return Fail(c, err)
		}
		return ok(c, fiber.StatusOK, "Setoran berhasil diperbarui", d)
	}
}

// DELETE /api/sispendik/deposits/:id
func DeleteDepositHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c)
		if err != nil {
			return Fail(c, err)
		}
		if err := svc.DeleteDeposit(c.UserContext(), actor(c), id); err != nil {
			return Fail(c, err)
		}
		return ok(c, fiber.StatusOK, "Setoran berhasil dihapus", nil)
	}
}

// POST /api/sispendik/deposits/reset
func ResetPeriodHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req ResetRequest
		if err := parseBody(c, &req); err != nil {
			return Fail(c, err)
		}
		res, err := svc.ResetPeriod(c.UserContext(), actor(c), req)
		if err != nil {
			return Fail(c, err)
		}
		return ok(c, fiber.StatusOK, fmt.Sprintf("%d setoran periode %s dihapus", res.Deleted, res.Period), res)
	}
}

// -------------------------
// Laporan & peringkat
// -------------------------

// GET /api/sispendik/reports/:dimension?month=3&year=2024
func ReportHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		dim, err := parseDimension(c)
		if err != nil {
			return Fail(c, err)
		}
		w, err := parseWindow(c)
		if err != nil {
			return Fail(c, err)
		}
		rep, err := svc.Report(c.UserContext(), dim, w)
		if err != nil {
			return Fail(c, err)
		}
		return ok(c, fiber.StatusOK, "OK", rep)
	}
}

// GET /api/sispendik/reports/year-recap?year=2024&owner_type=class
func YearRecapHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var q RecapQuery
		if err := c.QueryParser(&q); err != nil {
			return Fail(c, validate.NewValidationError("year", "year harus berupa angka"))
		}
		rec, err := svc.YearRecap(c.UserContext(), q)
		if err != nil {
			return Fail(c, err)
		}
		return ok(c, fiber.StatusOK, "OK", rec)
	}
}

// GET /api/sispendik/reports/:dimension/export?month=3&year=2024
func ExportReportHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		dim, err := parseDimension(c)
		if err != nil {
			return Fail(c, err)
		}
		w, err := parseWindow(c)
		if err != nil {
			return Fail(c, err)
		}
		rep, err := svc.Report(c.UserContext(), dim, w)
		if err != nil {
			return Fail(c, err)
		}

		c.Set(fiber.HeaderContentType, xlsxContentType)
		c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="sispendik-%s-%s.xlsx"`, dim, w))
		if err := WriteReportXLSX(c.Response().BodyWriter(), rep); err != nil {
			return Fail(c, err)
		}
		return nil
	}
}

// GET /api/sispendik/rankings/:dimension?month=3&year=2024&limit=3
func RankingHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		dim, err := parseDimension(c)
		if err != nil {
			return Fail(c, err)
		}
		w, err := parseWindow(c)
		if err != nil {
			return Fail(c, err)
		}
		ranked, err := svc.Ranking(c.UserContext(), dim, w, c.QueryInt("limit", DefaultRankLimit))
		if err != nil {
			return Fail(c, err)
		}
		return ok(c, fiber.StatusOK, "OK", ranked)
	}
}

// -------------------------
// Audit
// -------------------------

// POST /api/audit-logs/:id/undo
func UndoAuditLogHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c)
		if err != nil {
			return Fail(c, err)
		}
		if err := svc.UndoAuditLog(c.UserContext(), actor(c), id); err != nil {
			return Fail(c, err)
		}
		return ok(c, fiber.StatusOK, "Aksi berhasil dibatalkan", nil)
	}
}
