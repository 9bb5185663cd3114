package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	insuranceapp "github.com/payroll/backend/internal/application/insurance"
	"github.com/payroll/backend/internal/domain/insurance"
	"github.com/payroll/backend/internal/interfaces/http/dto"
)

// InsuranceHandler handles contribution calculation requests
type InsuranceHandler struct {
	BaseHandler
	calcService   *insuranceapp.CalculationService
	batchService  *insuranceapp.BatchService
	exportService *insuranceapp.ExportService
}

// NewInsuranceHandler creates a new InsuranceHandler. The export service may
// be nil when object storage is disabled.
func NewInsuranceHandler(
	calcService *insuranceapp.CalculationService,
	batchService *insuranceapp.BatchService,
	exportService *insuranceapp.ExportService,
) *InsuranceHandler {
	return &InsuranceHandler{
		calcService:   calcService,
		batchService:  batchService,
		exportService: exportService,
	}
}

// CalculateSingle handles POST /api/v1/insurance/calculations/single
func (h *InsuranceHandler) CalculateSingle(c *gin.Context) {
	var req dto.SingleCalculationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	detail, err := h.calcService.CalculateSingle(c.Request.Context(), insuranceapp.SingleCalculationInput{
		EmployeeID: uuid.MustParse(req.EmployeeID),
		PeriodID:   uuid.MustParse(req.PeriodID),
		TypeKey:    insurance.TypeKey(req.InsuranceTypeKey),
		IsEmployer: req.IsEmployer,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, detail)
}

// CalculateEmployee handles POST /api/v1/insurance/calculations/employee
func (h *InsuranceHandler) CalculateEmployee(c *gin.Context) {
	var req dto.EmployeeCalculationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.calcService.CalculateEmployee(c.Request.Context(), insuranceapp.EmployeeCalculationInput{
		EmployeeID:           uuid.MustParse(req.EmployeeID),
		PeriodID:             uuid.MustParse(req.PeriodID),
		IncludeOptionalTypes: req.IncludeOptionalTypes,
		Persist:              req.Persist,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// CalculateBatch handles POST /api/v1/insurance/calculations/batch
func (h *InsuranceHandler) CalculateBatch(c *gin.Context) {
	var req dto.BatchCalculationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	summary, err := h.batchService.RunBatch(c.Request.Context(), insuranceapp.BatchInput{
		PeriodID:             uuid.MustParse(req.PeriodID),
		EmployeeIDs:          parseUUIDs(req.EmployeeIDs),
		IncludeOptionalTypes: req.IncludeOptionalTypes,
		Persist:              req.Persist,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, summary)
}

// ExportBatch handles POST /api/v1/insurance/calculations/batch/export
func (h *InsuranceHandler) ExportBatch(c *gin.Context) {
	if h.exportService == nil {
		h.Error(c, 503, "EXPORT_DISABLED", "Object storage is not configured")
		return
	}

	var req dto.BatchExportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	encoding := c.Query("encoding")
	result, err := h.exportService.ExportBatchDetails(c.Request.Context(), insuranceapp.ExportInput{
		PeriodID:             uuid.MustParse(req.PeriodID),
		EmployeeIDs:          parseUUIDs(req.EmployeeIDs),
		IncludeOptionalTypes: req.IncludeOptionalTypes,
		Encoding:             encoding,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// parseUUIDs converts validated UUID strings. Binding already rejected
// malformed entries.
func parseUUIDs(values []string) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(values))
	for _, v := range values {
		if id, err := uuid.Parse(v); err == nil {
			out = append(out, id)
		}
	}
	return out
}
