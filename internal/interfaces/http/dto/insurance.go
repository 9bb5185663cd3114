package dto

// SingleCalculationRequest asks for one insurance type for one payer role.
type SingleCalculationRequest struct {
	EmployeeID       string `json:"employee_id" binding:"required,uuid"`
	PeriodID         string `json:"period_id" binding:"required,uuid"`
	InsuranceTypeKey string `json:"insurance_type_key" binding:"required"`
	IsEmployer       bool   `json:"is_employer"`
}

// EmployeeCalculationRequest asks for a full per-employee computation.
type EmployeeCalculationRequest struct {
	EmployeeID           string `json:"employee_id" binding:"required,uuid"`
	PeriodID             string `json:"period_id" binding:"required,uuid"`
	IncludeOptionalTypes bool   `json:"include_optional_types"`
	Persist              bool   `json:"persist"`
}

// BatchCalculationRequest asks for a batch run. An empty employee list means
// every employee with a category assignment in the period.
type BatchCalculationRequest struct {
	PeriodID             string   `json:"period_id" binding:"required,uuid"`
	EmployeeIDs          []string `json:"employee_ids" binding:"omitempty,dive,uuid"`
	IncludeOptionalTypes bool     `json:"include_optional_types"`
	Persist              bool     `json:"persist"`
}

// BatchExportRequest asks for a computed-detail CSV export.
type BatchExportRequest struct {
	PeriodID             string   `json:"period_id" binding:"required,uuid"`
	EmployeeIDs          []string `json:"employee_ids" binding:"omitempty,dive,uuid"`
	IncludeOptionalTypes bool     `json:"include_optional_types"`
}
