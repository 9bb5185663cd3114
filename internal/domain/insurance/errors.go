package insurance

import "github.com/payroll/backend/internal/domain/shared"

// Error codes recorded on calculation details and batch results. Per-type and
// per-employee failures travel as data, not as returned errors; only
// batch-setup failures (period, catalog) abort a run.
const (
	CodeCategoryAssignmentMissing = "CATEGORY_ASSIGNMENT_MISSING"
	CodePeriodNotFound            = "PERIOD_NOT_FOUND"
	CodeRuleCatalogUnavailable    = "RULE_CATALOG_UNAVAILABLE"
	CodeContributionBaseMissing   = "CONTRIBUTION_BASE_MISSING"
	CodeRuleMissing               = "RULE_MISSING"
	CodeRuleNotApplicable         = "RULE_NOT_APPLICABLE"
	CodeUnknownInsuranceType      = "UNKNOWN_INSURANCE_TYPE"
	CodePayrollRecordMissing      = "PAYROLL_RECORD_MISSING"
	CodeWriteChunkFailed          = "WRITE_CHUNK_FAILED"
	CodeDataStoreTimeout          = "DATA_STORE_TIMEOUT"
)

var (
	ErrCategoryAssignmentMissing = shared.NewDomainError(CodeCategoryAssignmentMissing, "No category assignment exists for the employee in this period")
	ErrPeriodNotFound            = shared.NewDomainError(CodePeriodNotFound, "Payroll period not found")
	ErrRuleCatalogUnavailable    = shared.NewDomainError(CodeRuleCatalogUnavailable, "Insurance type catalog could not be loaded")
	ErrContributionBaseMissing   = shared.NewDomainError(CodeContributionBaseMissing, "Contribution base not found for insurance type")
	ErrRuleMissing               = shared.NewDomainError(CodeRuleMissing, "No insurance rule configured for type and category")
	ErrUnknownInsuranceType      = shared.NewDomainError(CodeUnknownInsuranceType, "Unknown insurance type key")
	ErrPayrollRecordMissing      = shared.NewDomainError(CodePayrollRecordMissing, "No payroll entry exists for the employee in this period")
	ErrWriteChunkFailed          = shared.NewDomainError(CodeWriteChunkFailed, "Line item write chunk failed after retries")
	ErrDataStoreTimeout          = shared.NewDomainError(CodeDataStoreTimeout, "Data store call timed out")
)
