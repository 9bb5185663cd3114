package insurance

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BatchItemResult is the per-employee outcome of a calculation run.
type BatchItemResult struct {
	EmployeeID          uuid.UUID           `json:"employee_id"`
	Success             bool                `json:"success"`
	Message             string              `json:"message"`
	TotalEmployeeAmount decimal.Decimal     `json:"total_employee_amount"`
	TotalEmployerAmount decimal.Decimal     `json:"total_employer_amount"`
	PersistedItems      int                 `json:"persisted_items"`
	Details             []CalculationDetail `json:"details"`
}

// FailedBatchItem builds a failed result for an employee whose snapshot could
// not be resolved at all.
func FailedBatchItem(employeeID uuid.UUID, code, reason string) BatchItemResult {
	return BatchItemResult{
		EmployeeID:          employeeID,
		Message:             reason,
		TotalEmployeeAmount: decimal.Zero,
		TotalEmployerAmount: decimal.Zero,
		Details: []CalculationDetail{
			{
				EmployeeID:  employeeID,
				Success:     false,
				Amount:      decimal.Zero,
				ErrorCode:   code,
				ErrorReason: reason,
			},
		},
	}
}

// Aggregate runs the calculator for every contributing (type, role) pair in
// the snapshot's catalog and folds the details into a per-employee result.
// Totals are summed from successful details and rounded to 2 decimals once at
// the end. Failures stay inside the detail list; the employee-level success
// flag is false as soon as any required type failed to resolve.
func Aggregate(snapshot *EmployeeSnapshot, includeOptionalTypes bool) BatchItemResult {
	result := BatchItemResult{
		EmployeeID: snapshot.EmployeeID,
		Success:    true,
	}
	employeeTotal := decimal.Zero
	employerTotal := decimal.Zero
	var failures []string

	for _, key := range snapshot.Catalog.Keys() {
		if key.IsOptional() && !includeOptionalTypes {
			continue
		}
		insType, _ := snapshot.Catalog.ByKey(key)

		if insType.HasEmployeeContribution {
			detail := Calculate(snapshot, key, RoleEmployee)
			result.Details = append(result.Details, detail)
			if detail.Success {
				employeeTotal = employeeTotal.Add(detail.Amount)
			} else {
				failures = append(failures, detail.ErrorReason)
			}
		}
		if insType.HasEmployerContribution {
			detail := Calculate(snapshot, key, RoleEmployer)
			result.Details = append(result.Details, detail)
			if detail.Success {
				employerTotal = employerTotal.Add(detail.Amount)
			} else {
				failures = append(failures, detail.ErrorReason)
			}
		}
	}

	result.TotalEmployeeAmount = RoundStandard(employeeTotal)
	result.TotalEmployerAmount = RoundStandard(employerTotal)

	if len(failures) > 0 {
		result.Success = false
		result.Message = strings.Join(dedupe(failures), "; ")
	} else {
		result.Message = "calculated"
	}
	return result
}

// dedupe collapses repeated failure reasons (the same missing rule shows up
// once per payer role) while preserving order.
func dedupe(reasons []string) []string {
	seen := make(map[string]bool, len(reasons))
	out := reasons[:0]
	for _, r := range reasons {
		if !seen[r] {
			seen[r] = true
			out = append(out, r)
		}
	}
	return out
}
