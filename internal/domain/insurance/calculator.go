package insurance

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CalculationDetail is the per (employee, insurance type, payer role) result
// of one computation. Failures are recorded here as data; the calculator
// never aborts an enclosing aggregation.
type CalculationDetail struct {
	EmployeeID   uuid.UUID       `json:"employee_id"`
	TypeKey      TypeKey         `json:"insurance_type_key"`
	TypeName     string          `json:"insurance_type_name,omitempty"`
	Role         PayerRole       `json:"payer_role"`
	Success      bool            `json:"success"`
	Amount       decimal.Decimal `json:"amount"`
	AdjustedBase decimal.Decimal `json:"adjusted_base"`
	Rate         decimal.Decimal `json:"rate"`
	ErrorCode    string          `json:"error_code,omitempty"`
	ErrorReason  string          `json:"error_reason,omitempty"`
}

// failedDetail builds a failure detail for the given error code.
func failedDetail(employeeID uuid.UUID, key TypeKey, role PayerRole, code, reason string) CalculationDetail {
	return CalculationDetail{
		EmployeeID:  employeeID,
		TypeKey:     key,
		Role:        role,
		Amount:      decimal.Zero,
		ErrorCode:   code,
		ErrorReason: reason,
	}
}

// Calculate computes one contribution amount from an employee snapshot. It is
// a pure function: all data-store access happened when the snapshot was
// resolved. The steps follow the engine contract in order: catalog lookup,
// base lookup, rule lookup, clamp, rate application, rounding.
func Calculate(snapshot *EmployeeSnapshot, key TypeKey, role PayerRole) CalculationDetail {
	insType, ok := snapshot.Catalog.ByKey(key)
	if !ok {
		return failedDetail(snapshot.EmployeeID, key, role,
			CodeUnknownInsuranceType,
			fmt.Sprintf("insurance type %q is not in the catalog", key))
	}

	rule := snapshot.RuleForType(insType.ID)

	base, hasBase := snapshot.Bases[key]
	if !hasBase {
		// A missing base is forgiven only when the resolved rule marks
		// the type inapplicable to the employee's category. There is no
		// other zero-defaulting path.
		if rule != nil && !rule.Applicable {
			return inapplicableDetail(snapshot.EmployeeID, insType, role)
		}
		return failedDetail(snapshot.EmployeeID, key, role,
			CodeContributionBaseMissing,
			fmt.Sprintf("no contribution base for type %q in period %s", key, snapshot.PeriodID))
	}

	if rule == nil {
		return failedDetail(snapshot.EmployeeID, key, role,
			CodeRuleMissing,
			fmt.Sprintf("no rule configured for type %q and category %s on %s",
				key, snapshot.CategoryID, snapshot.ReferenceDate.Format("2006-01-02")))
	}
	if !rule.Applicable {
		return inapplicableDetail(snapshot.EmployeeID, insType, role)
	}

	adjusted := rule.ClampBase(base.Amount)
	rate := rule.Rate(role)
	amount := RoundForType(key, adjusted.Mul(rate))

	return CalculationDetail{
		EmployeeID:   snapshot.EmployeeID,
		TypeKey:      key,
		TypeName:     insType.Name,
		Role:         role,
		Success:      true,
		Amount:       amount,
		AdjustedBase: adjusted,
		Rate:         rate,
	}
}

// inapplicableDetail records a zero-amount success for a type that does not
// apply to the employee's category. Informational, not a failure.
func inapplicableDetail(employeeID uuid.UUID, insType InsuranceType, role PayerRole) CalculationDetail {
	return CalculationDetail{
		EmployeeID:  employeeID,
		TypeKey:     insType.Key,
		TypeName:    insType.Name,
		Role:        role,
		Success:     true,
		Amount:      decimal.Zero,
		ErrorCode:   CodeRuleNotApplicable,
		ErrorReason: fmt.Sprintf("type %q does not apply to the employee's category", insType.Key),
	}
}
