package payroll

import (
	"github.com/cmlabs-hris/hris-workforce-go/internal/domain/payroll"
	"github.com/shopspring/decimal"
)

var minutesPerHour = decimal.NewFromInt(60)

// Calculate computes a payslip. Net is derived as gross minus deductions so the
// identity holds exactly; amounts are not rounded here.
func Calculate(in payroll.CalculationInput) (payroll.Breakdown, error) {
	if in.DaysInPeriod <= 0 || in.UnpaidLeaveDays.IsNegative() {
		return payroll.Breakdown{}, payroll.ErrInvalidPeriod
	}

	days := decimal.NewFromInt(int64(in.DaysInPeriod))
	if in.UnpaidLeaveDays.GreaterThan(days) {
		return payroll.Breakdown{}, payroll.ErrInvalidPeriod
	}

	var b payroll.Breakdown

	b.ProratedBasic = in.BasicSalary.Mul(days.Sub(in.UnpaidLeaveDays)).Div(days)
	b.Allowances, b.AllowancesDetail = sumComponents(in.Allowances)
	b.OvertimePay = in.OvertimeRatePerHour.Mul(decimal.NewFromInt(int64(in.OvertimeMinutes))).Div(minutesPerHour)
	b.Gross = b.ProratedBasic.Add(b.Allowances).Add(b.OvertimePay)

	components, detail := sumComponents(in.Deductions)
	statutory := in.BasicSalary.Mul(in.Policy.StatutoryRateOfBasic)
	if !statutory.IsZero() {
		detail["Statutory"] = detail["Statutory"].Add(statutory)
	}
	b.StatutoryDeductions = components.Add(statutory)
	b.DeductionsDetail = detail

	b.UnpaidLeaveDeduction = in.BasicSalary.Mul(in.UnpaidLeaveDays).Div(days)
	b.LatenessPenalty = in.Policy.LatePenaltyPerMinute.Mul(decimal.NewFromInt(int64(in.LateMinutes)))
	b.AbsencePenalty = in.Policy.AbsencePenaltyPerDay.Mul(decimal.NewFromInt(int64(in.AbsentDays)))

	b.Deductions = b.StatutoryDeductions.
		Add(b.UnpaidLeaveDeduction).
		Add(b.LatenessPenalty).
		Add(b.AbsencePenalty)
	b.Net = b.Gross.Sub(b.Deductions)

	if b.Net.IsNegative() {
		return b, payroll.ErrNegativeNetSalary
	}
	return b, nil
}

func sumComponents(components []payroll.Component) (decimal.Decimal, map[string]decimal.Decimal) {
	total := decimal.Zero
	detail := make(map[string]decimal.Decimal, len(components))
	for _, c := range components {
		total = total.Add(c.Amount)
		detail[c.Name] = detail[c.Name].Add(c.Amount)
	}
	return total, detail
}
