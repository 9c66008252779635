package domain

import (
	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterStructValidation(validatePlanOrder, PrototypeOutput{})
	return v
}

// validatePlanOrder rejects plans whose days are not numbered 1..N in order.
func validatePlanOrder(sl validator.StructLevel) {
	plan := sl.Current().Interface().(PrototypeOutput)
	for i, day := range plan.DayByDayPlan {
		if day.Day != i+1 {
			sl.ReportError(plan.DayByDayPlan, "DayByDayPlan", "day_by_day_plan", "dayorder", "")
			return
		}
	}
}
