package treasury

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// =============================================================================
// INPUTS - Raw user input, validated before a record is built
// =============================================================================

// ReceiptInput is the data entered for a new receipt. An empty ChurchName
// falls back to the configured church name.
type ReceiptInput struct {
	DonorName  string                     `json:"donorName" validate:"required"`
	Date       string                     `json:"date" validate:"required,isodate"`
	ChurchName string                     `json:"churchName"`
	Categories map[string]decimal.Decimal `json:"categories" validate:"required"`
}

type ExpenseInput struct {
	Date        string          `json:"date" validate:"required,isodate"`
	Description string          `json:"description" validate:"required"`
	Amount      decimal.Decimal `json:"amount"`
}

type BalanceInput struct {
	Period         string          `json:"period" validate:"required,period"`
	OpeningBalance decimal.Decimal `json:"openingBalance"`
}

// =============================================================================
// VALIDATOR
// =============================================================================

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	_ = v.RegisterValidation("isodate", func(fl validator.FieldLevel) bool {
		return Date(fl.Field().String()).Validate() == nil
	})
	_ = v.RegisterValidation("period", func(fl validator.FieldLevel) bool {
		return Month(fl.Field().String()).Validate() == nil
	})
	return v
}

// validateStruct runs the tag rules and reports the first failing field.
func validateStruct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var errs validator.ValidationErrors
	if errors.As(err, &errs) && len(errs) > 0 {
		return &ValidationError{Field: errs[0].Field(), Message: fieldErrorText(errs[0])}
	}
	return &ValidationError{Field: "input", Message: err.Error()}
}

func fieldErrorText(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "isodate":
		return fmt.Sprintf("%q is not a YYYY-MM-DD date", e.Value())
	case "period":
		return fmt.Sprintf("%q is not a YYYY-MM period", e.Value())
	}
	return "is not valid"
}

// =============================================================================
// RECORD CONSTRUCTION
// =============================================================================

// Build validates the input and returns the receipt it describes, without
// an ID. Total is the sum of the category amounts.
func (in ReceiptInput) Build(defaultChurch string) (IncomeReceipt, error) {
	in.DonorName = strings.TrimSpace(in.DonorName)
	in.ChurchName = strings.TrimSpace(in.ChurchName)
	if err := validateStruct(in); err != nil {
		return IncomeReceipt{}, err
	}

	cats := make(CategoryAmounts, len(in.Categories))
	positive := false
	for k, v := range in.Categories {
		c := Category(k)
		if !c.IsKnown() {
			return IncomeReceipt{}, &ValidationError{Field: "categories." + k, Message: "unknown category"}
		}
		if v.IsNegative() {
			return IncomeReceipt{}, &ValidationError{Field: "categories." + k, Message: "must not be negative"}
		}
		if v.IsPositive() {
			positive = true
		}
		cats[c] = v
	}
	if !positive {
		return IncomeReceipt{}, &ValidationError{Field: "categories", Message: "at least one amount must be greater than zero"}
	}

	church := in.ChurchName
	if church == "" {
		church = strings.TrimSpace(defaultChurch)
	}
	if church == "" {
		return IncomeReceipt{}, &ValidationError{Field: "churchName", Message: "is required"}
	}

	return IncomeReceipt{
		DonorName:  in.DonorName,
		Date:       Date(in.Date),
		ChurchName: church,
		Categories: cats,
		Total:      cats.Sum(),
	}, nil
}

func (in ExpenseInput) Build() (Expense, error) {
	in.Description = strings.TrimSpace(in.Description)
	if err := validateStruct(in); err != nil {
		return Expense{}, err
	}
	if !in.Amount.IsPositive() {
		return Expense{}, &ValidationError{Field: "amount", Message: "must be greater than zero"}
	}
	return Expense{
		Date:        Date(in.Date),
		Description: in.Description,
		Amount:      in.Amount,
	}, nil
}

func (in BalanceInput) Build() (PeriodBalance, error) {
	if err := validateStruct(in); err != nil {
		return PeriodBalance{}, err
	}
	if in.OpeningBalance.IsNegative() {
		return PeriodBalance{}, &ValidationError{Field: "openingBalance", Message: "must not be negative"}
	}
	return PeriodBalance{Period: Month(in.Period), OpeningBalance: in.OpeningBalance}, nil
}

// ValidateConfig checks a church configuration before it is stored.
func ValidateConfig(cfg ChurchConfig) error {
	cfg.Name = strings.TrimSpace(cfg.Name)
	return validateStruct(cfg)
}

// =============================================================================
// STORED RECORD CHECKS
// =============================================================================

// validateRecord guards the store against records that would break the
// engine later. Records built from inputs always pass.
func (r IncomeReceipt) validateRecord() error {
	if err := r.Date.Validate(); err != nil {
		return &ValidationError{Field: "date", Message: err.Error()}
	}
	if err := r.Categories.Validate(); err != nil {
		return &ValidationError{Field: "categories", Message: err.Error()}
	}
	if !r.Total.Equal(r.Categories.Sum()) {
		return &ValidationError{
			Field:   "total",
			Message: fmt.Sprintf("%s does not match category sum %s", r.Total, r.Categories.Sum()),
		}
	}
	return nil
}

func (e Expense) validateRecord() error {
	if err := e.Date.Validate(); err != nil {
		return &ValidationError{Field: "date", Message: err.Error()}
	}
	if e.Amount.IsNegative() {
		return &ValidationError{Field: "amount", Message: "must not be negative"}
	}
	return nil
}
