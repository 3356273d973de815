package treasury_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/treasury-engine/treasury"
)

func validationField(t *testing.T, err error) string {
	t.Helper()
	var ve *treasury.ValidationError
	require.True(t, errors.As(err, &ve), "expected ValidationError, got %v", err)
	return ve.Field
}

func TestReceiptInput_Build(t *testing.T) {
	valid := func() treasury.ReceiptInput {
		return treasury.ReceiptInput{
			DonorName: "Ana",
			Date:      "2025-01-15",
			Categories: map[string]decimal.Decimal{
				"diezmo": dec("100"),
				"pobres": dec("20.5"),
				"musica": decimal.Zero,
			},
		}
	}

	t.Run("computes total and defaults church", func(t *testing.T) {
		r, err := valid().Build("Central")
		require.NoError(t, err)
		assertDec(t, "120.5", r.Total)
		assert.Equal(t, "Central", r.ChurchName)
		assert.Equal(t, treasury.Date("2025-01-15"), r.Date)
	})

	cases := []struct {
		name  string
		edit  func(*treasury.ReceiptInput)
		field string
	}{
		{"missing donor", func(in *treasury.ReceiptInput) { in.DonorName = "  " }, "donorName"},
		{"missing date", func(in *treasury.ReceiptInput) { in.Date = "" }, "date"},
		{"malformed date", func(in *treasury.ReceiptInput) { in.Date = "15/01/2025" }, "date"},
		{"impossible date", func(in *treasury.ReceiptInput) { in.Date = "2025-02-30" }, "date"},
		{"no categories", func(in *treasury.ReceiptInput) { in.Categories = nil }, "categories"},
		{"all zero", func(in *treasury.ReceiptInput) {
			in.Categories = map[string]decimal.Decimal{"diezmo": decimal.Zero}
		}, "categories"},
		{"unknown category", func(in *treasury.ReceiptInput) { in.Categories["fiesta"] = dec("1") }, "categories.fiesta"},
		{"negative amount", func(in *treasury.ReceiptInput) { in.Categories["pobres"] = dec("-1") }, "categories.pobres"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := valid()
			tc.edit(&in)
			_, err := in.Build("Central")
			assert.True(t, treasury.IsValidation(err))
			assert.Equal(t, tc.field, validationField(t, err))
		})
	}

	t.Run("no church anywhere", func(t *testing.T) {
		_, err := valid().Build("")
		assert.Equal(t, "churchName", validationField(t, err))
	})
}

func TestExpenseInput_Build(t *testing.T) {
	e, err := treasury.ExpenseInput{Date: "2025-01-20", Description: " Luz ", Amount: dec("50")}.Build()
	require.NoError(t, err)
	assert.Equal(t, "Luz", e.Description)

	_, err = treasury.ExpenseInput{Date: "2025-01-20", Description: "Luz", Amount: decimal.Zero}.Build()
	assert.Equal(t, "amount", validationField(t, err))

	_, err = treasury.ExpenseInput{Date: "2025-01-20", Amount: dec("1")}.Build()
	assert.Equal(t, "description", validationField(t, err))

	_, err = treasury.ExpenseInput{Date: "2025-1-20", Description: "Luz", Amount: dec("1")}.Build()
	assert.Equal(t, "date", validationField(t, err))
}

func TestBalanceInput_Build(t *testing.T) {
	b, err := treasury.BalanceInput{Period: "2025-01", OpeningBalance: decimal.Zero}.Build()
	require.NoError(t, err)
	assert.Equal(t, treasury.Month("2025-01"), b.Period)

	_, err = treasury.BalanceInput{Period: "2025-01", OpeningBalance: dec("-5")}.Build()
	assert.Equal(t, "openingBalance", validationField(t, err))

	_, err = treasury.BalanceInput{Period: "2025-1", OpeningBalance: dec("5")}.Build()
	assert.Equal(t, "period", validationField(t, err))
}

func TestService_AddReceiptUsesConfiguredChurch(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, err := f.svc.SetChurchConfig(ctx, treasury.ChurchConfig{Name: "Maranata"})
	require.NoError(t, err)

	r, err := f.svc.AddReceipt(ctx, treasury.ReceiptInput{
		DonorName:  "Luis",
		Date:       "2025-02-01",
		Categories: map[string]decimal.Decimal{"primicia": dec("10")},
	})

	require.NoError(t, err)
	assert.Equal(t, "Maranata", r.ChurchName)
	assert.Equal(t, "rec-001", r.ID)
}

func TestService_SetChurchConfigRejectsEmpty(t *testing.T) {
	_, err := newFixture(t).svc.SetChurchConfig(context.Background(), treasury.ChurchConfig{Name: "  "})

	assert.Equal(t, "name", validationField(t, err))
}
