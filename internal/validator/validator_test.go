package validator

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

type expenseInput struct {
	Category string          `validate:"category"`
	Amount   decimal.Decimal `validate:"gte=0"`
}

type signupInput struct {
	Username string `validate:"username"`
}

func newValidate() *validator.Validate {
	v := validator.New()
	RegisterOn(v)
	return v
}

func TestCategoryAndAmount(t *testing.T) {
	v := newValidate()

	tests := []struct {
		name    string
		input   expenseInput
		wantErr bool
	}{
		{"valid", expenseInput{"Food", decimal.NewFromFloat(12.5)}, false},
		{"zero amount", expenseInput{"Food", decimal.Zero}, false},
		{"custom category", expenseInput{"Pets", decimal.NewFromInt(1)}, false},
		{"negative amount", expenseInput{"Food", decimal.NewFromInt(-1)}, true},
		{"blank category", expenseInput{"   ", decimal.NewFromInt(1)}, true},
		{"long category", expenseInput{string(make([]byte, 65)), decimal.NewFromInt(1)}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Struct(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestUsername(t *testing.T) {
	v := newValidate()

	assert.NoError(t, v.Struct(signupInput{"alice"}))
	assert.NoError(t, v.Struct(signupInput{"alice smith"}))
	assert.Error(t, v.Struct(signupInput{""}))
	assert.Error(t, v.Struct(signupInput{" alice"}))
	assert.Error(t, v.Struct(signupInput{"ali\nce"}))
}
