package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hms/hms/internal/platform/apperr"
)

type sample struct {
	Name   string  `json:"name" validate:"required"`
	Gender string  `json:"gender" validate:"required,oneof=male female other"`
	Amount float64 `json:"amount" validate:"gt=0"`
	Email  string  `json:"email,omitempty" validate:"omitempty,email"`
}

func TestValidate(t *testing.T) {
	v := New()

	assert.NoError(t, v.Validate(sample{Name: "Ada", Gender: "female", Amount: 1}))

	tests := []struct {
		in   sample
		want string
	}{
		{sample{Gender: "male", Amount: 1}, "name is required"},
		{sample{Name: "a", Gender: "x", Amount: 1}, "gender must be one of: male, female, other"},
		{sample{Name: "a", Gender: "male"}, "amount must be greater than 0"},
		{sample{Name: "a", Gender: "male", Amount: 1, Email: "nope"}, "email must be a valid email address"},
	}
	for _, tt := range tests {
		err := v.Validate(tt.in)
		assert.ErrorIs(t, err, apperr.ErrValidation)
		assert.EqualError(t, err, tt.want)
	}
}
