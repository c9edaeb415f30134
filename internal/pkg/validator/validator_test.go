package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type sample struct {
	Name  string `validate:"required"`
	Count int    `validate:"gte=0"`
}

func TestValidate(t *testing.T) {
	assert.Nil(t, Validate(sample{Name: "x"}))

	errs := Validate(sample{Count: -1})
	assert.Equal(t, FieldErrors{"Name": "required", "Count": "gte"}, errs)
	assert.Equal(t, "Count: gte, Name: required", errs.Error())
}
