package validator_test

import (
	"errors"
	"testing"

	govalidator "github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuanvumaihuynh/product-catalog/pkg/validator"
)

type color string

func (c color) Validate() error {
	if c != "red" {
		return errors.New("not red")
	}
	return nil
}

type input struct {
	Query string `validate:"notblank"`
	Limit int    `validate:"gt=0"`
	Color color  `validate:"enum"`
}

func TestDefaultValidator(t *testing.T) {
	v, err := validator.NewDefaultValidator()
	require.NoError(t, err)

	t.Run("Should accept valid struct", func(t *testing.T) {
		assert.NoError(t, v.Validate(input{Query: "widget", Limit: 1, Color: "red"}))
	})

	t.Run("Should report every failing field", func(t *testing.T) {
		err := v.Validate(input{Query: "   ", Limit: 0, Color: "blue"})
		require.Error(t, err)
		assert.True(t, validator.IsValidationError(err))

		var fieldErrs govalidator.ValidationErrors
		require.ErrorAs(t, err, &fieldErrs)

		messages := map[string]string{}
		for _, fe := range fieldErrs {
			messages[fe.Field()] = validator.ValidationErrorMessage(fe)
		}
		assert.Equal(t, "must not be blank", messages["Query"])
		assert.Equal(t, "must be greater than 0", messages["Limit"])
		assert.Equal(t, "invalid enum value: blue", messages["Color"])
	})

	t.Run("Should not classify plain errors as validation errors", func(t *testing.T) {
		assert.False(t, validator.IsValidationError(errors.New("boom")))
	})
}
