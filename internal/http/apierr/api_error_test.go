package apierr_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuanvumaihuynh/product-catalog/internal/apperr"
	"github.com/tuanvumaihuynh/product-catalog/internal/http/apierr"
	"github.com/tuanvumaihuynh/product-catalog/pkg/validator"
)

func TestNew(t *testing.T) {
	t.Run("Should map error kinds to status codes", func(t *testing.T) {
		cases := []struct {
			err    error
			status int
			code   string
		}{
			{apperr.ErrInvalidPagination, http.StatusBadRequest, apperr.InvalidPaginationCode},
			{apperr.ErrProductNotFound, http.StatusNotFound, apperr.ProductNotFoundCode},
			{apperr.ErrDuplicateProductCode, http.StatusBadRequest, apperr.DuplicateProductCodeCode},
			{apperr.ErrInternal, http.StatusInternalServerError, apperr.InternalCode},
		}
		for _, tc := range cases {
			res := apierr.New(fmt.Errorf("wrapped: %w", tc.err))
			assert.Equal(t, tc.status, res.StatusCode, tc.code)
			assert.Equal(t, tc.code, res.Code)
			assert.False(t, res.Success)
		}
	})

	t.Run("Should keep the specific message of a predefined error", func(t *testing.T) {
		res := apierr.New(apperr.ErrDuplicateProductCode.WithMsg(`Le code produit "W1" est déjà utilisé.`))
		assert.Equal(t, `Le code produit "W1" est déjà utilisé.`, res.Message)
	})

	t.Run("Should hide unknown errors behind a generic message", func(t *testing.T) {
		res := apierr.New(errors.New("connection refused"))
		assert.Equal(t, http.StatusInternalServerError, res.StatusCode)
		assert.Equal(t, "Une erreur interne est survenue. Veuillez réessayer plus tard.", res.Message)
	})

	t.Run("Should expose field details of validation failures", func(t *testing.T) {
		v, err := validator.NewDefaultValidator()
		require.NoError(t, err)
		vErr := v.Validate(struct {
			Limit int `validate:"gt=0"`
		}{})
		require.Error(t, vErr)

		res := apierr.New(apperr.ErrInvalidLimit.WrapParent(vErr))
		assert.Equal(t, http.StatusBadRequest, res.StatusCode)
		require.NotNil(t, res.Details)
		assert.Equal(t, "Limit", (*res.Details)[0].Field)
		assert.Equal(t, "must be greater than 0", (*res.Details)[0].Message)
	})
}
