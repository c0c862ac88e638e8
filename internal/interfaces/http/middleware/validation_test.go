package middleware

import (
	"errors"
	"testing"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type auditQuery struct {
	Entity   string `form:"entity" json:"entity" binding:"required,oneof=course class student enrollment"`
	PageSize int    `form:"page_size" json:"page_size" binding:"min=1,max=100"`
}

func validate(v interface{}) error {
	return binding.Validator.ValidateStruct(v)
}

func TestSetupValidator(t *testing.T) {
	SetupValidator()

	err := validate(&auditQuery{Entity: "", PageSize: 10})
	require.Error(t, err)

	verrs, ok := err.(validator.ValidationErrors)
	require.True(t, ok)
	require.Len(t, verrs, 1)
	assert.Equal(t, "entity", verrs[0].Field(), "errors name the json field, not the Go field")
}

func TestValidationDetails(t *testing.T) {
	SetupValidator()

	t.Run("one detail per failed field", func(t *testing.T) {
		err := validate(&auditQuery{Entity: "invoices", PageSize: 500})
		require.Error(t, err)

		details := ValidationDetails(err)
		require.Len(t, details, 2)

		byField := map[string]string{}
		for _, d := range details {
			byField[d.Field] = d.Message
		}
		assert.Equal(t, "must be one of: course class student enrollment", byField["entity"])
		assert.Equal(t, "must be at most 100", byField["page_size"])
	})

	t.Run("required field", func(t *testing.T) {
		err := validate(&auditQuery{PageSize: 10})
		require.Error(t, err)

		details := ValidationDetails(err)
		require.Len(t, details, 1)
		assert.Equal(t, "this field is required", details[0].Message)
	})

	t.Run("non-validator error yields a generic detail", func(t *testing.T) {
		details := ValidationDetails(errors.New("unexpected EOF"))
		require.Len(t, details, 1)
		assert.Equal(t, "request", details[0].Field)
		assert.Equal(t, "malformed request", details[0].Message)
	})
}
