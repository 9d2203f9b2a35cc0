package utils

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/codes"
)

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, 400, HTTPStatus(codes.InvalidArgument))
	assert.Equal(t, 401, HTTPStatus(codes.Unauthenticated))
	assert.Equal(t, 404, HTTPStatus(codes.NotFound))
	assert.Equal(t, 500, HTTPStatus(codes.Internal))
	assert.Equal(t, 500, HTTPStatus(codes.DataLoss))
}

func TestFormatValidationErrors(t *testing.T) {
	type input struct {
		Mine string `validate:"oneof=true false"`
	}
	err := validator.New().Struct(input{Mine: "maybe"})
	assert.Equal(t, []string{"Field 'Mine' failed on the 'oneof' tag (value: true false)"}, FormatValidationErrors(err))
	assert.Nil(t, FormatValidationErrors(nil))
}
