package response

import (
	"testing"

	"github.com/go-playground/validator"
	"github.com/stretchr/testify/assert"
)

func TestOKWithData(t *testing.T) {
	data := map[string]string{"key": "value"}
	resp := OKWithData(data)

	assert.Equal(t, StatusOK, resp.Status)
	assert.Equal(t, data, resp.Data)
}

func TestError(t *testing.T) {
	msg := "something went wrong"
	resp := Error(msg)

	assert.Equal(t, StatusError, resp.Status)
	assert.Equal(t, msg, resp.Error)
	assert.Nil(t, resp.Data)
}

func TestErrorWithData(t *testing.T) {
	data := map[string]int{"credits_remaining": 0}
	resp := ErrorWithData("no credits remaining this month", data)

	assert.Equal(t, StatusError, resp.Status)
	assert.Equal(t, "no credits remaining this month", resp.Error)
	assert.Equal(t, data, resp.Data)
}

func TestValidationError(t *testing.T) {
	type TestStruct struct {
		MentorUID       string `validate:"required,uuid"`
		DurationMinutes int    `validate:"gt=0,lte=120"`
	}

	v := validator.New()
	ts := TestStruct{
		MentorUID:       "not-a-uuid",
		DurationMinutes: 500,
	}

	err := v.Struct(ts)
	assert.Error(t, err)

	validationErrors := err.(validator.ValidationErrors)
	resp := ValidationError(validationErrors)

	assert.Equal(t, StatusError, resp.Status)
	assert.NotEmpty(t, resp.Error)

	errMsg := resp.Error
	assert.Contains(t, errMsg, "field MentorUID can contain only uuid")
	assert.Contains(t, errMsg, "field DurationMinutes must be less than or equal to 120")
}

func TestValidationErrorRequired(t *testing.T) {
	type TestStruct struct {
		UserName string `validate:"required"`
	}

	v := validator.New()
	ts := TestStruct{}

	err := v.Struct(ts)
	assert.Error(t, err)

	validationErrors := err.(validator.ValidationErrors)
	resp := ValidationError(validationErrors)

	assert.Equal(t, StatusError, resp.Status)
	assert.Contains(t, resp.Error, "field UserName is a required field")
}
