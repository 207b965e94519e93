package http

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"millionaire-service/internal/game"
)

// errInvalidRequest marks payloads rejected before reaching the service.
var errInvalidRequest = errors.New("invalid request")

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterValidation("answer_key", func(fl validator.FieldLevel) bool {
		_, ok := game.ParseKey(fl.Field().String())
		return ok
	})
	v.RegisterValidation("lifeline", func(fl validator.FieldLevel) bool {
		_, err := game.ParseLifeline(fl.Field().String())
		return err == nil
	})
	return v
}

type registerRequest struct {
	ID   string `json:"id" validate:"required,max=64,excludesall=/?#"`
	Name string `json:"name" validate:"required,max=100"`
}

type answerRequest struct {
	Letter string `json:"letter" validate:"required,answer_key"`
}

type helpRequest struct {
	Type string `json:"type" validate:"required,lifeline"`
}

// validationError flattens validator output into one message.
func validationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %v", errInvalidRequest, err)
	}
	parts := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		parts = append(parts, fmt.Sprintf("%s failed %s", strings.ToLower(fe.Field()), fe.Tag()))
	}
	return fmt.Errorf("%w: %s", errInvalidRequest, strings.Join(parts, ", "))
}
