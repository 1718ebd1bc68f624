package handler

import (
	"errors"
	"fmt"
	"strings"

	"studyquest-server/internal/models"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// invalidInput оборачивает ошибку разбора/валидации в ErrInvalidInput.
func invalidInput(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, fmt.Sprintf("%s failed '%s'", fe.Field(), fe.Tag()))
		}
		return fmt.Errorf("%w: %s", models.ErrInvalidInput, strings.Join(fields, ", "))
	}
	return fmt.Errorf("%w: %v", models.ErrInvalidInput, err)
}
