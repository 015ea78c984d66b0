package serverutils

import (
	"errors"
	"fmt"
	"strings"

	"github.com/GeorgeShani/Learnyx-sub001/internal/apperror"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ValidateRequest checks struct tags and folds failures into a single
// ValidationError so transports can report them uniformly.
func ValidateRequest(req interface{}) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		fields := make([]string, 0, len(ve))
		for _, f := range ve {
			fields = append(fields, fmt.Sprintf("%s (%s)", f.Field(), f.Tag()))
		}
		return apperror.NewValidation("invalid request: %s", strings.Join(fields, ", "))
	}
	return apperror.NewValidation("invalid request: %v", err)
}
