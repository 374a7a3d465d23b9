package network

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"
)

// validate is a singleton validator instance
var validate = validator.New()

// Validate checks the struct-level constraints of a raw element.
func (e *Element) Validate() error {
	if err := validate.Struct(e); err != nil {
		return formatValidationError(err)
	}
	return nil
}

// checkElement validates e and repairs what can be repaired. It reports
// whether the element must be skipped.
func checkElement(e *Element, log *slog.Logger) bool {
	err := validate.Struct(e)
	if err == nil {
		return false
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		log.Warn("skipping element", "id", e.ID, "error", err)
		return true
	}

	for _, fe := range verrs {
		switch fe.Field() {
		case "PredictedPhase":
			log.Warn("clearing invalid predicted phase", "id", e.ID, "phase", fe.Value())
			h := *e.House
			h.PredictedPhase = ""
			e.House = &h
		default:
			log.Warn("skipping element", "id", e.ID, "error", formatFieldError(fe))
			return true
		}
	}
	return false
}

// formatValidationError converts validator errors to a readable message.
func formatValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, formatFieldError(fe))
	}
	return errors.New(strings.Join(msgs, "; "))
}

func formatFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s: field is required", fe.Field())
	case "oneof":
		return fmt.Sprintf("%s: must be one of [%s], got %v", fe.Field(), fe.Param(), fe.Value())
	default:
		return fmt.Sprintf("%s: failed %s validation", fe.Field(), fe.Tag())
	}
}
