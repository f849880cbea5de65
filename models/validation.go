package models

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	ErrImageTooLarge   = fmt.Errorf("image exceeds the %dKB limit", MaxImageBytes/1024)
	ErrMissingIdentity = errors.New("a session identity is required to submit")
)

// FieldProblem describes one rejected draft field.
type FieldProblem struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError reports every problem found in a draft. It is raised before
// any store contact.
type ValidationError struct {
	Problems []FieldProblem
	causes   []error
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Problems))
	for _, p := range e.Problems {
		parts = append(parts, p.Field+" "+p.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() []error {
	return e.causes
}

// HasField reports whether field is among the problems.
func (e *ValidationError) HasField(field string) bool {
	for _, p := range e.Problems {
		if p.Field == field {
			return true
		}
	}
	return false
}

func (e *ValidationError) add(field, message string, cause error) {
	e.Problems = append(e.Problems, FieldProblem{Field: field, Message: message})
	if cause != nil {
		e.causes = append(e.causes, cause)
	}
}

var draftValidator = newDraftValidator()

func newDraftValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	// Registration only fails for an empty tag or nil func.
	_ = v.RegisterValidation("focustag", func(fl validator.FieldLevel) bool {
		return FocusTag(fl.Field().String()).Valid()
	})
	return v
}

// ValidateDraft checks the required fields, the focus vocabulary, the link
// format and the image cap. The draft should be normalized first.
func ValidateDraft(d Draft) error {
	verr := &ValidationError{}

	if err := draftValidator.Struct(d); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return err
		}
		for _, fe := range fieldErrs {
			verr.add(fe.Field(), problemMessage(fe), nil)
		}
	}
	if len(d.ImageData) > MaxImageBytes {
		verr.add("imageData", ErrImageTooLarge.Error(), ErrImageTooLarge)
	}

	if len(verr.Problems) > 0 {
		return verr
	}
	return nil
}

// ValidateSubmission validates the draft and the submitting identity together.
func ValidateSubmission(d Draft, identity string) error {
	err := ValidateDraft(d)
	if strings.TrimSpace(identity) != "" {
		return err
	}

	var verr *ValidationError
	if err == nil {
		verr = &ValidationError{}
	} else if !errors.As(err, &verr) {
		return err
	}
	verr.add("submittedBy", "is required", ErrMissingIdentity)
	return verr
}

func problemMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		if fe.Field() == "communityFocus" {
			return "select at least one community focus"
		}
		return "is required"
	case "min":
		return "select at least one community focus"
	case "url", "http_url":
		return "must be an http or https URL"
	case "oneof":
		return "must be one of: " + fe.Param()
	case "focustag":
		return fmt.Sprintf("%q is not a recognised community focus", fe.Value())
	default:
		return "is invalid"
	}
}
