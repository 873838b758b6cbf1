package handlers

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/nfrund/relay/internal/domain"
)

// CustomValidator wraps the go-playground/validator library to implement Echo's Validator interface.
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator creates a new CustomValidator.
func NewValidator() *CustomValidator {
	return &CustomValidator{validator: validator.New()}
}

// Validate implements the echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

// MessageRequest defines the DTO for the message ingress endpoint.
// Length limits count characters, not bytes.
type MessageRequest struct {
	Room        string `form:"room" validate:"max=30"`
	Username    string `form:"username" validate:"max=20"`
	Message     string `form:"message"`
	AvatarStyle string `form:"avatar_style"`
}

// messageFields lists the form fields that must be present, even if empty.
var messageFields = []string{"room", "username", "message", "avatar_style"}

// ToDomain converts the request to the message published on the hub.
func (r MessageRequest) ToDomain() domain.Message {
	return domain.Message{
		Room:        r.Room,
		Username:    r.Username,
		Message:     r.Message,
		AvatarStyle: r.AvatarStyle,
	}
}

// describeValidationError turns validator errors into a short, readable message.
func describeValidationError(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}

	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "max":
			parts = append(parts, fmt.Sprintf("%s must be at most %s characters", formFieldName(fe.Field()), fe.Param()))
		default:
			parts = append(parts, fmt.Sprintf("%s is invalid", formFieldName(fe.Field())))
		}
	}
	return strings.Join(parts, "; ")
}

func formFieldName(field string) string {
	switch field {
	case "AvatarStyle":
		return "avatar_style"
	default:
		return strings.ToLower(field)
	}
}
