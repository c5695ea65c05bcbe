package authclient

import (
	"errors"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/nyaruka/phonenumbers"
)

// LoginPayload carries password sign-in credentials.
type LoginPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (p LoginPayload) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(
			&p.Email,
			validation.Required.Error("Email is required"),
			is.Email.Error("Please enter a valid email address"),
		),
		validation.Field(
			&p.Password,
			validation.Required.Error("Password is required"),
		),
	)
}

// RegistrationPayload carries the sign-up form. Phone is optional and
// validated only when present.
type RegistrationPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone,omitempty"`
}

func (p RegistrationPayload) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(
			&p.Email,
			validation.Required.Error("Email is required"),
			is.Email.Error("Please enter a valid email address"),
		),
		validation.Field(
			&p.Password,
			validation.Required.Error("Password is required"),
			validation.Length(6, 100).Error("Password must be at least 6 characters"),
		),
		validation.Field(
			&p.Phone,
			validation.By(validatePhone),
		),
	)
}

// ForgotPasswordPayload carries the reset request form.
type ForgotPasswordPayload struct {
	Email string `json:"email"`
}

func (p ForgotPasswordPayload) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(
			&p.Email,
			validation.Required.Error("Email is required"),
			is.Email.Error("Please enter a valid email address"),
		),
	)
}

func validatePhone(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}

	num, err := phonenumbers.Parse(s, "US")
	if err != nil {
		return errors.New("must be a valid phone number")
	}
	if !phonenumbers.IsValidNumber(num) {
		return errors.New("must be a valid phone number")
	}

	return nil
}
