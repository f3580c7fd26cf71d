package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"
	"time"

	"slotbook/internal/domain"
	"slotbook/internal/models"

	"github.com/go-playground/validator/v10"
)

const maxBodyBytes = 1 << 20

type credentialsRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type createBookingRequest struct {
	Location  string     `json:"location" validate:"required"`
	StartTime *time.Time `json:"startTime" validate:"required"`
	EndTime   *time.Time `json:"endTime" validate:"required"`
	Phone     string     `json:"phone" validate:"omitempty,max=64"`
	Email     string     `json:"email" validate:"omitempty,email"`
	Payment   string     `json:"payment" validate:"omitempty,max=64"`
}

func (r createBookingRequest) toBooking() *models.Booking {
	return &models.Booking{
		Location:  r.Location,
		StartTime: *r.StartTime,
		EndTime:   *r.EndTime,
		Phone:     r.Phone,
		Email:     r.Email,
		Payment:   r.Payment,
	}
}

// updateBookingRequest distinguishes an absent field (nil) from one set to "".
type updateBookingRequest struct {
	Location  *string    `json:"location"`
	StartTime *time.Time `json:"startTime"`
	EndTime   *time.Time `json:"endTime"`
	Phone     *string    `json:"phone"`
	Email     *string    `json:"email"`
	Payment   *string    `json:"payment"`
}

func (r updateBookingRequest) toPatch() models.BookingPatch {
	return models.BookingPatch{
		Location:  r.Location,
		StartTime: r.StartTime,
		EndTime:   r.EndTime,
		Phone:     r.Phone,
		Email:     r.Email,
		Payment:   r.Payment,
	}
}

type tokenResponse struct {
	Token string `json:"token"`
}

// requestValidator wraps validator/v10 and reports fields by their JSON names.
type requestValidator struct {
	validate *validator.Validate
}

func newRequestValidator() *requestValidator {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &requestValidator{validate: v}
}

func (v *requestValidator) Struct(s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	verr := &domain.ValidationError{}
	for _, fe := range fieldErrs {
		verr.Add(fe.Field(), fieldMessage(fe))
	}
	return verr
}

// Patch validates the contact email of a partial update when it is set.
func (v *requestValidator) Patch(req updateBookingRequest) error {
	if req.Email != nil && *req.Email != "" {
		if err := v.validate.Var(*req.Email, "email"); err != nil {
			return domain.NewValidationError("email", "email must be a valid email address")
		}
	}
	return nil
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "email":
		return fe.Field() + " must be a valid email address"
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	default:
		return fe.Field() + " is invalid"
	}
}

// decodeJSON reads a JSON body into dst. Decoding failures become validation errors.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil {
		return nil
	}

	var typeErr *json.UnmarshalTypeError
	var parseErr *time.ParseError
	var tooLarge *http.MaxBytesError
	switch {
	case errors.Is(err, io.EOF):
		return domain.NewValidationError("body", "request body is required")
	case errors.As(err, &typeErr) && typeErr.Field != "":
		return domain.NewValidationError(typeErr.Field, "has the wrong type")
	case errors.As(err, &parseErr):
		return domain.NewValidationError("body", "timestamps must be RFC 3339")
	case errors.As(err, &tooLarge):
		return domain.NewValidationError("body", "request body is too large")
	default:
		return domain.NewValidationError("body", "invalid JSON body")
	}
}
