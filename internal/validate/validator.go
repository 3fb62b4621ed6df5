// Package validate checks request payloads against named schemas and reports
// every violation as a field error with a stable, literal message.
package validate

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"slices"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/mkrupp/postbox/internal/domain"
)

// BodyField is the field name used for errors that concern the payload as a whole.
const BodyField = "body"

// Validator validates Inputs. It is safe for concurrent use.
type Validator struct {
	v *validator.Validate
}

// New creates a Validator reporting JSON field names.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}

		return name
	})

	if err := v.RegisterValidation("maxbytes", maxBytes); err != nil {
		panic(err)
	}

	return &Validator{v: v}
}

// Validate normalizes the input in place and checks it against its schema.
// Returns a *domain.ValidationError listing all violations, or nil.
func (v *Validator) Validate(input Input) error {
	input.normalize()

	errs, err := v.check(input, nil)
	if err != nil {
		return err
	}

	if len(errs) > 0 {
		return domain.NewValidationError(errs...)
	}

	return nil
}

// DecodeJSON decodes a JSON object from r into input and validates it.
// Type mismatches and rule violations of other fields are reported together.
func (v *Validator) DecodeJSON(r io.Reader, input Input) error {
	typeErrs, err := decode(r, input)
	if err != nil {
		return err
	}

	input.normalize()

	skip := make([]string, 0, len(typeErrs))
	for _, fe := range typeErrs {
		skip = append(skip, fe.Field)
	}

	errs, err := v.check(input, skip)
	if err != nil {
		return err
	}

	errs = append(typeErrs, errs...)
	if len(errs) > 0 {
		return domain.NewValidationError(errs...)
	}

	return nil
}

func (v *Validator) check(input Input, skip []string) ([]domain.FieldError, error) {
	var errs []domain.FieldError

	if err := v.v.Struct(input); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return nil, fmt.Errorf("validate %s: %w", input.Schema(), err)
		}

		for _, fe := range verrs {
			if slices.Contains(skip, fe.Field()) {
				continue
			}

			errs = append(errs, domain.FieldError{Field: fe.Field(), Message: message(fe)})
		}
	}

	if update, ok := input.(*PostUpdateInput); ok && update.empty() && len(skip) == 0 {
		errs = append(errs, domain.FieldError{Field: BodyField, Message: "Required"})
	}

	return errs, nil
}

// maxBytes limits the UTF-8 encoded length of a string, which is what bcrypt
// counts for passwords.
func maxBytes(fl validator.FieldLevel) bool {
	limit, err := strconv.Atoi(fl.Param())
	if err != nil {
		return false
	}

	return len(fl.Field().String()) <= limit
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "Required"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("String must contain at least %s character(s)", fe.Param())
		}
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("String must contain at most %s character(s)", fe.Param())
		}
	case "maxbytes":
		return fmt.Sprintf("String must contain at most %s byte(s)", fe.Param())
	}

	return "Invalid " + fe.Tag()
}

// decode returns field errors for JSON type mismatches, a *domain.ValidationError
// for payloads that are not a JSON object, and an error for I/O failures.
func decode(r io.Reader, input Input) ([]domain.FieldError, error) {
	var maxErr *http.MaxBytesError

	data, err := io.ReadAll(r)
	switch {
	case errors.As(err, &maxErr):
		return nil, domain.NewValidationError(domain.FieldError{Field: BodyField, Message: "Request body too large"})
	case err != nil:
		return nil, fmt.Errorf("read %s: %w", input.Schema(), err)
	case len(bytes.TrimSpace(data)) == 0:
		return nil, domain.NewValidationError(domain.FieldError{Field: BodyField, Message: "Required"})
	}

	err = json.Unmarshal(data, input)
	if err == nil {
		return nil, nil
	}

	var (
		typeErr   *json.UnmarshalTypeError
		syntaxErr *json.SyntaxError
	)

	switch {
	case errors.As(err, &typeErr) && typeErr.Field != "":
		// encoding/json stops reporting after the first mismatch.
		return typeErrors(data, input), nil
	case errors.As(err, &typeErr):
		return nil, domain.NewValidationError(domain.FieldError{
			Field:   BodyField,
			Message: "Expected object, received " + receivedType(typeErr.Value),
		})
	case errors.As(err, &syntaxErr):
		return nil, domain.NewValidationError(domain.FieldError{Field: BodyField, Message: "Invalid JSON"})
	default:
		return nil, fmt.Errorf("decode %s: %w", input.Schema(), err)
	}
}

// typeErrors decodes every member of the object in data into its field of input
// separately and reports each mismatch, in field order.
func typeErrors(data []byte, input Input) []domain.FieldError {
	var members map[string]json.RawMessage
	if err := json.Unmarshal(data, &members); err != nil {
		return nil
	}

	var errs []domain.FieldError

	t := reflect.TypeOf(input).Elem()
	for i := range t.NumField() {
		field := t.Field(i)

		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			continue
		}

		raw, ok := member(members, name)
		if !ok {
			continue
		}

		var typeErr *json.UnmarshalTypeError
		if err := json.Unmarshal(raw, reflect.New(field.Type).Interface()); errors.As(err, &typeErr) {
			errs = append(errs, domain.FieldError{
				Field:   name,
				Message: fmt.Sprintf("Expected %s, received %s", jsonType(typeErr.Type), receivedType(typeErr.Value)),
			})
		}
	}

	return errs
}

// member looks up name the way encoding/json matches keys, preferring an exact match.
func member(members map[string]json.RawMessage, name string) (json.RawMessage, bool) {
	if raw, ok := members[name]; ok {
		return raw, true
	}

	for key, raw := range members {
		if strings.EqualFold(key, name) {
			return raw, true
		}
	}

	return nil, false
}

func jsonType(t reflect.Type) string {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	//nolint:exhaustive
	switch t.Kind() {
	case reflect.String:
		return "string"
	case reflect.Bool:
		return "boolean"
	case reflect.Struct, reflect.Map:
		return "object"
	case reflect.Slice, reflect.Array:
		return "array"
	default:
		return "number"
	}
}

// receivedType maps encoding/json's description of the offending value to a JSON type name.
func receivedType(value string) string {
	switch {
	case strings.HasPrefix(value, "number"):
		return "number"
	case value == "bool":
		return "boolean"
	default:
		return value
	}
}
