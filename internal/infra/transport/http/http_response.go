package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/mkrupp/postbox/internal/domain"
)

// Literal messages of error responses.
const (
	MessageInvalidCredentials = "Invalid credentials"
	MessageUnauthorized       = "Unauthorized"
	MessageForbidden          = "Forbidden"
	MessageNotFound           = "Not found"
	MessageUsernameTaken      = "Username already taken"
	MessageInternalError      = "Internal server error"
)

// WriteJSON writes v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		return fmt.Errorf("encode response: %w", err)
	}

	return nil
}

// WriteMessage writes a {"message": ...} response.
func WriteMessage(w http.ResponseWriter, status int, message string) error {
	return WriteJSON(w, status, domain.MessageResponse{Message: message})
}

// StatusOf maps a service error to its response status and body.
// Errors without a mapping become 500 with the generic message.
func StatusOf(err error) (int, any) {
	var validationErr *domain.ValidationError

	switch {
	case errors.As(err, &validationErr):
		return http.StatusUnprocessableEntity, validationErr
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnprocessableEntity, domain.MessageResponse{Message: MessageInvalidCredentials}
	case errors.Is(err, domain.ErrUnauthorized), errors.Is(err, domain.ErrNoAuthToken):
		return http.StatusUnauthorized, domain.MessageResponse{Message: MessageUnauthorized}
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, domain.MessageResponse{Message: MessageForbidden}
	case errors.Is(err, domain.ErrPostNotFound), errors.Is(err, domain.ErrUserNotFound):
		return http.StatusNotFound, domain.MessageResponse{Message: MessageNotFound}
	case errors.Is(err, domain.ErrUserAlreadyExists):
		return http.StatusConflict, domain.MessageResponse{Message: MessageUsernameTaken}
	default:
		return http.StatusInternalServerError, domain.MessageResponse{Message: MessageInternalError}
	}
}

// WriteError writes the response StatusOf(err) describes.
func WriteError(w http.ResponseWriter, err error) error {
	status, body := StatusOf(err)

	return WriteJSON(w, status, body)
}
