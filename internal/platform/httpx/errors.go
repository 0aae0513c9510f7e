package httpx

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
)

// Client-facing messages. They never carry internal detail.
const (
	MsgUnauthorized   = "Unauthorized"
	MsgInvalidToken   = "Invalid token"
	MsgForbidden      = "Forbidden"
	MsgInvalidID      = "Invalid ID"
	MsgInvalidRequest = "Invalid request"
	MsgInternal       = "Internal Server Error"
)

// ErrEmptyBody indicates a request without a JSON body.
var ErrEmptyBody = errors.New("empty request body")

// ValidationError responds 400 with per-field messages.
func ValidationError(w http.ResponseWriter, err error) {
	fields := make(map[string]string)
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			fields[fe.Field()] = fe.Tag()
		}
	}
	JSON(w, http.StatusBadRequest, ErrorBody{Error: MsgInvalidRequest, Fields: fields})
}

// BadRequest responds 400 with the generic invalid request message.
func BadRequest(w http.ResponseWriter) {
	Error(w, http.StatusBadRequest, MsgInvalidRequest)
}

// InvalidID responds 400 {"error":"Invalid ID"}.
func InvalidID(w http.ResponseWriter) {
	Error(w, http.StatusBadRequest, MsgInvalidID)
}

// Internal responds 500 without detail.
func Internal(w http.ResponseWriter) {
	Error(w, http.StatusInternalServerError, MsgInternal)
}
