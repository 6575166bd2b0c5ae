package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/dmitrijs2005/gophauth/internal/common"
)

// maxBodyBytes caps request bodies; credentials never come close.
const maxBodyBytes = 1 << 16

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errors.New("request body must contain a single JSON value")
	}
	return nil
}

// writeServiceError maps a UserService error to a status code and a body
// that never carries internal detail.
func writeServiceError(w http.ResponseWriter, err error) {
	var verr *common.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, map[string]any{"errors": verr.Fields})
	case errors.Is(err, common.ErrDuplicateUsername):
		writeError(w, http.StatusConflict, "This user already exists")
	case errors.Is(err, common.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "invalid credentials")
	case errors.Is(err, common.ErrRefreshTokenExpired):
		writeError(w, http.StatusUnauthorized, common.ErrRefreshTokenExpired.Error())
	case errors.Is(err, common.ErrAccountLocked):
		writeError(w, http.StatusTooManyRequests, common.ErrAccountLocked.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// tokenMessage tells the client only whether to refresh or log in again.
func tokenMessage(err error) string {
	switch {
	case errors.Is(err, common.ErrMissingToken):
		return "token is missing"
	case errors.Is(err, common.ErrTokenExpired):
		return "token expired"
	default:
		return "token is invalid"
	}
}
