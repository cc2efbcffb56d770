package respond

import (
	"encoding/json"
	"net/http"

	"github.com/sirupsen/logrus"
)

// Failure is the minimal error body shared by handlers.
type Failure struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// JSON writes payload with the given status.
func JSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logrus.WithError(err).Error("respond: encode payload failed")
	}
}

// Error writes a {success:false, message} body.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, Failure{Message: message})
}

const maxBodyBytes = 1 << 20

// Decode reads a JSON request body of at most 1MiB into dst.
func Decode(w http.ResponseWriter, r *http.Request, dst any) error {
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(dst)
}
