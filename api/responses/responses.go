// Package responses writes the JSON envelopes every handler returns.
package responses

import (
	"context"
	"encoding/json"
	"net/http"

	pkgerrors "github.com/sabjimart/sabji-backend/pkg/errors"
	"github.com/sabjimart/sabji-backend/pkg/logger"
	"github.com/sabjimart/sabji-backend/pkg/types"
)

func WriteSuccess(w http.ResponseWriter, data any) {
	WriteJSON(w, http.StatusOK, types.SuccessEnvelope{Data: data})
}

func WriteSuccessStatus(w http.ResponseWriter, status int, data any) {
	WriteJSON(w, status, types.SuccessEnvelope{Data: data})
}

// WriteError renders err as an error envelope. Errors without a code are
// treated as internal; their text never reaches the client.
func WriteError(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, err error) {
	typed := pkgerrors.As(err)
	if typed == nil {
		typed = pkgerrors.Wrap(pkgerrors.CodeInternal, err, "unexpected error")
	}
	class := pkgerrors.ClassOf(typed.Code())

	apiErr := types.APIError{Code: string(typed.Code()), Message: class.Fallback}
	if class.ShowMessage && typed.Message() != "" {
		apiErr.Message = typed.Message()
	}
	if class.ShowDetails {
		apiErr.Details = typed.Details()
	}

	logRejection(ctx, logg, class.Status, typed, err)
	WriteJSON(w, class.Status, types.ErrorEnvelope{Error: apiErr})
}

func logRejection(ctx context.Context, logg *logger.Logger, status int, typed *pkgerrors.Error, err error) {
	if err == nil {
		err = typed
	}
	report := pkgerrors.Inspect(err)
	fields := report.Fields()
	fields["status"] = status
	if d, ok := typed.Details().(map[string]any); ok && d["step"] != nil {
		fields["step"] = d["step"]
	}
	ctx = logg.WithFields(ctx, fields)

	if status >= http.StatusInternalServerError {
		logg.Error(ctx, "request failed", err)
		return
	}
	logg.Info(ctx, "request rejected: "+typed.Message())
}

// WriteJSON writes payload as-is, for endpoints with a fixed wire format.
func WriteJSON(w http.ResponseWriter, status int, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		status = http.StatusInternalServerError
		body = []byte(`{"error":{"code":"INTERNAL_ERROR","message":"internal server error"}}`)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(body, '\n'))
}
