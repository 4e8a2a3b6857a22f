package webhooks

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/sabjimart/sabji-backend/api/responses"
	razorpaywebhook "github.com/sabjimart/sabji-backend/internal/webhooks/razorpay"
	pkgerrors "github.com/sabjimart/sabji-backend/pkg/errors"
	"github.com/sabjimart/sabji-backend/pkg/logger"
	"github.com/sabjimart/sabji-backend/pkg/razorpay"
)

const (
	signatureHeader = "X-Razorpay-Signature"
	eventIDHeader   = "X-Razorpay-Event-Id"
	maxWebhookBody  = 1 << 20
)

type RazorpayWebhookService interface {
	HandleEvent(ctx context.Context, event razorpay.WebhookEvent) (razorpaywebhook.Outcome, error)
}

type razorpayWebhookGuard interface {
	CheckAndMark(ctx context.Context, eventID string) (bool, error)
	Release(ctx context.Context, eventID string) error
}

type webhookRecorder interface {
	IncWebhook(event, outcome string)
}

type statusBody struct {
	Status string `json:"status"`
}

// RazorpayWebhook verifies and applies payment events. The signature is checked over the raw
// body before anything is decoded.
func RazorpayWebhook(svc RazorpayWebhookService, secret string, guard razorpayWebhookGuard, metrics webhookRecorder, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if strings.TrimSpace(secret) == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "server misconfiguration"))
			return
		}
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "webhook service unavailable"))
			return
		}

		payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request body"))
			return
		}

		if !razorpay.VerifyWebhookSignature(payload, r.Header.Get(signatureHeader), secret) {
			record(metrics, "unknown", "invalid_signature")
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid signature"))
			return
		}

		event, err := razorpay.ParseWebhookEvent(payload)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payload"))
			return
		}
		if logg != nil {
			ctx = logg.WithFields(ctx, map[string]any{"razorpay_event": event.Event})
		}

		eventID := strings.TrimSpace(r.Header.Get(eventIDHeader))
		if eventID != "" && guard != nil {
			seen, err := guard.CheckAndMark(ctx, eventID)
			if err != nil {
				if logg != nil {
					logg.Error(ctx, "razorpay webhook idempotency check failed", err)
				}
			} else if seen {
				record(metrics, event.Event, string(razorpaywebhook.OutcomeDuplicate))
				responses.WriteJSON(w, http.StatusOK, statusBody{Status: "ok"})
				return
			}
		}

		outcome, err := svc.HandleEvent(ctx, event)
		record(metrics, event.Event, string(outcome))
		if err != nil {
			if eventID != "" && guard != nil {
				if relErr := guard.Release(ctx, eventID); relErr != nil && logg != nil {
					logg.Warn(logg.WithField(ctx, "error", relErr.Error()), "razorpay webhook claim not released; redelivery will be skipped")
				}
			}
			if logg != nil {
				logg.Error(ctx, "razorpay webhook processing failed", err)
			}
			responses.WriteJSON(w, http.StatusOK, statusBody{Status: "received"})
			return
		}

		if logg != nil {
			logg.Info(ctx, "razorpay webhook processed")
		}
		responses.WriteJSON(w, http.StatusOK, statusBody{Status: "ok"})
	}
}

func record(metrics webhookRecorder, event, outcome string) {
	if metrics != nil {
		metrics.IncWebhook(event, outcome)
	}
}
