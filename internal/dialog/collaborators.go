package dialog

import (
	"context"

	"github.com/berdskdekor-ux/agro-bot/internal/domain"
)

// ZoneResolver maps region text to an IANA zone.
type ZoneResolver interface {
	Resolve(region string) (zone string, ok bool)
}

// Advisor answers open-ended gardening questions.
type Advisor interface {
	Ask(ctx context.Context, region, question string) string
}

// Diagnoser identifies a plant from a photo.
type Diagnoser interface {
	Diagnose(ctx context.Context, photoURL, region string) string
}

// Forecaster returns a short weather outlook for a region.
type Forecaster interface {
	Forecast(ctx context.Context, region string) string
}

// Checkout starts a premium purchase and returns the payment page URL.
type Checkout interface {
	CreatePayment(ctx context.Context, userID string, plan domain.Plan) (string, error)
}

// The outputs of these collaborators are forwarded verbatim.
const unavailableText = "This feature is not configured right now."

type unavailable struct{}

func (unavailable) Ask(context.Context, string, string) string      { return unavailableText }
func (unavailable) Diagnose(context.Context, string, string) string { return unavailableText }
func (unavailable) Forecast(context.Context, string) string         { return unavailableText }
