package services

import (
	"context"
	"strings"

	"github.com/nanogen/studio/internal/logging"
	"github.com/nanogen/studio/internal/store"
	"github.com/nanogen/studio/types"
)

// Payment methods accepted at checkout. Nothing is charged.
const (
	PayByCard = "card"
	PayByQR   = "qr"
)

// Plan describes one subscription tier.
type Plan struct {
	ID          types.Subscription `json:"id"`
	Name        string             `json:"name"`
	PriceUSD    int                `json:"price_usd"`
	Period      string             `json:"period,omitempty"`
	Description string             `json:"description"`
	Features    []string           `json:"features"`
	Popular     bool               `json:"popular,omitempty"`
}

var plans = []Plan{
	{
		ID:          types.SubscriptionFree,
		Name:        "Starter",
		PriceUSD:    0,
		Description: "Basic generation for casual creators exploring AI art.",
		Features:    []string{"20 Generations / day", "Standard Styles"},
	},
	{
		ID:          types.SubscriptionCreator,
		Name:        "Creator",
		PriceUSD:    19,
		Period:      "mo",
		Description: "Professional tools for power users who demand high quality.",
		Features:    []string{"Unlimited Generation", "All Premium Styles", "4K Pro Upscaling"},
		Popular:     true,
	},
	{
		ID:          types.SubscriptionVisionary,
		Name:        "Visionary",
		PriceUSD:    49,
		Period:      "mo",
		Description: "The ultimate suite for commercial studios and elite artists.",
		Features:    []string{"Full Commercial Rights", "Priority Support"},
	},
}

// PlanUpdater changes a user's plan.
type PlanUpdater interface {
	Update(ctx context.Context, username string, patch store.UserPatch) (types.User, error)
}

// SubscriptionService is a mocked checkout. It records the chosen plan on
// the account and does not enforce entitlements.
type SubscriptionService struct {
	repo PlanUpdater
	log  logging.Logger
}

func NewSubscriptionService(repo PlanUpdater, log logging.Logger) *SubscriptionService {
	if log == nil {
		log = logging.Discard()
	}
	return &SubscriptionService{repo: repo, log: log}
}

// Plans lists the tiers in display order.
func (s *SubscriptionService) Plans() []Plan {
	out := make([]Plan, len(plans))
	copy(out, plans)
	return out
}

// Checkout switches username to plan.
func (s *SubscriptionService) Checkout(ctx context.Context, username string, plan types.Subscription, method string) (types.User, error) {
	if !plan.Valid() {
		return types.User{}, ErrInvalidPlan
	}
	method = strings.ToLower(strings.TrimSpace(method))
	if method != PayByCard && method != PayByQR {
		return types.User{}, ErrInvalidPayMethod
	}

	user, err := s.repo.Update(ctx, username, store.UserPatch{Subscription: &plan})
	if err != nil {
		return types.User{}, err
	}
	s.log.Info(ctx, "subscription changed", "username", username, "plan", plan, "method", method)
	return user, nil
}
