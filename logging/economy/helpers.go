package economy

import (
	"context"

	"battle-arena/server/logging"
)

const (
	// EventGoldGranted is emitted when periodic mine income credits a slot.
	EventGoldGranted logging.EventType = "economy.gold_granted"
	// EventGoldSpendFailed is emitted when a purchase exceeds the balance.
	EventGoldSpendFailed logging.EventType = "economy.gold_spend_failed"
	// EventTroopPurchased is emitted when a troop spawn is paid for.
	EventTroopPurchased logging.EventType = "economy.troop_purchased"
)

// GoldPayload captures a balance change.
type GoldPayload struct {
	Slot    int `json:"slot"`
	Amount  int `json:"amount"`
	Balance int `json:"balance"`
}

// TroopPurchasePayload captures what a slot paid for.
type TroopPurchasePayload struct {
	Slot      int    `json:"slot"`
	TroopType string `json:"troopType"`
	Cost      int    `json:"cost"`
	Balance   int    `json:"balance"`
}

// GoldGranted publishes a periodic income event.
func GoldGranted(ctx context.Context, pub logging.Publisher, tick uint64, match logging.EntityRef, payload GoldPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventGoldGranted,
		Tick:     tick,
		Actor:    match,
		Severity: logging.SeverityDebug,
		Category: logging.CategoryEconomy,
		Payload:  payload,
		Extra:    extra,
	}
	pub.Publish(ctx, event)
}

// GoldSpendFailed publishes a rejected purchase.
func GoldSpendFailed(ctx context.Context, pub logging.Publisher, tick uint64, match logging.EntityRef, payload GoldPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventGoldSpendFailed,
		Tick:     tick,
		Actor:    match,
		Severity: logging.SeverityWarn,
		Category: logging.CategoryEconomy,
		Payload:  payload,
		Extra:    extra,
	}
	pub.Publish(ctx, event)
}

// TroopPurchased publishes a paid troop spawn.
func TroopPurchased(ctx context.Context, pub logging.Publisher, tick uint64, match logging.EntityRef, payload TroopPurchasePayload, extra map[string]any) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventTroopPurchased,
		Tick:     tick,
		Actor:    match,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryEconomy,
		Payload:  payload,
		Extra:    extra,
	}
	pub.Publish(ctx, event)
}
