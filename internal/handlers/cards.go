package handlers

import (
	"context"
	"log/slog"

	"github.com/labstack/echo/v4"

	"github.com/mesobkitchen/orderdesk/internal/models"
	"github.com/mesobkitchen/orderdesk/internal/workflow"
)

// EventPublisher is satisfied by the kafka producer; nil disables publishing.
type EventPublisher interface {
	PublishEvent(ctx context.Context, key string, event any) error
}

// OrderCard is what a dashboard renders per order: the order itself, the
// workflow table's presentation metadata and the single legal action. Orders
// in a terminal or unknown status carry no action at all.
type OrderCard struct {
	Order       models.Order `json:"order"`
	Icon        string       `json:"icon,omitempty"`
	Color       string       `json:"color,omitempty"`
	Description string       `json:"description,omitempty"`
	ActionText  string       `json:"actionText,omitempty"`
	NextStatus  string       `json:"nextStatus,omitempty"`
	CanCancel   bool         `json:"canCancel"`
}

func buildCard(o models.Order, lang workflow.Language) OrderCard {
	card := OrderCard{
		Order:     o,
		CanCancel: workflow.CanCancel(o.Status),
	}
	cfg, ok := workflow.Lookup(o.Status)
	if !ok {
		// unknown status: aggregate as pending elsewhere, offer nothing here
		return card
	}
	card.Icon = cfg.Icon
	card.Color = cfg.Color
	card.Description = cfg.Description[lang]
	if cfg.NextStatus != "" {
		card.NextStatus = cfg.NextStatus
		card.ActionText = cfg.ButtonText[lang]
	}
	return card
}

func buildCards(orders []models.Order, lang workflow.Language) []OrderCard {
	cards := make([]OrderCard, 0, len(orders))
	for _, o := range orders {
		cards = append(cards, buildCard(o, lang))
	}
	return cards
}

func langFromRequest(c echo.Context) workflow.Language {
	switch workflow.Language(c.QueryParam("lang")) {
	case workflow.LangAmharic:
		return workflow.LangAmharic
	case workflow.LangTigrigna:
		return workflow.LangTigrigna
	default:
		return workflow.LangEnglish
	}
}

// publishEvent never fails the request over a broker problem.
func publishEvent(ctx context.Context, l *slog.Logger, p EventPublisher, key string, event any) {
	if p == nil {
		return
	}
	if err := p.PublishEvent(ctx, key, event); err != nil {
		l.Error("event_publish_failed", "key", key, "error", err)
	}
}
