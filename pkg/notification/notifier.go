package notification

import (
	"fmt"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/example/storefront/pkg/config"
	"github.com/example/storefront/pkg/models"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"
)

// OrderPlaced is sent to the notification actor after a successful checkout.
type OrderPlaced struct {
	OrderID   string
	Email     string
	Total     float64
	ItemCount int
}

// Notifier owns the actor system and exposes fire-and-forget sends.
type Notifier struct {
	system *actor.ActorSystem
	pid    *actor.PID
	logger *zap.Logger
}

func New(cfg *config.SendGridConfig, logger *zap.Logger) (*Notifier, error) {
	system := actor.NewActorSystem()

	props := actor.PropsFromProducer(func() actor.Actor {
		return &mailActor{
			cfg:    cfg,
			logger: logger.Named("notification-actor"),
		}
	})
	pid, err := system.Root.SpawnNamed(props, "notification-actor")
	if err != nil {
		return nil, fmt.Errorf("failed to spawn notification actor: %w", err)
	}

	return &Notifier{
		system: system,
		pid:    pid,
		logger: logger,
	}, nil
}

// OrderPlaced queues an order-confirmation notification. It never blocks the
// caller and never reports delivery failures back to it.
func (n *Notifier) OrderPlaced(order *models.Order, email string) {
	n.system.Root.Send(n.pid, &OrderPlaced{
		OrderID:   order.ID,
		Email:     email,
		Total:     order.TotalAmount,
		ItemCount: len(order.Items),
	})
}

func (n *Notifier) Close() {
	n.system.Root.Stop(n.pid)
}

type mailActor struct {
	cfg    *config.SendGridConfig
	logger *zap.Logger
}

func (a *mailActor) Receive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *OrderPlaced:
		if msg.Email == "" {
			a.logger.Info("Skipping order confirmation, no customer email",
				zap.String("order_id", msg.OrderID))
			return
		}
		if err := a.sendConfirmation(msg); err != nil {
			a.logger.Error("Failed to send order confirmation",
				zap.String("order_id", msg.OrderID), zap.Error(err))
			return
		}
		a.logger.Info("Order confirmation sent",
			zap.String("order_id", msg.OrderID),
			zap.String("recipient", msg.Email))

	case *actor.Started:
		a.logger.Info("Notification actor started")

	case *actor.Stopping:
		a.logger.Info("Notification actor stopping")

	case *actor.Stopped:
		a.logger.Info("Notification actor stopped")
	}
}

func (a *mailActor) sendConfirmation(msg *OrderPlaced) error {
	from := mail.NewEmail(a.cfg.FromName, a.cfg.FromEmail)
	to := mail.NewEmail("", msg.Email)
	subject := fmt.Sprintf("Order %s confirmed", msg.OrderID)
	body := fmt.Sprintf("Thanks for your order! %d item(s), total %.2f.", msg.ItemCount, msg.Total)
	message := mail.NewSingleEmail(from, subject, to, body, body)

	client := sendgrid.NewSendClient(a.cfg.APIKey)
	resp, err := client.Send(message)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("sendgrid returned status %d", resp.StatusCode)
	}
	return nil
}
