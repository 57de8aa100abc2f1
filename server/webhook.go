package server

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/example/storefront/pkg/apperrors"
	"github.com/example/storefront/pkg/repository"
	"github.com/example/storefront/pkg/service"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

const (
	signatureHeader  = "Stripe-Signature"
	defaultTolerance = 5 * time.Minute

	eventCheckoutCompleted = "checkout.session.completed"
	eventPaymentSucceeded  = "payment_intent.succeeded"
	eventPaymentFailed     = "payment_intent.payment_failed"
)

// webhookEvent is the provider's envelope. The payload under data.object is
// decoded per event type, never passed through untyped.
type webhookEvent struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object json.RawMessage `json:"object"`
	} `json:"data"`
}

// checkoutSessionCompleted is the only event type that drives order creation.
type checkoutSessionCompleted struct {
	ID              string `json:"id"`
	PaymentIntent   string `json:"payment_intent"`
	CustomerDetails struct {
		Email string `json:"email"`
	} `json:"customer_details"`
	Metadata struct {
		CartSession     string `json:"cart_session"`
		CustomerID      string `json:"customer_id"`
		ShippingAddress string `json:"shipping_address"`
	} `json:"metadata"`
}

func (s *Server) handleStripeWebhook(c *gin.Context) {
	payload, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read body"})
		return
	}

	tolerance := s.config.Stripe.Tolerance
	if tolerance == 0 {
		tolerance = defaultTolerance
	}
	if err := verifySignature(payload, c.GetHeader(signatureHeader),
		[]byte(s.config.Stripe.WebhookSecret), tolerance, time.Now()); err != nil {
		s.logger.Warn("Webhook signature verification failed", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid signature"})
		return
	}

	var event webhookEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed event payload"})
		return
	}

	s.recordWebhookEvent(&event)

	switch event.Type {
	case eventCheckoutCompleted:
		var session checkoutSessionCompleted
		if err := json.Unmarshal(event.Data.Object, &session); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "malformed checkout session"})
			return
		}
		if session.Metadata.CartSession == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing cart_session metadata"})
			return
		}

		order, err := s.orders.Checkout(c.Request.Context(), service.CheckoutInput{
			SessionID:        session.Metadata.CartSession,
			CustomerID:       session.Metadata.CustomerID,
			PaymentSessionID: session.ID,
			PaymentIntentID:  session.PaymentIntent,
			ShippingAddress:  session.Metadata.ShippingAddress,
		})
		if err != nil {
			s.respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"received": true, "order_id": order.ID})

	case eventPaymentSucceeded, eventPaymentFailed:
		// Acknowledged with no further action
		s.logger.Info("Payment event received",
			zap.String("event_id", event.ID), zap.String("type", event.Type))
		c.JSON(http.StatusOK, gin.H{"received": true})

	default:
		s.logger.Info("Ignoring webhook event",
			zap.String("event_id", event.ID), zap.String("type", event.Type))
		c.JSON(http.StatusOK, gin.H{"received": true})
	}
}

func (s *Server) recordWebhookEvent(event *webhookEvent) {
	if s.events == nil {
		return
	}
	go func() {
		if err := s.events.RecordEvent(context.Background(), &repository.EventLog{
			Source:   "stripe",
			Type:     event.Type,
			EntityID: event.ID,
			Data:     bson.M{"payload_bytes": len(event.Data.Object)},
		}); err != nil {
			s.logger.Warn("Failed to record webhook event",
				zap.String("event_id", event.ID), zap.Error(err))
		}
	}()
}

// verifySignature checks a "t=<unix>,v1=<hex>" header where v1 is
// HMAC-SHA256(secret, "<t>.<payload>"). Comparison is constant-time and the
// timestamp must fall within the tolerance window.
func verifySignature(payload []byte, header string, secret []byte, tolerance time.Duration, now time.Time) error {
	if header == "" {
		return apperrors.BadRequest("missing signature header")
	}

	var timestamp int64
	var signatures [][]byte
	for _, part := range strings.Split(header, ",") {
		kv := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch kv[0] {
		case "t":
			ts, err := strconv.ParseInt(kv[1], 10, 64)
			if err != nil {
				return apperrors.BadRequest("malformed signature timestamp")
			}
			timestamp = ts
		case "v1":
			sig, err := hex.DecodeString(kv[1])
			if err != nil {
				continue
			}
			signatures = append(signatures, sig)
		}
	}
	if timestamp == 0 || len(signatures) == 0 {
		return apperrors.BadRequest("malformed signature header")
	}

	age := now.Sub(time.Unix(timestamp, 0))
	if age > tolerance || age < -tolerance {
		return apperrors.BadRequest("signature timestamp outside tolerance")
	}

	mac := hmac.New(sha256.New, secret)
	fmt.Fprintf(mac, "%d.%s", timestamp, payload)
	expected := mac.Sum(nil)

	for _, sig := range signatures {
		if hmac.Equal(expected, sig) {
			return nil
		}
	}
	return apperrors.BadRequest("no matching signature")
}
