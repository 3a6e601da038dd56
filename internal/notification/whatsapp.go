package notification

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

type WhatsAppConfig struct {
	BaseURL    string
	Token      string
	SenderID   string
	Timeout    time.Duration
	RetryCount int
}

type whatsAppText struct {
	Body string `json:"body"`
}

type whatsAppRequest struct {
	MessagingProduct string       `json:"messaging_product"`
	To               string       `json:"to"`
	Type             string       `json:"type"`
	Text             whatsAppText `json:"text"`
}

type whatsAppError struct {
	Error struct {
		Message string `json:"message"`
		Code    int    `json:"code"`
	} `json:"error"`
}

// WhatsAppGateway posts text messages to a WhatsApp Business style HTTP API.
type WhatsAppGateway struct {
	httpClient *resty.Client
	cb         *gobreaker.CircuitBreaker
	senderID   string
	logger     *zap.Logger
}

func NewWhatsAppGateway(cfg WhatsAppConfig, logger *zap.Logger) *WhatsAppGateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.RetryCount).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(3 * time.Second).
		SetAuthToken(cfg.Token).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "whatsapp-gateway",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return &WhatsAppGateway{
		httpClient: client,
		cb:         cb,
		senderID:   cfg.SenderID,
		logger:     logger,
	}
}

func (g *WhatsAppGateway) Channel() string {
	return "whatsapp"
}

func (g *WhatsAppGateway) Send(ctx context.Context, msg Message) error {
	to := normalizePhone(msg.To)
	if to == "" {
		return ErrNoRecipient
	}

	_, err := g.cb.Execute(func() (interface{}, error) {
		return nil, g.post(ctx, to, msg.Body)
	})
	return err
}

func (g *WhatsAppGateway) post(ctx context.Context, to, body string) error {
	var apiErr whatsAppError
	resp, err := g.httpClient.R().
		SetContext(ctx).
		SetBody(whatsAppRequest{
			MessagingProduct: "whatsapp",
			To:               to,
			Type:             "text",
			Text:             whatsAppText{Body: body},
		}).
		SetError(&apiErr).
		Post("/" + g.senderID + "/messages")

	if err != nil {
		g.logger.Error("WhatsApp API call failed", zap.Error(err))
		return fmt.Errorf("failed to call WhatsApp API: %w", err)
	}

	if resp.IsError() {
		g.logger.Error("WhatsApp API returned error",
			zap.Int("status_code", resp.StatusCode()),
			zap.String("msg", apiErr.Error.Message),
		)
		return fmt.Errorf("WhatsApp API error: status %d: %s", resp.StatusCode(), apiErr.Error.Message)
	}

	g.logger.Info("WhatsApp message sent", zap.String("to", maskPhone(to)))
	return nil
}

// normalizePhone keeps digits only, the format the gateway expects.
func normalizePhone(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func maskPhone(phone string) string {
	if len(phone) <= 4 {
		return "****"
	}
	return strings.Repeat("*", len(phone)-4) + phone[len(phone)-4:]
}
