package notification

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"
)

var ErrNoRecipient = errors.New("notification has no recipient")

type Message struct {
	To      string
	Subject string
	Body    string
}

// Gateway delivers one message over an outbound channel.
type Gateway interface {
	Send(ctx context.Context, msg Message) error
	Channel() string
}

// NopGateway stands in for a channel whose credentials are not configured.
type NopGateway struct {
	Name string
}

func (g NopGateway) Send(ctx context.Context, msg Message) error {
	log.Debug().Str("channel", g.Channel()).Str("to", maskPhone(msg.To)).Msg("Notification channel disabled, message dropped")
	return nil
}

func (g NopGateway) Channel() string {
	if g.Name == "" {
		return "nop"
	}
	return g.Name
}
