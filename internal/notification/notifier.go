package notification

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/casacaminho/shelter-api/internal/model"
	"github.com/casacaminho/shelter-api/pkg/metrics"
)

const defaultTimeout = 15 * time.Second

// Notifier turns workflow outcomes into best-effort messages. Each message is
// delivered on its own goroutine so the caller never waits on a gateway.
// Delivery errors are logged and counted, never returned.
type Notifier struct {
	patients Gateway
	staff    Gateway
	staffTo  string
	timeout  time.Duration
	metrics  *metrics.Metrics
	inflight sync.WaitGroup
}

func NewNotifier(patients, staff Gateway, staffTo string, timeout time.Duration, m *metrics.Metrics) *Notifier {
	if patients == nil {
		patients = NopGateway{Name: "whatsapp"}
	}
	if staff == nil {
		staff = NopGateway{Name: "email"}
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Notifier{
		patients: patients,
		staff:    staff,
		staffTo:  staffTo,
		timeout:  timeout,
		metrics:  m,
	}
}

func RoomAllocatedMessage(patient *model.Patient, room *model.Room, entry model.Date) string {
	return fmt.Sprintf(
		"Olá %s! Sua acolhida na Casa do Caminho está confirmada: quarto %s, entrada em %s.",
		patient.Name, room.Number, entry.Format("02/01/2006"),
	)
}

func (n *Notifier) RoomAllocated(ctx context.Context, patient *model.Patient, room *model.Room, entry model.Date) {
	n.dispatch(ctx, n.patients, Message{
		To:   patient.Phone,
		Body: RoomAllocatedMessage(patient, room, entry),
	}, patient.ID.String())
}

func (n *Notifier) PatientQueued(ctx context.Context, patient *model.Patient, entry *model.WaitingListEntry) {
	n.dispatch(ctx, n.staff, Message{
		To:      n.staffTo,
		Subject: "Novo paciente na lista de espera",
		Body: fmt.Sprintf(
			"%s (telefone %s) entrou na lista de espera em %s.",
			patient.Name, patient.Phone, entry.EntryDate.Format("02/01/2006"),
		),
	}, patient.ID.String())
}

// Shutdown waits for messages still being delivered, or until ctx is done.
func (n *Notifier) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		n.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// dispatch delivers msg in the background on a context detached from the
// request, so neither a slow gateway nor a client disconnect affects the
// already committed change.
func (n *Notifier) dispatch(ctx context.Context, gw Gateway, msg Message, patientID string) {
	ctx = context.WithoutCancel(ctx)
	n.inflight.Add(1)
	go func() {
		defer n.inflight.Done()
		n.deliver(ctx, gw, msg, patientID)
	}()
}

func (n *Notifier) deliver(ctx context.Context, gw Gateway, msg Message, patientID string) {
	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	channel := gw.Channel()
	err := gw.Send(ctx, msg)
	switch {
	case err == nil:
		if n.metrics != nil {
			n.metrics.NotificationsSent.WithLabelValues(channel).Inc()
		}
	case errors.Is(err, ErrNoRecipient):
		log.Warn().Str("channel", channel).Str("patient_id", patientID).Msg("Notification skipped, no recipient")
	default:
		if n.metrics != nil {
			n.metrics.NotificationsFailed.WithLabelValues(channel).Inc()
		}
		log.Error().Err(err).Str("channel", channel).Str("patient_id", patientID).Msg("Failed to send notification")
	}
}
