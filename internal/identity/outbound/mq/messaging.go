package mq

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/shandysiswandi/otpgate/internal/identity/usecase"
	"github.com/shandysiswandi/otpgate/internal/pkg/instrument"
	"github.com/shandysiswandi/otpgate/internal/pkg/messaging"
	"github.com/shandysiswandi/otpgate/internal/shared/event"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

type Messaging struct {
	client messaging.Publisher
	ins    instrument.Instrumentation
}

func NewMessaging(client messaging.Publisher, ins instrument.Instrumentation) *Messaging {
	return &Messaging{client: client, ins: ins}
}

func (m *Messaging) PublishPrincipalVerified(ctx context.Context, ev usecase.PrincipalVerifiedEvent) error {
	return m.publish(ctx, "PublishPrincipalVerified", event.PrincipalVerifiedTopic, ev.PrincipalID, event.PrincipalVerifiedMessage{
		PrincipalID: ev.PrincipalID,
		Variant:     ev.Variant.String(),
		Channel:     string(ev.Channel),
		VerifiedAt:  ev.VerifiedAt,
	})
}

func (m *Messaging) PublishPrincipalProvisioned(ctx context.Context, ev usecase.PrincipalProvisionedEvent) error {
	return m.publish(ctx, "PublishPrincipalProvisioned", event.PrincipalProvisionedTopic, ev.PrincipalID, event.PrincipalProvisionedMessage{
		PrincipalID: ev.PrincipalID,
		Variant:     ev.Variant.String(),
		Role:        int(ev.Role),
		CreatedBy:   ev.CreatedBy,
		CreatedAt:   ev.CreatedAt,
	})
}

// publish keys every message by principal id so one principal's events stay
// ordered on partitioned brokers.
func (m *Messaging) publish(ctx context.Context, name, topic string, principalID int64, payload any) error {
	ctx, span := m.ins.Tracer("identity.outbound.mq").Start(ctx, name)
	defer span.End()
	span.SetAttributes(attribute.String("messaging.destination", topic))

	body, err := json.Marshal(payload)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	if _, err := m.client.Publish(ctx, topic, messaging.Message{
		Key:     []byte(strconv.FormatInt(principalID, 10)),
		Body:    body,
		Headers: map[string]string{event.HeaderCorrelationID: instrument.GetCorrelationID(ctx)},
	}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}
