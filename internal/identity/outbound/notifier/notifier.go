package notifier

import (
	"context"
	"errors"
	"fmt"

	"github.com/shandysiswandi/otpgate/internal/identity/entity"
	"github.com/shandysiswandi/otpgate/internal/identity/usecase"
	"github.com/shandysiswandi/otpgate/internal/pkg/instrument"
	"github.com/shandysiswandi/otpgate/internal/pkg/mail"
	"github.com/shandysiswandi/otpgate/internal/pkg/sms"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var (
	ErrChannelUnavailable = errors.New("notifier: channel not configured")
	ErrUnknownChannel     = errors.New("notifier: unknown channel")
)

// Notifier routes a notification to the SMS gateway or the mail relay. One
// call is one delivery attempt.
type Notifier struct {
	sms  sms.SMS
	mail mail.Mail
	ins  instrument.Instrumentation
}

func New(smsClient sms.SMS, mailClient mail.Mail, ins instrument.Instrumentation) *Notifier {
	return &Notifier{sms: smsClient, mail: mailClient, ins: ins}
}

func (n *Notifier) Send(ctx context.Context, msg usecase.Notification) (err error) {
	ctx, span := n.ins.Tracer("identity.outbound.notifier").Start(ctx, "Send")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()
	span.SetAttributes(attribute.String("notification.channel", string(msg.Channel)))

	switch msg.Channel {
	case entity.ChannelSMS:
		if n.sms == nil {
			return fmt.Errorf("%w: %s", ErrChannelUnavailable, msg.Channel)
		}
		return n.sms.Send(ctx, msg.Destination, msg.Body)
	case entity.ChannelEmail:
		if n.mail == nil {
			return fmt.Errorf("%w: %s", ErrChannelUnavailable, msg.Channel)
		}
		return n.mail.Send(ctx, mail.Message{
			To:       []string{msg.Destination},
			Subject:  msg.Subject,
			TextBody: msg.Body,
		})
	default:
		return fmt.Errorf("%w: %q", ErrUnknownChannel, msg.Channel)
	}
}
