package tours

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/wanderkit/wanderkit/pkg/i18n"
	"github.com/wanderkit/wanderkit/pkg/mailer"
)

// Notifier delivers out-of-band notifications about tour events.
type Notifier interface {
	TourInvited(ctx context.Context, tour *Tour, inviterID, inviteeID uuid.UUID, locale string) error
}

// EmailLookup resolves a user ID to their email address.
type EmailLookup func(ctx context.Context, userID uuid.UUID) (string, error)

// MailNotifier sends invite notifications by email.
type MailNotifier struct {
	mail       mailer.Mailer
	translator *i18n.Translator
	baseURL    string
	lookup     EmailLookup
}

func NewMailNotifier(mail mailer.Mailer, translator *i18n.Translator, baseURL string, lookup EmailLookup) *MailNotifier {
	return &MailNotifier{
		mail:       mail,
		translator: translator,
		baseURL:    baseURL,
		lookup:     lookup,
	}
}

func (n *MailNotifier) TourInvited(ctx context.Context, tour *Tour, inviterID, inviteeID uuid.UUID, locale string) error {
	inviteeEmail, err := n.lookup(ctx, inviteeID)
	if err != nil {
		return fmt.Errorf("resolve invitee email: %w", err)
	}
	inviterEmail, err := n.lookup(ctx, inviterID)
	if err != nil {
		return fmt.Errorf("resolve inviter email: %w", err)
	}

	link := fmt.Sprintf("%s/%s/tours/%s", n.baseURL, locale, tour.ID)

	return n.mail.Send(ctx, mailer.Message{
		To:       inviteeEmail,
		Subject:  n.translator.T(locale, "tours.invite.subject"),
		BodyHTML: n.translator.T(locale, "tours.invite.body", inviterEmail, tour.Title, link),
		Tag:      "tour_invite",
	})
}
