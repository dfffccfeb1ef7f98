package mail

import (
	"context"
	"fmt"

	"github.com/ignite/listguard/internal/domain"
	"github.com/ignite/listguard/internal/service/subscriber"
	"github.com/ignite/listguard/internal/service/template"
)

// VerificationNotifier renders and sends the subscription confirmation
// message.
type VerificationNotifier struct {
	mailer   Mailer
	renderer *template.Renderer
	links    *subscriber.Links
}

// NewVerificationNotifier creates a notifier.
func NewVerificationNotifier(m Mailer, r *template.Renderer, links *subscriber.Links) *VerificationNotifier {
	return &VerificationNotifier{mailer: m, renderer: r, links: links}
}

// SendVerification mails the signed confirmation link to s.
func (n *VerificationNotifier) SendVerification(ctx context.Context, list *domain.SubscriptionList, s *domain.Subscriber) error {
	if s.VerificationToken == nil {
		return nil
	}
	vars := map[string]interface{}{
		"name":             s.Name,
		"email":            s.Email,
		"list_name":        list.Name,
		"verify_link":      n.links.VerifyURL(*s.VerificationToken),
		"unsubscribe_link": n.links.UnsubscribeURL(s.UnsubscribeToken),
	}
	subject, err := n.renderer.Render("system:verification:subject", template.VerificationSubject, vars)
	if err != nil {
		return fmt.Errorf("render verification subject: %w", err)
	}
	body, err := n.renderer.Render("system:verification:body", template.VerificationBody, vars)
	if err != nil {
		return fmt.Errorf("render verification body: %w", err)
	}
	return n.mailer.Send(ctx, s.Email, subject, body)
}
