package notify

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/eventportal/internal/common"
	"github.com/dmitrijs2005/eventportal/internal/netx"
)

type brevoContact struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type brevoEmail struct {
	Sender      brevoContact   `json:"sender"`
	To          []brevoContact `json:"to"`
	Subject     string         `json:"subject"`
	HTMLContent string         `json:"htmlContent"`
}

// BrevoSender sends credential emails synchronously through Brevo's
// /smtp/email endpoint.
type BrevoSender struct {
	client   *http.Client
	baseURL  string
	apiKey   string
	sender   brevoContact
	composer *Composer
}

func NewBrevoSender(client *http.Client, baseURL, apiKey, senderEmail, senderName string, composer *Composer) *BrevoSender {
	return &BrevoSender{
		client:   client,
		baseURL:  strings.TrimRight(baseURL, "/"),
		apiKey:   apiKey,
		sender:   brevoContact{Email: senderEmail, Name: senderName},
		composer: composer,
	}
}

func (s *BrevoSender) Deliver(ctx context.Context, cred Credential) error {
	if s.apiKey == "" {
		return fmt.Errorf("%w: brevo api key is not configured", common.ErrDeliveryFailed)
	}

	subject, body, err := s.composer.Compose(cred)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrDeliveryFailed, err)
	}

	msg := brevoEmail{
		Sender:      s.sender,
		To:          []brevoContact{{Email: cred.Email, Name: cred.Name}},
		Subject:     subject,
		HTMLContent: body,
	}

	err = netx.PostJSON(ctx, s.client, s.baseURL+"/smtp/email", map[string]string{"api-key": s.apiKey}, msg)
	if err != nil {
		return fmt.Errorf("%w: %w", common.ErrDeliveryFailed, err)
	}
	return nil
}
