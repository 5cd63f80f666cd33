package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/ksred/pageturn-api/internal/types"
	"github.com/rs/zerolog/log"
)

type EventType string

const (
	EventBookApproved EventType = "book:approved"
	EventBookRejected EventType = "book:rejected"
	EventBookSold     EventType = "book:sold"
)

// Event is a lifecycle change users are told about by email
type Event struct {
	Type     EventType         `json:"type"`
	SellerID string            `json:"seller_id,omitempty"`
	Title    string            `json:"title,omitempty"`
	Reason   string            `json:"reason,omitempty"`
	Sale     *types.SaleRecord `json:"sale,omitempty"`
}

func BookApproved(sellerID, title string) Event {
	return Event{Type: EventBookApproved, SellerID: sellerID, Title: title}
}

func BookRejected(sellerID, title, reason string) Event {
	return Event{Type: EventBookRejected, SellerID: sellerID, Title: title, Reason: reason}
}

func BookSold(sale types.SaleRecord) Event {
	return Event{Type: EventBookSold, SellerID: sale.SellerID, Title: sale.Title, Sale: &sale}
}

// Notifier accepts events for delivery. Implementations must not block on delivery.
type Notifier interface {
	Notify(ctx context.Context, event Event) error
}

// Nop drops every event
type Nop struct{}

func (Nop) Notify(context.Context, Event) error { return nil }

var ErrQueueFull = errors.New("notification queue full")

// Deliverer turns an event into emails and sends them
type Deliverer struct {
	directory Directory
	mailer    Mailer
	replyTo   string
}

func NewDeliverer(directory Directory, mailer Mailer, replyTo string) *Deliverer {
	return &Deliverer{directory: directory, mailer: mailer, replyTo: replyTo}
}

// Deliver sends every email the event produces. Recipients without a contact are skipped.
func (d *Deliverer) Deliver(ctx context.Context, event Event) error {
	logger := log.With().Str("service", "notify").Str("event", string(event.Type)).Logger()

	emails, err := d.compose(ctx, event)
	if err != nil {
		return err
	}

	var errs []error
	for _, email := range emails {
		email.ReplyTo = d.replyTo
		if err := d.mailer.Send(ctx, email); err != nil {
			logger.Error().Err(err).Str("to", email.To).Msg("email send failed")
			errs = append(errs, err)
			continue
		}
		logger.Info().Str("to", email.To).Msg("email sent")
	}
	return errors.Join(errs...)
}

func (d *Deliverer) compose(ctx context.Context, event Event) ([]Email, error) {
	switch event.Type {
	case EventBookApproved, EventBookRejected:
		seller, err := d.lookup(ctx, event.SellerID)
		if err != nil || seller == nil {
			return nil, err
		}
		tmpl := approvedTemplate
		subject := fmt.Sprintf("Your Book %q Has Been Approved", event.Title)
		if event.Type == EventBookRejected {
			tmpl = rejectedTemplate
			subject = fmt.Sprintf("Update on Your Book Submission: %q", event.Title)
		}
		body, err := render(tmpl, struct {
			Name, Title, Reason string
		}{seller.Name, event.Title, event.Reason})
		if err != nil {
			return nil, err
		}
		return []Email{{To: seller.Email, Subject: subject, HTML: body}}, nil

	case EventBookSold:
		if event.Sale == nil {
			return nil, errors.New("sold event without sale")
		}
		return d.composeSold(ctx, *event.Sale)
	}
	return nil, fmt.Errorf("unknown event type %q", event.Type)
}

func (d *Deliverer) composeSold(ctx context.Context, sale types.SaleRecord) ([]Email, error) {
	buyer, err := d.lookup(ctx, sale.BuyerID)
	if err != nil {
		return nil, err
	}
	seller, err := d.lookup(ctx, sale.SellerID)
	if err != nil {
		return nil, err
	}

	var emails []Email
	if seller != nil {
		body, err := render(soldTemplate, saleView{Recipient: *seller, Counterparty: buyer, Sale: sale})
		if err != nil {
			return nil, err
		}
		emails = append(emails, Email{
			To:      seller.Email,
			Subject: fmt.Sprintf("🎉 Your Book %q Has Been Sold!", sale.Title),
			HTML:    body,
		})
	}
	if buyer != nil {
		body, err := render(purchasedTemplate, saleView{Recipient: *buyer, Counterparty: seller, Sale: sale})
		if err != nil {
			return nil, err
		}
		emails = append(emails, Email{
			To:      buyer.Email,
			Subject: fmt.Sprintf("📚 Purchase Successful: %q", sale.Title),
			HTML:    body,
		})
	}
	return emails, nil
}

func (d *Deliverer) lookup(ctx context.Context, userID string) (*Contact, error) {
	contact, err := d.directory.Contact(ctx, userID)
	if errors.Is(err, types.ErrNotFound) {
		log.Warn().Str("service", "notify").Str("user_id", userID).Msg("no contact on file, skipping email")
		return nil, nil
	}
	return contact, err
}
