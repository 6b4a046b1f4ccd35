package notifier

import (
	"context"
	"fmt"
	"time"

	mg "github.com/mailgun/mailgun-go/v4"
)

// Mailgun sends encounter notification emails.
type Mailgun struct {
	Domain string
	APIKey string
	Sender string
}

func NewMailgun(domain, apiKey, sender string) *Mailgun {
	return &Mailgun{Domain: domain, APIKey: apiKey, Sender: sender}
}

// SendEncounter emails the user about a finalized encounter.
func (m *Mailgun) SendEncounter(ctx context.Context, job EncounterJob) error {
	subject := fmt.Sprintf("You spotted %s!", job.WallyName)
	text := fmt.Sprintf(
		"Hi %s,\n\nYour %s encounter with %s was confirmed. You earned %g points; your score is now %g.\n\nKeep spotting!",
		job.UserName,
		job.OccurredAt.Format("January 2"),
		job.WallyName,
		job.Delta,
		job.NewScore,
	)

	client := mg.NewMailgun(m.Domain, m.APIKey)
	msg := client.NewMessage(m.Sender, subject, text, job.UserEmail)
	c, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	_, _, err := client.Send(c, msg)
	return err
}
