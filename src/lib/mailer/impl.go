package mailer

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"meetingroom/src/config"
	"meetingroom/src/lib"
	awslib "meetingroom/src/lib/aws"
	"meetingroom/src/utils"
	"os"

	"github.com/tidwall/gjson"
)

// Mailer sends plain text mail. With EMAIL_QUEUE set messages are queued
// and delivered by the queue consumer, otherwise they go out over SMTP.
type Mailer struct {
	From     string
	FromName string
	queue    string
	enqueue  func(queue, body string) error
	deliver  func(in *lib.SendMailInput) error
}

func New() *Mailer {
	return &Mailer{
		From:     config.Getenv("MAIL_FROM", "no-reply@meetingroom.local"),
		FromName: config.Getenv("MAIL_FROM_NAME", "Meeting Rooms"),
		queue:    os.Getenv("EMAIL_QUEUE"),
		enqueue:  lib.SQSProduceMessage,
		deliver:  Deliver,
	}
}

func (m *Mailer) input(to, subject, body string) *lib.SendMailInput {
	return &lib.SendMailInput{
		From:     m.From,
		FromName: m.FromName,
		To:       []string{to},
		Subject:  subject,
		Body:     body,
	}
}

func (m *Mailer) Send(ctx context.Context, to, subject, body string) error {
	in := m.input(to, subject, body)
	if m.queue == "" {
		return m.deliver(in)
	}
	payload, err := NewMailerMessage(in)
	if err != nil {
		return err
	}
	if err := m.enqueue(utils.WithSuffix(m.queue), payload); err != nil {
		return fmt.Errorf("error sending message to queue: %s", err.Error())
	}
	return nil
}

func NewMailerMessage(input *lib.SendMailInput) (string, error) {
	emailBody := map[string]any{
		"from":      input.From,
		"from-name": input.FromName,
		"to":        input.To,
		"cc":        input.Cc,
		"bcc":       input.Bcc,
		"reply-to":  input.ReplyTo,
		"body":      input.Body,
		"html":      input.Html,
		"subject":   input.Subject,
	}
	body, err := json.Marshal(&emailBody)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

func stringsOf(r gjson.Result) []string {
	out := []string{}
	for _, v := range r.Array() {
		out = append(out, v.String())
	}
	return out
}

// ParseMailerMessage reads a queued message back into a send request.
func ParseMailerMessage(payload string) (*lib.SendMailInput, error) {
	if !gjson.Valid(payload) {
		return nil, fmt.Errorf("invalid email payload")
	}
	p := gjson.Parse(payload)
	in := &lib.SendMailInput{
		From:     p.Get("from").String(),
		FromName: p.Get("from-name").String(),
		To:       stringsOf(p.Get("to")),
		Cc:       stringsOf(p.Get("cc")),
		Bcc:      stringsOf(p.Get("bcc")),
		ReplyTo:  p.Get("reply-to").String(),
		Subject:  p.Get("subject").String(),
		Body:     p.Get("body").String(),
		Html:     p.Get("html").Bool(),
	}
	if len(in.To) == 0 {
		return nil, fmt.Errorf("email payload has no recipients")
	}
	return in, nil
}

// Deliver sends through SES in production and SMTP elsewhere.
func Deliver(in *lib.SendMailInput) error {
	if config.IsProd() {
		return awslib.SESSendMessage(context.Background(), in)
	}
	return lib.SendMail(in)
}

// HandleQueuedMail is the EMAIL_QUEUE consumer.
func HandleQueuedMail(payload string) {
	in, err := ParseMailerMessage(payload)
	if err != nil {
		log.Printf("[EmailQueue] dropping message: %s\n", err.Error())
		return
	}
	if err := Deliver(in); err != nil {
		log.Printf("[EmailQueue] could not deliver to %v: %s\n", in.To, err.Error())
	}
}
