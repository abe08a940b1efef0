package mailer

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"
)

// Mailer sends the notifications the devserver emits.
type Mailer interface {
	SendListingCreatedEmail(ctx context.Context, toEmail, listingTitle string) error
}

type SMTPConfig struct {
	Host     string
	Port     int
	From     string
	Password string
}

type SMTPMailer struct {
	cfg    SMTPConfig
	dialer *gomail.Dialer
}

func NewSMTPMailer(cfg SMTPConfig) *SMTPMailer {
	return &SMTPMailer{cfg: cfg, dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.From, cfg.Password)}
}

func (m *SMTPMailer) SendListingCreatedEmail(ctx context.Context, toEmail, listingTitle string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := listingCreatedMessage(m.cfg.From, toEmail, listingTitle)
	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("send listing created email to %s: %w", toEmail, err)
	}
	return nil
}

func listingCreatedMessage(from, to, title string) *gomail.Message {
	m := gomail.NewMessage()
	m.SetHeader("From", from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", "Your sublease is live")
	m.SetBody("text/plain", "Your listing '"+title+"' has been published and is now visible to renters.")
	return m
}

// NopMailer drops every message.
type NopMailer struct{}

func (NopMailer) SendListingCreatedEmail(context.Context, string, string) error { return nil }
