package notify

import (
	"fmt"
	"sync"

	"go-bazaar-admin/internal/config"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

// Notifier delivers a message to one address. Delivery is best effort.
type Notifier interface {
	Send(to, subject, body string) error
}

// SMTPNotifier sends HTML mail through an SMTP relay
type SMTPNotifier struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPNotifier(cfg config.SMTPConfig) *SMTPNotifier {
	return &SMTPNotifier{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

func (n *SMTPNotifier) Send(to, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", n.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	if err := n.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("send mail to %s: %w", to, err)
	}
	return nil
}

// LogNotifier writes messages to the log instead of sending them
type LogNotifier struct {
	log *zap.Logger
}

func NewLogNotifier(log *zap.Logger) *LogNotifier {
	return &LogNotifier{log: log.Named("mail")}
}

func (n *LogNotifier) Send(to, subject, body string) error {
	n.log.Info("mail not sent, SMTP disabled",
		zap.String("to", to),
		zap.String("subject", subject),
		zap.String("body", body),
	)
	return nil
}

// New picks the SMTP notifier when a host is configured
func New(cfg config.SMTPConfig, log *zap.Logger) Notifier {
	if cfg.Enabled() {
		return NewSMTPNotifier(cfg)
	}
	return NewLogNotifier(log)
}

type Sent struct {
	To      string
	Subject string
	Body    string
}

// Recorder keeps every message in memory. Err, when set, is returned
// from Send after the message is recorded.
type Recorder struct {
	mu   sync.Mutex
	sent []Sent
	Err  error
}

func (r *Recorder) Send(to, subject, body string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, Sent{To: to, Subject: subject, Body: body})
	return r.Err
}

func (r *Recorder) Messages() []Sent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Sent, len(r.sent))
	copy(out, r.sent)
	return out
}

// To returns the messages addressed to one recipient
func (r *Recorder) To(addr string) []Sent {
	var out []Sent
	for _, m := range r.Messages() {
		if m.To == addr {
			out = append(out, m)
		}
	}
	return out
}
