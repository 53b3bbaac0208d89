// Package mail wraps a gomail SMTP dialer with the framework's uniform
// init-by-config shape (spec §4.6).
package mail

import (
	"strings"

	"gopkg.in/gomail.v2"

	"github.com/vitaliisemenov/corefx/ferr"
	"github.com/vitaliisemenov/corefx/fwconfig"
)

// Client sends mail through one SMTP dialer.
type Client struct {
	dialer      *gomail.Dialer
	defaultFrom string
}

// New builds a Client from cfg.
func New(cfg fwconfig.MailModuleConfig) *Client {
	dialer := gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password)
	if !cfg.SSL {
		dialer.SSL = false
	}
	return &Client{dialer: dialer, defaultFrom: cfg.DefaultFrom}
}

// Message is a thin, framework-shaped send request.
type Message struct {
	From    string
	To      []string
	Cc      []string
	Subject string
	Body    string
	HTML    bool
}

// Send dials the SMTP server and delivers msg, falling back to the module's
// configured default sender address when msg.From is empty.
func (c *Client) Send(msg Message) error {
	m := gomail.NewMessage()
	from := msg.From
	if from == "" {
		from = c.defaultFrom
	}
	m.SetHeader("From", from)
	m.SetHeader("To", msg.To...)
	if len(msg.Cc) > 0 {
		m.SetHeader("Cc", msg.Cc...)
	}
	m.SetHeader("Subject", msg.Subject)

	contentType := "text/plain"
	if msg.HTML {
		contentType = "text/html"
	}
	m.SetBody(contentType, msg.Body)

	if err := c.dialer.DialAndSend(m); err != nil {
		return ferr.Wrap(err)
	}
	return nil
}

// InitBy builds a single Client from a module config (spec §4.6 item 1).
func InitBy(cfg fwconfig.MailModuleConfig) (*Client, error) {
	return New(cfg), nil
}

// InitByConf builds default + every named module's Client (spec §4.6 item 2).
func InitByConf(fam fwconfig.FamilyConfig[fwconfig.MailModuleConfig]) (map[string]*Client, error) {
	out := make(map[string]*Client, len(fam.Modules)+1)
	out[""] = New(fam.Default)
	for code, cfg := range fam.Modules {
		out[strings.ToLower(code)] = New(cfg)
	}
	return out, nil
}
