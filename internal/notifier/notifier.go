package notifier

import (
	"fmt"
	"log/slog"
	"net/smtp"
)

// Notifier delivers best-effort side-channel messages after a wallet
// operation commits. Failures must never affect the originating operation.
type Notifier interface {
	WalletCreated(to, username, currency, balance string)
	Deposit(to, username, currency, amount, newBalance string)
}

type SMTPNotifier struct {
	host     string
	port     string
	username string
	password string
	from     string
	logger   *slog.Logger
}

func NewSMTPNotifier(host, port, username, password, from string, logger *slog.Logger) *SMTPNotifier {
	return &SMTPNotifier{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
		logger:   logger,
	}
}

func (n *SMTPNotifier) WalletCreated(to, username, currency, balance string) {
	body := fmt.Sprintf("Hello %s,\n\nYour new %s wallet has been successfully created.\nInitial Balance: %s",
		username, currency, balance)
	n.send(to, "Digital Wallet Created", body)
}

func (n *SMTPNotifier) Deposit(to, username, currency, amount, newBalance string) {
	body := fmt.Sprintf("Hello %s,\n\nThanks for trusting us and depositing %s of %s\nNew balance is %s",
		username, amount, currency, newBalance)
	n.send(to, "Successful deposit", body)
}

func (n *SMTPNotifier) send(to, subject, body string) {
	msg := []byte(
		fmt.Sprintf("From: %s\r\n", n.from) +
			fmt.Sprintf("To: %s\r\n", to) +
			fmt.Sprintf("Subject: %s\r\n", subject) +
			"\r\n" +
			body,
	)

	addr := n.host + ":" + n.port
	var a smtp.Auth
	if n.username != "" {
		a = smtp.PlainAuth("", n.username, n.password, n.host)
	}
	if err := smtp.SendMail(addr, a, n.from, []string{to}, msg); err != nil {
		n.logger.Warn("Failed to send notification email",
			slog.String("to", to),
			slog.String("subject", subject),
			slog.Any("err", err),
		)
	}
}

// Noop is used when no SMTP host is configured.
type Noop struct{}

func NewNoop() Noop { return Noop{} }

func (Noop) WalletCreated(to, username, currency, balance string)      {}
func (Noop) Deposit(to, username, currency, amount, newBalance string) {}
