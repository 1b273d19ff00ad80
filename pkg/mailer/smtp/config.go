package smtp

import "github.com/dmitrymomot/mailroom/pkg/mailer"

// Config holds the default SMTP identity resolved from the environment.
// Embed this in your app config for env parsing with caarlos0/env.
type Config struct {
	Host        string `env:"SMTP_HOST,required"`
	Port        int    `env:"SMTP_PORT" envDefault:"587"`
	Username    string `env:"SMTP_USERNAME"`
	Password    string `env:"SMTP_PASSWORD"`
	UseTLS      bool   `env:"SMTP_USE_TLS" envDefault:"true"`
	SenderEmail string `env:"SMTP_FROM_EMAIL,required"`
	SenderName  string `env:"SMTP_FROM_NAME"`
}

// Sender converts the config into the mailer.Sender value to use as the
// default sender identity.
func (c Config) Sender() mailer.Sender {
	return mailer.Sender{
		Server:      c.Host,
		Port:        c.Port,
		Username:    c.Username,
		Password:    c.Password,
		UseTLS:      c.UseTLS,
		Address:     c.SenderEmail,
		DisplayName: c.SenderName,
	}
}
