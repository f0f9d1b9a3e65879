package templates

import (
	"time"

	"github.com/oksasatya/go-user-auth/config"
)

// Option pattern
type Option func(*EmailData)

func WithIP(ip string) Option        { return func(d *EmailData) { d.IP = ip } }
func WithUserAgent(ua string) Option { return func(d *EmailData) { d.UserAgent = ua } }
func WithTime(t time.Time) Option {
	return func(d *EmailData) {
		utc := t.UTC()
		d.TimeAt = utc
		d.Time = utc.Format("02 January 2006, 15:04 MST")
	}
}
func WithChanges(ch map[string]string) Option {
	return func(d *EmailData) { d.Changes = ch }
}

// NewBaseEmailData fills the common fields from config, then applies opts.
func NewBaseEmailData(cfg *config.Config, typ, name, username, email string, opts ...Option) EmailData {
	d := EmailData{
		Name:           name,
		Username:       username,
		Email:          email,
		RecipientEmail: email,
		Type:           typ,

		CompanyName:    cfg.CompanyName,
		CompanyAddress: cfg.CompanyAddress,
		AppName:        cfg.AppName,

		LogoURL:    cfg.LogoURL,
		SupportURL: cfg.SupportURL,
		PrivacyURL: cfg.PrivacyURL,
		LoginURL:   cfg.LoginURL,
	}
	for _, opt := range opts {
		opt(&d)
	}
	return d
}

// NewData builds template data for typ as the map carried by EmailJob.Data.
func NewData(cfg *config.Config, typ, name, username, email string, opts ...Option) map[string]any {
	return ToMap(NewBaseEmailData(cfg, typ, name, username, email, opts...))
}
