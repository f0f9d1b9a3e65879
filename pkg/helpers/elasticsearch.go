package helpers

import (
	"crypto/tls"
	"net"
	"net/http"
	"time"

	"github.com/elastic/go-elasticsearch/v8"

	"github.com/oksasatya/go-user-auth/config"
)

// NewESClient builds a client from ELASTICSEARCH_* settings. With no
// addresses configured search is disabled and the client is nil.
func NewESClient(cfg *config.Config) (*elasticsearch.Client, error) {
	addrs := cfg.ESAddrs()
	if len(addrs) == 0 {
		return nil, nil
	}
	dialer := &net.Dialer{Timeout: 5 * time.Second, KeepAlive: 30 * time.Second}
	return elasticsearch.NewClient(elasticsearch.Config{
		Addresses:     addrs,
		Username:      cfg.ElasticsearchUser,
		Password:      cfg.ElasticsearchPass,
		MaxRetries:    2,
		RetryOnStatus: []int{502, 503, 504},
		Transport: &http.Transport{
			DialContext:           dialer.DialContext,
			MaxIdleConnsPerHost:   10,
			ResponseHeaderTimeout: 5 * time.Second,
			TLSClientConfig:       &tls.Config{MinVersion: tls.VersionTLS12},
		},
	})
}
