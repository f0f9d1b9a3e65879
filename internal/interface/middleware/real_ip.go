package middleware

import (
	"net"

	"github.com/gin-gonic/gin"
)

const ctxRealIPKey = "real_ip"

// ConfigureClientIP decides which forwarding headers gin may believe.
// X-Forwarded-For and X-Real-IP are read only when the direct peer is in
// trustedProxies; an empty list means the socket address is always used.
// CF-Connecting-IP is read only when trustCloudflare is set, which assumes
// the origin is reachable through Cloudflare alone.
func ConfigureClientIP(engine *gin.Engine, trustedProxies []string, trustCloudflare bool) error {
	if len(trustedProxies) == 0 {
		trustedProxies = nil
	}
	if err := engine.SetTrustedProxies(trustedProxies); err != nil {
		_ = engine.SetTrustedProxies(nil)
		return err
	}
	if trustCloudflare {
		engine.TrustedPlatform = gin.PlatformCloudflare
	} else {
		engine.TrustedPlatform = ""
	}
	return nil
}

// RealIP stores the client IP resolved by gin under "real_ip" so rate limit
// keys and notifications agree on one address.
func RealIP() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(ctxRealIPKey, c.ClientIP())
		c.Next()
	}
}

// ipFromCtx returns the IP stored by RealIP, falling back to "unknown".
func ipFromCtx(c *gin.Context) string {
	if ip := c.GetString(ctxRealIPKey); ip != "" {
		return ip
	}
	if ip := c.ClientIP(); ip != "" {
		return ip
	}
	return "unknown"
}

// ClientIP is exported for handlers that record the caller address.
func ClientIP(c *gin.Context) string {
	return ipFromCtx(c)
}

// AllowPrivateIP bypasses limits for loopback and RFC 1918 callers.
func AllowPrivateIP() AllowFunc {
	return func(c *gin.Context) bool {
		parsed := net.ParseIP(ipFromCtx(c))
		if parsed == nil {
			return false
		}
		return parsed.IsLoopback() || parsed.IsPrivate()
	}
}
