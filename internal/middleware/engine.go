package middleware

import (
	"fmt"

	"github.com/gin-gonic/gin"
)

// NewEngine returns a bare gin engine that only honours X-Forwarded-For and X-Real-IP
// from the given proxies (IPs or CIDRs). With none, c.ClientIP() is the socket peer,
// so callers cannot pick their own rate-limit key.
func NewEngine(trustedProxies []string) (*gin.Engine, error) {
	r := gin.New()
	if err := r.SetTrustedProxies(trustedProxies); err != nil {
		return nil, fmt.Errorf("trusted proxies: %w", err)
	}
	return r, nil
}
