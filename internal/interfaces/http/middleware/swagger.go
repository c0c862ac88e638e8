package middleware

import (
	"net"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/edusync/backend/internal/interfaces/http/dto"
)

// SwaggerConfig guards the API documentation. The docs enumerate the sync
// and partner-facing endpoints, so production deployments normally pin
// them to an IP allowlist or an auth guard.
type SwaggerConfig struct {
	Enabled     bool
	RequireAuth bool
	// AllowedIPs takes single addresses or CIDR ranges; empty allows all
	AllowedIPs []string
}

// SwaggerProtection returns the guard for the swagger route group. When
// the docs are disabled it answers 404 as if the routes did not exist.
func SwaggerProtection(cfg SwaggerConfig, authGuard gin.HandlerFunc) gin.HandlerFunc {
	allowlist := parseAllowlist(cfg.AllowedIPs)

	return func(c *gin.Context) {
		if !cfg.Enabled {
			c.AbortWithStatusJSON(http.StatusNotFound,
				dto.NewErrorResponse(dto.ErrCodeNotFound, "documentation is not available"))
			return
		}

		if len(allowlist) > 0 && !allowlistContains(allowlist, clientIP(c)) {
			c.AbortWithStatusJSON(http.StatusForbidden,
				dto.NewErrorResponse(dto.ErrCodeBadRequest, "documentation access is restricted"))
			return
		}

		if cfg.RequireAuth && authGuard != nil {
			authGuard(c)
			if c.IsAborted() {
				return
			}
		}

		c.Next()
	}
}

// parseAllowlist normalizes single IPs to host-length CIDRs so matching
// only deals with networks. Unparseable entries are dropped.
func parseAllowlist(entries []string) []*net.IPNet {
	var nets []*net.IPNet
	for _, entry := range entries {
		if !strings.Contains(entry, "/") {
			if ip := net.ParseIP(entry); ip != nil {
				bits := 32
				if ip.To4() == nil {
					bits = 128
				}
				nets = append(nets, &net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)})
			}
			continue
		}
		if _, network, err := net.ParseCIDR(entry); err == nil {
			nets = append(nets, network)
		}
	}
	return nets
}

func allowlistContains(nets []*net.IPNet, ip net.IP) bool {
	if ip == nil {
		return false
	}
	for _, network := range nets {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}

// clientIP resolves the caller address via gin's trusted-proxy handling,
// falling back to the raw remote address
func clientIP(c *gin.Context) net.IP {
	if ip := net.ParseIP(c.ClientIP()); ip != nil {
		return ip
	}
	host, _, err := net.SplitHostPort(c.Request.RemoteAddr)
	if err != nil {
		host = c.Request.RemoteAddr
	}
	return net.ParseIP(host)
}
