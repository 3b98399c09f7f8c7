package middleware

import (
	"crypto/subtle"
	"log"
	"net"
	"net/http"

	"github.com/director74/cargo_logistics/pkg/config"
	"github.com/gin-gonic/gin"
)

// InternalAPIConfig конфигурация доступа к внутреннему API (события трекинга, сервисные вызовы)
type InternalAPIConfig struct {
	// TrustedNetworks список доверенных CIDR диапазонов
	TrustedNetworks []string
	// APIKey ключ, который должен прийти в заголовке HeaderName
	APIKey string
	// HeaderName имя заголовка для передачи ключа API
	HeaderName string
}

// LoadInternalAPIConfig читает настройки из INTERNAL_API_KEY и INTERNAL_TRUSTED_NETWORKS
func LoadInternalAPIConfig() *InternalAPIConfig {
	return &InternalAPIConfig{
		TrustedNetworks: config.GetEnvAsSlice("INTERNAL_TRUSTED_NETWORKS", []string{
			"10.0.0.0/8",
			"172.16.0.0/12",
			"127.0.0.0/8",
		}),
		APIKey:     config.GetEnv("INTERNAL_API_KEY", ""),
		HeaderName: "X-Internal-API-Key",
	}
}

// InternalAuthMiddleware защищает маршруты, доступные только другим сервисам
type InternalAuthMiddleware struct {
	config   *InternalAPIConfig
	networks []*net.IPNet
}

func NewInternalAuthMiddleware(cfg *InternalAPIConfig) *InternalAuthMiddleware {
	if cfg == nil {
		cfg = LoadInternalAPIConfig()
	}

	networks := make([]*net.IPNet, 0, len(cfg.TrustedNetworks))
	for _, cidr := range cfg.TrustedNetworks {
		_, ipNet, err := net.ParseCIDR(cidr)
		if err != nil {
			log.Printf("[WARN] Некорректная доверенная сеть %q пропущена: %v", cidr, err)
			continue
		}
		networks = append(networks, ipNet)
	}

	if cfg.APIKey == "" {
		log.Println("[WARN] INTERNAL_API_KEY не задан, внутренний API доступен только из доверенных сетей")
	}

	return &InternalAuthMiddleware{
		config:   cfg,
		networks: networks,
	}
}

// Required пропускает запрос с корректным API ключом либо из доверенной сети
func (m *InternalAuthMiddleware) Required() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m.validKey(c.GetHeader(m.config.HeaderName)) || m.isIPTrusted(c.ClientIP()) {
			c.Next()
			return
		}

		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"error": "доступ запрещен, этот API доступен только для внутренних сервисов",
		})
	}
}

func (m *InternalAuthMiddleware) validKey(key string) bool {
	if m.config.APIKey == "" || key == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(key), []byte(m.config.APIKey)) == 1
}

func (m *InternalAuthMiddleware) isIPTrusted(ipStr string) bool {
	ip := net.ParseIP(ipStr)
	if ip == nil {
		return false
	}
	for _, n := range m.networks {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}
