package config

import (
	"os"
	"strconv"
	"strings"
)

var (
	AppVersion             = "v1.4.0"
	AppPort                = "3000"
	AppDebug               = false
	AppBasePath            = ""
	AppPublicURL           = "http://localhost:3000"
	AppTrustedProxies      []string
	AppBasicAuthCredential []string

	PathStatics  = "statics"
	PathMedia    = "statics/media"
	PathUploads  = "statics/uploads"
	PathStorages = "storages"

	// Database settings. Driver is "postgres" or "sqlite"; sqlite is the
	// zero-config default so the server can run without external services.
	DBDriver   = "sqlite"
	DBHost     = "localhost"
	DBPort     = 5432
	DBUser     = "wadesk"
	DBPassword = ""
	DBName     = "storages/wadesk.db"

	// WhatsApp gateway settings.
	GatewayBaseURL  = ""
	GatewayInstance = "main"
	GatewayAPIKey   = ""

	// Automation webhook settings.
	AutomationWebhookURL string

	// Inbound webhook settings.
	WebhookSecret string

	// Window during which an agent-originated webhook event matching a
	// recently sent AI reply is treated as our own echo and dropped.
	EchoDedupWindowSeconds = 30

	// Valkey (optional, distributed websocket broadcast).
	ValkeyEnabled  = false
	ValkeyAddress  = "localhost:6379"
	ValkeyPassword = ""

	// Security
	AppSecretKey = "changeme_please_change_me_in_prod_12345"

	WhatsappTypeUser  = "@s.whatsapp.net"
	WhatsappTypeGroup = "@g.us"
)

func init() {
	if v := strings.TrimSpace(os.Getenv("ECHO_DEDUP_WINDOW_SECONDS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			EchoDedupWindowSeconds = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("APP_SECRET_KEY")); v != "" {
		AppSecretKey = v
	}
}
