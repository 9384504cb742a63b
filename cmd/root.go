package cmd

import (
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	globalConfig "github.com/wadesk/wadesk/config"
	"github.com/wadesk/wadesk/pkg/utils"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "wadesk",
	Short: "WhatsApp customer messaging dashboard backend",
	Long: `Wadesk ingests WhatsApp gateway webhooks, persists conversations and
messages, forwards customer messages to an automation workflow and exposes a
REST + websocket API for the agent dashboard.`,
}

func init() {
	// Load environment variables first
	utils.LoadConfig(".")

	time.Local = time.UTC

	rootCmd.CompletionOptions.DisableDefaultCmd = true

	// Initialize flags first, before any subcommands are added
	initFlags()

	cobra.OnInitialize(initEnvConfig, initApp)
}

// initEnvConfig loads configuration from environment variables
func initEnvConfig() {
	// Application settings
	if envPort := viper.GetString("app_port"); envPort != "" {
		globalConfig.AppPort = envPort
	}
	if envDebug := viper.GetBool("app_debug"); envDebug {
		globalConfig.AppDebug = envDebug
	}
	if envBasePath := viper.GetString("app_base_path"); envBasePath != "" {
		globalConfig.AppBasePath = envBasePath
	}
	if envPublicURL := viper.GetString("app_public_url"); envPublicURL != "" {
		globalConfig.AppPublicURL = envPublicURL
	}
	envBasicAuth := viper.GetString("app_basic_auth")
	if envBasicAuth == "" {
		envBasicAuth = os.Getenv("APP_BASIC_AUTH")
	}
	if envBasicAuth != "" {
		credential := strings.Split(envBasicAuth, ",")
		globalConfig.AppBasicAuthCredential = credential
	}
	if envTrustedProxies := viper.GetString("app_trusted_proxies"); envTrustedProxies != "" {
		proxies := strings.Split(envTrustedProxies, ",")
		globalConfig.AppTrustedProxies = proxies
	}

	// Database settings
	if envDBDriver := viper.GetString("db_driver"); envDBDriver != "" {
		globalConfig.DBDriver = envDBDriver
	}
	if envDBHost := viper.GetString("db_host"); envDBHost != "" {
		globalConfig.DBHost = envDBHost
	}
	if envDBPort := viper.GetInt("db_port"); envDBPort != 0 {
		globalConfig.DBPort = envDBPort
	}
	if envDBUser := viper.GetString("db_user"); envDBUser != "" {
		globalConfig.DBUser = envDBUser
	}
	if envDBPassword := viper.GetString("db_password"); envDBPassword != "" {
		globalConfig.DBPassword = envDBPassword
	}
	if envDBName := viper.GetString("db_name"); envDBName != "" {
		globalConfig.DBName = envDBName
	}

	// Gateway settings
	if envGatewayURL := viper.GetString("gateway_base_url"); envGatewayURL != "" {
		globalConfig.GatewayBaseURL = envGatewayURL
	}
	if envGatewayInstance := viper.GetString("gateway_instance"); envGatewayInstance != "" {
		globalConfig.GatewayInstance = envGatewayInstance
	}
	if envGatewayKey := viper.GetString("gateway_api_key"); envGatewayKey != "" {
		globalConfig.GatewayAPIKey = envGatewayKey
	}

	// Automation webhook settings
	if envAutomation := viper.GetString("automation_webhook_url"); envAutomation != "" {
		globalConfig.AutomationWebhookURL = envAutomation
	}
	if envWebhookSecret := viper.GetString("webhook_secret"); envWebhookSecret != "" {
		globalConfig.WebhookSecret = envWebhookSecret
	}

	// Valkey settings
	if viper.IsSet("valkey_enabled") {
		globalConfig.ValkeyEnabled = viper.GetBool("valkey_enabled")
	}
	if envValkeyAddress := viper.GetString("valkey_address"); envValkeyAddress != "" {
		globalConfig.ValkeyAddress = envValkeyAddress
	}
	if envValkeyPassword := viper.GetString("valkey_password"); envValkeyPassword != "" {
		globalConfig.ValkeyPassword = envValkeyPassword
	}
}

func initFlags() {
	// Application flags
	rootCmd.PersistentFlags().StringVarP(
		&globalConfig.AppPort,
		"port", "p",
		globalConfig.AppPort,
		"change port number with --port <number> | example: --port=8080",
	)
	rootCmd.PersistentFlags().BoolVarP(
		&globalConfig.AppDebug,
		"debug", "d",
		globalConfig.AppDebug,
		"hide or displaying log with --debug <true/false> | example: --debug=true",
	)
	rootCmd.PersistentFlags().StringSliceVarP(
		&globalConfig.AppBasicAuthCredential,
		"basic-auth", "b",
		globalConfig.AppBasicAuthCredential,
		"basic auth credential | -b=yourUsername:yourPassword",
	)
	rootCmd.PersistentFlags().StringVarP(
		&globalConfig.AppBasePath,
		"base-path", "",
		globalConfig.AppBasePath,
		`base path for subpath deployment --base-path <string> | example: --base-path="/wadesk"`,
	)
	rootCmd.PersistentFlags().StringVarP(
		&globalConfig.AppPublicURL,
		"public-url", "",
		globalConfig.AppPublicURL,
		`public base URL used for media links --public-url <string> | example: --public-url="https://desk.example.com"`,
	)
	rootCmd.PersistentFlags().StringSliceVarP(
		&globalConfig.AppTrustedProxies,
		"trusted-proxies", "",
		globalConfig.AppTrustedProxies,
		`trusted proxy IP ranges for reverse proxy deployments --trusted-proxies <string> | example: --trusted-proxies="10.0.0.0/8,172.16.0.0/12"`,
	)

	// Database flags
	rootCmd.PersistentFlags().StringVarP(
		&globalConfig.DBDriver,
		"db-driver", "",
		globalConfig.DBDriver,
		`database driver, "sqlite" or "postgres" --db-driver <string> | example: --db-driver=postgres`,
	)
	rootCmd.PersistentFlags().StringVarP(
		&globalConfig.DBName,
		"db-name", "",
		globalConfig.DBName,
		`database name, or the sqlite file path --db-name <string> | example: --db-name=wadesk`,
	)

	// Gateway flags
	rootCmd.PersistentFlags().StringVarP(
		&globalConfig.GatewayBaseURL,
		"gateway-url", "",
		globalConfig.GatewayBaseURL,
		`WhatsApp gateway base URL --gateway-url <string> | example: --gateway-url="http://localhost:8080"`,
	)
	rootCmd.PersistentFlags().StringVarP(
		&globalConfig.GatewayInstance,
		"gateway-instance", "",
		globalConfig.GatewayInstance,
		`WhatsApp gateway instance name --gateway-instance <string> | example: --gateway-instance=main`,
	)
	rootCmd.PersistentFlags().StringVarP(
		&globalConfig.AutomationWebhookURL,
		"automation-webhook", "w",
		globalConfig.AutomationWebhookURL,
		`automation workflow webhook --automation-webhook <string> | example: --automation-webhook="https://flows.example.com/webhook/ai"`,
	)
}

func initApp() {
	if globalConfig.AppDebug {
		logrus.SetLevel(logrus.DebugLevel)
	}

	// preparing folder if not exist
	err := utils.CreateFolder(globalConfig.PathStatics, globalConfig.PathMedia, globalConfig.PathUploads, globalConfig.PathStorages)
	if err != nil {
		logrus.Errorln(err)
	}
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
