package cmd

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	agentsApp "github.com/wadesk/wadesk/agents/application"
	agentsInfra "github.com/wadesk/wadesk/agents/infrastructure"
	agentsRepo "github.com/wadesk/wadesk/agents/repository"
	globalConfig "github.com/wadesk/wadesk/config"
	coreDB "github.com/wadesk/wadesk/core/database"
	settingsApp "github.com/wadesk/wadesk/core/settings/application"
	"github.com/wadesk/wadesk/infrastructure/automation"
	"github.com/wadesk/wadesk/infrastructure/chatstorage"
	"github.com/wadesk/wadesk/infrastructure/gateway"
	"github.com/wadesk/wadesk/infrastructure/valkey"
	"github.com/wadesk/wadesk/pkg/echodedup"
	"github.com/wadesk/wadesk/ui/rest"
	"github.com/wadesk/wadesk/ui/rest/middleware"
	"github.com/wadesk/wadesk/ui/websocket"
	"github.com/wadesk/wadesk/usecase"
)

var restCmd = &cobra.Command{
	Use:   "rest",
	Short: "Run the dashboard REST + websocket server",
	Run:   restServer,
}

func init() {
	rootCmd.AddCommand(restCmd)
}

func restServer(_ *cobra.Command, _ []string) {
	db, err := coreDB.NewDatabase()
	if err != nil {
		logrus.Fatalf("[DB] Failed to connect: %v", err)
	}

	storageRepo := chatstorage.NewStorageRepository(db)
	if err := storageRepo.InitializeSchema(); err != nil {
		logrus.Fatalf("[DB] Failed to migrate chat storage: %v", err)
	}

	settingsService := settingsApp.NewSettingsService(db)
	if err := settingsService.InitSchema(context.Background()); err != nil {
		logrus.Fatalf("[DB] Failed to migrate settings: %v", err)
	}

	agentRepository := agentsRepo.NewGormAgentRepository(db)
	if err := agentRepository.AutoMigrate(); err != nil {
		logrus.Fatalf("[DB] Failed to migrate agents: %v", err)
	}

	// Infrastructure clients
	gatewayClient := gateway.NewClient(globalConfig.GatewayBaseURL, globalConfig.GatewayInstance, globalConfig.GatewayAPIKey)
	automationClient := automation.NewClient(globalConfig.AutomationWebhookURL)
	dedupCache := echodedup.New(time.Duration(globalConfig.EchoDedupWindowSeconds) * time.Second)
	emitter := websocket.NewEmitter()

	// Optional Valkey for multi-instance websocket fan-out
	var vkClient *valkey.Client
	if globalConfig.ValkeyEnabled {
		vkClient, err = valkey.NewClient(valkey.Config{
			Address:  globalConfig.ValkeyAddress,
			Password: globalConfig.ValkeyPassword,
		})
		if err != nil {
			logrus.Errorf("[VALKEY] Disabled, connection failed: %v", err)
			vkClient = nil
		}
	}

	// Usecases
	inboundService := usecase.NewInboundService(storageRepo, gatewayClient, automationClient, dedupCache, emitter, settingsService)
	conversationService := usecase.NewConversationService(storageRepo, gatewayClient, automationClient, dedupCache, emitter)
	tagService := usecase.NewTagService(storageRepo)
	quickReplyService := usecase.NewQuickReplyService(storageRepo)
	knowledgeService := usecase.NewKnowledgeService(storageRepo)
	healthService := usecase.NewHealthService(db, gatewayClient)

	authService := agentsApp.NewAuthService(agentRepository)
	authHandler := agentsInfra.NewAuthHandler(authService)

	fiberConfig := fiber.Config{
		EnableTrustedProxyCheck: true,
		BodyLimit:               50 * 1024 * 1024,
		Network:                 "tcp",
		AppName:                 "Wadesk " + globalConfig.AppVersion,
		ServerHeader:            "Hidden",
	}
	if len(globalConfig.AppTrustedProxies) > 0 {
		fiberConfig.TrustedProxies = globalConfig.AppTrustedProxies
		fiberConfig.ProxyHeader = fiber.HeaderXForwardedHost
	}

	app := fiber.New(fiberConfig)

	app.Use(requestid.New())
	app.Use(cors.New(cors.Config{
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Request-ID, X-Webhook-Signature",
	}))
	app.Use(middleware.Recovery())
	app.Use(limiter.New(limiter.Config{
		Max:        1000,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
	}))

	if globalConfig.AppDebug {
		app.Use(logger.New())
	}

	// Media and uploads
	app.Static(globalConfig.AppBasePath+"/statics", "./statics")

	// Gateway webhook stays outside the API group: the gateway cannot hold a
	// JWT, so it is guarded by the optional HMAC signature instead.
	rest.InitRestWebhook(app.Group(globalConfig.AppBasePath), inboundService)

	apiGroup := app.Group(globalConfig.AppBasePath + "/api")

	// Optional basic auth in front of the whole API, for deployments that
	// want a second gate besides the agent JWT.
	if len(globalConfig.AppBasicAuthCredential) > 0 {
		account := make(map[string]string)
		for _, credential := range globalConfig.AppBasicAuthCredential {
			ba := strings.Split(credential, ":")
			if len(ba) != 2 {
				logrus.Fatalln("Basic auth is not valid, please use the following format <user>:<secret>")
			}
			account[ba[0]] = ba[1]
		}
		apiGroup.Use(basicauth.New(basicauth.Config{
			Users: account,
			Next: func(c *fiber.Ctx) bool {
				return c.Method() == fiber.MethodOptions
			},
		}))
	}

	// Public API routes
	rest.InitRestHealth(apiGroup, healthService)
	apiGroup.Post("/auth/login", authHandler.Login)
	apiGroup.Post("/auth/register", agentsInfra.NewOptionalAuthMiddleware(), authHandler.Register)

	// Protected API routes
	protected := apiGroup.Group("/")
	protected.Use(agentsInfra.NewAuthMiddleware())
	protected.Get("/auth/me", authHandler.Me)

	rest.InitRestConversation(protected, conversationService)
	rest.InitRestTag(protected, tagService)
	rest.InitRestQuickReply(protected, quickReplyService)
	rest.InitRestKnowledge(protected, knowledgeService)
	rest.InitRestSettings(protected, settingsService)

	// Websocket
	serverID := uuid.NewString()
	websocket.SetValkeyClient(vkClient, serverID)
	websocket.RegisterRoutes(apiGroup)
	go websocket.RunHub()

	// 404 handler for the API group
	apiGroup.All("/*", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "API Endpoint not found",
			"path":  c.Path(),
		})
	})

	// Graceful shutdown handler
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		logrus.Info("[REST] Termination signal received, shutting down gracefully...")
		if err := app.Shutdown(); err != nil {
			logrus.Errorf("[REST] Error during Fiber shutdown: %v", err)
		}
		stopApp(db, vkClient)
	}()

	if err := app.Listen(":" + globalConfig.AppPort); err != nil {
		logrus.Fatalln("Failed to start: ", err.Error())
	}
}

func stopApp(db *gorm.DB, vkClient *valkey.Client) {
	logrus.Info("[APP] Stopping application...")

	if vkClient != nil {
		vkClient.Close()
	}

	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}

	logrus.Info("[APP] Application stopped cleanly.")
}
