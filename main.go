package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"event-reward-system/handlers"
	"event-reward-system/middleware"
	"event-reward-system/models"
	"event-reward-system/services"
	"event-reward-system/store"
	"event-reward-system/utils"
	"event-reward-system/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/mongo"
	mongooptions "go.mongodb.org/mongo-driver/mongo/options"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, reading environment variables directly")
	}

	app := fiber.New()

	// 🔐 GLOBAL: only Gateway requests allowed — no exceptions
	app.Use(middleware.GatewayAuthMiddleware())

	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	if allowedOrigins == "" {
		log.Println("⚠️  ALLOWED_ORIGINS environment variable not set, using default: http://localhost:3000")
		allowedOrigins = "http://localhost:3000"
	}
	origins := strings.Split(allowedOrigins, ",")
	for i, origin := range origins {
		origins[i] = strings.TrimSpace(origin)
	}

	app.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Join(origins, ","),
		AllowMethods:     "GET,POST,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID, x-user-id, x-user-email, x-user-role",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL environment variable not set")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}

	// Events and rewards are owned by the administrative subsystem; this
	// service migrates them so shared-database deployments keep working, but
	// only ever reads them.
	if err := db.AutoMigrate(
		&models.Event{},
		&models.Reward{},
		&models.RewardClaim{},
	); err != nil {
		log.Fatal("failed to migrate database:", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	claimStore, err := buildClaimStore(ctx, db)
	if err != nil {
		log.Fatal("failed to initialize claim store:", err)
	}

	authServerURL := os.Getenv("AUTH_SERVER_URL")
	if authServerURL == "" {
		log.Fatal("AUTH_SERVER_URL environment variable not set")
	}
	authTimeout := 0 * time.Second
	if raw := os.Getenv("AUTH_TIMEOUT_SECONDS"); raw != "" {
		if d, err := time.ParseDuration(raw + "s"); err == nil {
			authTimeout = d
		}
	}

	logger := log.Default()
	authClient := services.NewAuthServiceClient(services.AuthClientConfig{
		BaseURL: authServerURL,
		Timeout: authTimeout,
	}, logger)
	verifier := services.NewEventConditionVerifier(authClient, logger)
	catalog := services.NewGormEventCatalog(db)
	claimService := services.NewClaimService(catalog, claimStore, verifier, logger)

	handlers.SetupClaimRoutes(app, claimService)

	pendingTTL := 15 * time.Minute
	if raw := os.Getenv("PENDING_CLAIM_TTL_MINUTES"); raw != "" {
		if d, err := time.ParseDuration(raw + "m"); err == nil {
			pendingTTL = d
		}
	}
	reaper, err := workers.StartClaimReaper(ctx, claimStore, pendingTTL)
	if err != nil {
		log.Fatal("failed to start claim reaper:", err)
	}
	defer func() { _ = reaper.Shutdown() }()

	if bucket := os.Getenv("R2_BUCKET_NAME"); bucket != "" {
		objectStore, err := utils.NewObjectStore(ctx, utils.ObjectStoreConfig{
			AccountID:       os.Getenv("CLOUDFLARE_ACCOUNT_ID"),
			AccessKeyID:     os.Getenv("R2_ACCESS_KEY_ID"),
			AccessKeySecret: os.Getenv("R2_ACCESS_KEY_SECRET"),
			Bucket:          bucket,
		})
		if err != nil {
			log.Fatal("failed to initialize object store:", err)
		}
		exporter := workers.NewClaimsExportWorker(claimStore, catalog, objectStore)
		go exporter.Run(ctx, 5*time.Minute)
		log.Println("✅ Claims export worker running (every 5m)")
	} else {
		log.Println("⚠️  R2_BUCKET_NAME not set — claims archive export disabled")
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "5300"
	}

	go func() {
		if err := app.Listen(":" + port); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Printf("✅ Server running on http://localhost:%s", port)
	log.Println("✅ Claim reaper running (every 1m)")
	log.Println("✅ GatewayAuthMiddleware enforced globally — all requests must come from Gateway")

	<-ctx.Done()
	log.Println("Shutting down server...")
	if err := app.Shutdown(); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
}

// buildClaimStore selects the persistence backend. Postgres is the default;
// CLAIM_STORE_DRIVER=mongo targets deployments that keep claims in MongoDB.
func buildClaimStore(ctx context.Context, db *gorm.DB) (store.ClaimStore, error) {
	if os.Getenv("CLAIM_STORE_DRIVER") != "mongo" {
		return store.NewGormClaimStore(db), nil
	}

	mongoURL := os.Getenv("MONGO_URL")
	if mongoURL == "" {
		log.Fatal("MONGO_URL environment variable not set (required for CLAIM_STORE_DRIVER=mongo)")
	}
	dbName := os.Getenv("MONGO_DATABASE")
	if dbName == "" {
		dbName = "event_reward_system"
	}

	client, err := mongo.Connect(ctx, mongooptions.Client().ApplyURI(mongoURL))
	if err != nil {
		return nil, err
	}
	mongoStore := store.NewMongoClaimStore(client.Database(dbName))
	if err := mongoStore.EnsureIndexes(ctx); err != nil {
		return nil, err
	}
	log.Println("✅ Claim store backed by MongoDB")
	return mongoStore, nil
}
