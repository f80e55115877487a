package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/harentsoaR/medbook-api/internal/config"
	"github.com/harentsoaR/medbook-api/internal/handlers"
	"github.com/harentsoaR/medbook-api/internal/middleware"
	"github.com/harentsoaR/medbook-api/internal/models"
	"github.com/harentsoaR/medbook-api/internal/services"
	"github.com/harentsoaR/medbook-api/internal/store"
	"github.com/harentsoaR/medbook-api/internal/utils"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "medbook-api",
		Short: "Doctor booking API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(ensureIndexesCmd())
	rootCmd.AddCommand(recomputeRatingsCmd())
	rootCmd.AddCommand(createAdminCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func ensureIndexesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ensure-indexes",
		Short: "Create the MongoDB indexes the API relies on",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			ctx := context.Background()
			client, db, err := connect(ctx, cfg)
			if err != nil {
				return err
			}
			defer client.Disconnect(ctx)

			if err := store.EnsureIndexes(ctx, db); err != nil {
				return err
			}
			logger.Info().Str("database", cfg.MongoDatabase).Msg("indexes ensured")
			return nil
		},
	}
}

func recomputeRatingsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "recompute-ratings",
		Short: "Recompute totalRating and numReviews for every doctor",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			ctx := context.Background()
			client, db, err := connect(ctx, cfg)
			if err != nil {
				return err
			}
			defer client.Disconnect(ctx)

			stores := store.NewMongoStores(db)
			n, err := services.NewRatingAggregator(stores.Reviews, stores.Doctors, logger).RecomputeAll(ctx)
			if err != nil {
				return fmt.Errorf("recomputed %d doctors before failing: %w", n, err)
			}
			logger.Info().Int("doctors", n).Msg("ratings recomputed")
			return nil
		},
	}
}

func createAdminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an admin account",
		RunE: func(cmd *cobra.Command, args []string) error {
			name, _ := cmd.Flags().GetString("name")
			email, _ := cmd.Flags().GetString("email")
			password, _ := cmd.Flags().GetString("password")
			if email == "" || password == "" {
				return fmt.Errorf("--email and --password are required")
			}
			if len(password) < 6 {
				return fmt.Errorf("--password must be at least 6 characters")
			}

			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			ctx := context.Background()
			client, db, err := connect(ctx, cfg)
			if err != nil {
				return err
			}
			defer client.Disconnect(ctx)

			admin, err := createAdmin(ctx, store.NewMongoStores(db), cfg.BcryptCost, logger, name, email, password)
			if err != nil {
				return err
			}
			logger.Info().Str("user_id", admin.ID.Hex()).Str("email", admin.Email).Msg("admin created")
			return nil
		},
	}
	cmd.Flags().String("name", "Admin", "Display name")
	cmd.Flags().String("email", "", "Login email")
	cmd.Flags().String("password", "", "Login password (min 6 characters)")
	return cmd
}

// createAdmin stores an admin account in the users collection, claiming its
// email first.
func createAdmin(ctx context.Context, stores store.Stores, cost int, logger zerolog.Logger, name, email, password string) (*models.Patient, error) {
	email = utils.NormalizeEmail(email)
	if _, err := stores.Doctors.FindByEmail(ctx, email); err == nil {
		return nil, store.ErrDuplicateEmail
	}

	hashed, err := utils.HashPassword(password, cost)
	if err != nil {
		return nil, err
	}
	admin := &models.Patient{
		ID:       primitive.NewObjectID(),
		Name:     name,
		Email:    email,
		Password: hashed,
		Role:     models.RoleAdmin,
	}
	if err := stores.Emails.Claim(ctx, email, admin.ID, models.RoleAdmin); err != nil {
		return nil, err
	}
	if err := stores.Patients.Create(ctx, admin); err != nil {
		if relErr := stores.Emails.Release(ctx, email); relErr != nil {
			logger.Error().Err(relErr).Str("email", email).Msg("failed to release email claim")
		}
		return nil, err
	}
	return admin, nil
}

func setup() (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	logger := newLogger(cfg)
	if cfg.DotEnvErr != nil {
		logger.Info().Err(cfg.DotEnvErr).Msg("no .env file found, relying on environment variables")
	}
	if err := cfg.Validate(); err != nil {
		logger.Error().Err(err).Msg("invalid configuration")
		return nil, logger, err
	}
	return cfg, logger, nil
}

func newLogger(cfg *config.Config) zerolog.Logger {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if !cfg.IsProduction() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	return logger.Level(level)
}

func connect(ctx context.Context, cfg *config.Config) (*mongo.Client, *mongo.Database, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, nil, fmt.Errorf("connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("ping MongoDB: %w", err)
	}
	return client, client.Database(cfg.MongoDatabase), nil
}

func runServer() error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}

	ctx := context.Background()
	client, db, err := connect(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer client.Disconnect(ctx)
	logger.Info().Str("database", cfg.MongoDatabase).Msg("connected to MongoDB")

	if err := store.EnsureIndexes(ctx, db); err != nil {
		logger.Warn().Err(err).Msg("could not ensure indexes")
	}

	stores := store.NewMongoStores(db)
	tokens := utils.NewTokenManager(cfg.JWTSecret, cfg.JWTExpiresIn)
	notificationSvc := services.NewNotificationService(cfg.TextbeltKey, cfg.TextbeltURL, logger)
	h := handlers.NewHandler(stores, tokens, notificationSvc, cfg.BcryptCost, logger)
	guard := middleware.NewGuard(tokens, stores.Patients, stores.Doctors, logger)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recovery(logger))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{middleware.RequestIDHeader},
		AllowCredentials: true,
	}))

	h.Routes(r, guard)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}
	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server shutdown failed")
	}
	notificationSvc.Wait()
	logger.Info().Msg("server stopped")
	return nil
}
