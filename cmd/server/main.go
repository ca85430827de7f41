package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fieldserve-backend/internal/auth"
	"fieldserve-backend/internal/cache"
	"fieldserve-backend/internal/config"
	"fieldserve-backend/internal/database"
	"fieldserve-backend/internal/db"
	"fieldserve-backend/internal/handlers"
	"fieldserve-backend/internal/health"
	httprouter "fieldserve-backend/internal/http"
	"fieldserve-backend/internal/middleware"
	"fieldserve-backend/internal/push"
	"fieldserve-backend/internal/repositories"
	"fieldserve-backend/internal/services"
	"fieldserve-backend/internal/sms"
	"fieldserve-backend/internal/storage"
	"fieldserve-backend/migrations"
)

func main() {
	port := flag.Int("port", 0, "Server port (overrides config)")
	flag.Parse()

	cfg := config.Load()
	if *port != 0 {
		cfg.Server.Port = *port
	}

	pool := db.Connect(cfg)
	defer pool.Close()

	// Redis is optional; every cache helper degrades to a miss without it
	if err := cache.Init(); err != nil {
		log.Printf("[Redis] Cache unavailable: %v (dropdowns will hit the database)", err)
	} else {
		log.Println("[Redis] Cache connected successfully")
	}

	log.Println("Running database migrations...")
	migrator := database.NewMigratorWithFS(pool, migrations.FS, ".")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := migrator.RunMigrations(ctx); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	healthChecker := health.NewHealthChecker(pool)
	jwtManager := auth.NewJWTManager(cfg)

	// Repositories
	userRepo := repositories.NewUserRepository(pool)
	customerRepo := repositories.NewCustomerRepository(pool)
	machineRepo := repositories.NewMachineRepository(pool)
	sparePartRepo := repositories.NewSparePartRepository(pool)
	productRepo := repositories.NewRegisteredProductRepository(pool)
	requestRepo := repositories.NewServiceRequestRepository(pool)
	notificationRepo := repositories.NewNotificationRepository(pool)
	smsLogRepo := repositories.NewSMSLogRepository(pool)
	totpRepo := repositories.NewTOTPRepository(pool)
	transactionRepo := repositories.NewOnlineTransactionRepository(pool)

	// SMS provider: Fast2SMS in production, mock when no key is configured
	var smsService sms.SMSProvider
	if cfg.SMS.Fast2SMSAPIKey != "" {
		smsService = sms.NewFast2SMSService(cfg.SMS.Fast2SMSAPIKey)
	} else {
		log.Println("WARNING: FAST2SMS_API_KEY not set, using MockSMS (codes will only print to logs)")
		smsService = sms.NewMockSMSService()
	}
	smsService.SetLogRepository(smsLogRepo)

	// Push provider follows the same pattern
	var pushService push.PushProvider
	if cfg.Notify.FCMServerKey != "" {
		pushService = push.NewFCMService(cfg.Notify.FCMServerKey)
	} else {
		log.Println("WARNING: FCM_SERVER_KEY not set, using MockPush (notifications will only print to logs)")
		pushService = push.NewMockPushService()
	}

	// Object storage for request attachments and catalog photos
	uploader, err := storage.New(context.Background(), storage.Options{
		Endpoint:  cfg.Storage.Endpoint,
		AccessKey: cfg.Storage.AccessKey,
		SecretKey: cfg.Storage.SecretKey,
		Bucket:    cfg.Storage.Bucket,
		Region:    cfg.Storage.Region,
		PublicURL: cfg.Storage.PublicURL,
	})
	if err != nil {
		log.Fatalf("Failed to configure object storage: %v", err)
	}

	// Services
	totpService := services.NewTOTPService(totpRepo, cfg.JWT.Issuer)
	userService := services.NewUserService(userRepo, smsService, jwtManager, totpService)
	customerService := services.NewCustomerService(customerRepo)
	machineService := services.NewMachineService(machineRepo)
	sparePartService := services.NewSparePartService(sparePartRepo)
	productService := services.NewRegisteredProductService(productRepo)
	requestService := services.NewServiceRequestService(requestRepo, productRepo, userRepo, notificationRepo, smsService)
	razorpayService := services.NewRazorpayService(cfg.Razorpay.KeyID, cfg.Razorpay.KeySecret, transactionRepo, requestRepo)
	reportService := services.NewReportService(requestRepo, sparePartRepo)

	// Background notification dispatcher
	dispatcher := services.NewNotificationDispatcher(
		notificationRepo, userRepo, pushService,
		time.Duration(cfg.Notify.DispatchIntervalSeconds)*time.Second,
		cfg.Notify.MaxAttempts,
	)
	dispatcher.Start()
	defer dispatcher.Stop()

	// Handlers
	authHandler := handlers.NewAuthHandler(userService, totpService)
	userHandler := handlers.NewUserHandler(userService)
	customerHandler := handlers.NewCustomerHandler(customerService)
	machineHandler := handlers.NewMachineHandler(machineService, uploader)
	sparePartHandler := handlers.NewSparePartHandler(sparePartService, uploader)
	productHandler := handlers.NewRegisteredProductHandler(productService)
	requestHandler := handlers.NewServiceRequestHandler(requestService, uploader)
	notificationHandler := handlers.NewNotificationHandler(notificationRepo)
	paymentHandler := handlers.NewPaymentHandler(razorpayService)
	reportHandler := handlers.NewReportHandler(reportService)
	healthHandler := handlers.NewHealthHandler(healthChecker)

	authMiddleware := middleware.NewAuthMiddleware(jwtManager, userRepo)
	corsMiddleware := middleware.NewCORS(cfg)

	router := httprouter.NewRouter(
		authHandler, userHandler, customerHandler,
		machineHandler, sparePartHandler, productHandler,
		requestHandler, notificationHandler, paymentHandler,
		reportHandler, healthHandler, authMiddleware,
	)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      corsMiddleware(router),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	go func() {
		log.Printf("Server listening on %s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for shutdown signal, then drain in-flight requests and stop the
	// dispatcher cleanly.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
}
