package http

import (
	"net/http"

	"fieldserve-backend/internal/handlers"
	"fieldserve-backend/internal/middleware"
	"fieldserve-backend/internal/models"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func NewRouter(
	authHandler *handlers.AuthHandler,
	userHandler *handlers.UserHandler,
	customerHandler *handlers.CustomerHandler,
	machineHandler *handlers.MachineHandler,
	sparePartHandler *handlers.SparePartHandler,
	productHandler *handlers.RegisteredProductHandler,
	requestHandler *handlers.ServiceRequestHandler,
	notificationHandler *handlers.NotificationHandler,
	paymentHandler *handlers.PaymentHandler,
	reportHandler *handlers.ReportHandler,
	healthHandler *handlers.HealthHandler,
	authMiddleware *middleware.AuthMiddleware,
) *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.PanicRecovery)
	r.Use(middleware.MetricsMiddleware)

	backOffice := authMiddleware.RequireRole(models.RoleAdmin, models.RoleOwner, models.RoleStaff)
	adminOnly := authMiddleware.RequireRole(models.RoleAdmin)

	// Probes and metrics
	r.HandleFunc("/health", healthHandler.BasicHealth).Methods("GET")
	r.HandleFunc("/health/ready", healthHandler.ReadinessHealth).Methods("GET")
	r.HandleFunc("/health/detailed", healthHandler.DetailedHealth).Methods("GET")
	r.HandleFunc("/ready", healthHandler.ReadinessHealth).Methods("GET")
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")

	// Public authentication endpoints
	r.HandleFunc("/sendotp", authHandler.SendOTP).Methods("POST")
	r.HandleFunc("/login", authHandler.Login).Methods("POST")
	r.HandleFunc("/logout", authHandler.Logout).Methods("POST")
	r.Handle("/profile", authMiddleware.Authenticate(http.HandlerFunc(userHandler.Me))).Methods("GET")
	r.HandleFunc("/api/v1/auth/otp", authHandler.SendOTP).Methods("POST")
	r.HandleFunc("/api/v1/auth/login", authHandler.Login).Methods("POST")
	r.HandleFunc("/api/v1/auth/dashboard-login", authHandler.DashboardLogin).Methods("POST")
	r.HandleFunc("/api/v1/auth/verify-totp", authHandler.VerifyTOTP).Methods("POST")
	r.HandleFunc("/api/v1/auth/logout", authHandler.Logout).Methods("POST")

	// Profile and device registration (any authenticated role)
	meAPI := r.PathPrefix("/api/v1/me").Subrouter()
	meAPI.Use(authMiddleware.Authenticate)
	meAPI.HandleFunc("", userHandler.Me).Methods("GET")
	meAPI.HandleFunc("/fcm-token", userHandler.UpdateFCMToken).Methods("PUT")
	meAPI.HandleFunc("/notifications", notificationHandler.ListMine).Methods("GET")

	// 2FA enrollment for dashboard users
	totpAPI := r.PathPrefix("/api/v1/totp").Subrouter()
	totpAPI.Use(authMiddleware.Authenticate)
	totpAPI.Use(backOffice)
	totpAPI.HandleFunc("/enroll", authHandler.EnrollTOTP).Methods("POST")
	totpAPI.HandleFunc("/activate", authHandler.ActivateTOTP).Methods("POST")
	totpAPI.HandleFunc("", authHandler.DisableTOTP).Methods("DELETE")

	// User administration
	usersAPI := r.PathPrefix("/api/v1/users").Subrouter()
	usersAPI.Use(authMiddleware.Authenticate)
	usersAPI.Use(adminOnly)
	usersAPI.HandleFunc("", userHandler.CreateUser).Methods("POST")
	usersAPI.HandleFunc("/staff", userHandler.ListStaff).Methods("GET")
	usersAPI.HandleFunc("/{id:[0-9]+}", userHandler.GetUser).Methods("GET")
	usersAPI.HandleFunc("/{id:[0-9]+}", userHandler.UpdateUser).Methods("PUT")

	// Engineers are listed by back-office staff for assignment
	engineersAPI := r.PathPrefix("/api/v1/engineers").Subrouter()
	engineersAPI.Use(authMiddleware.Authenticate)
	engineersAPI.Use(backOffice)
	engineersAPI.HandleFunc("", userHandler.ListEngineers).Methods("GET")
	engineersAPI.HandleFunc("/dropdown", userHandler.EngineerDropdown).Methods("GET")

	// Customer organizations
	customersAPI := r.PathPrefix("/api/v1/customers").Subrouter()
	customersAPI.Use(authMiddleware.Authenticate)
	customersAPI.Use(backOffice)
	customersAPI.HandleFunc("", customerHandler.CreateCustomer).Methods("POST")
	customersAPI.HandleFunc("", customerHandler.ListCustomers).Methods("GET")
	customersAPI.HandleFunc("/dropdown", customerHandler.Dropdown).Methods("GET")
	customersAPI.HandleFunc("/{id:[0-9]+}", customerHandler.GetCustomer).Methods("GET")
	customersAPI.HandleFunc("/{id:[0-9]+}", customerHandler.UpdateCustomer).Methods("PUT")

	// Machine catalog
	machinesAPI := r.PathPrefix("/api/v1/machines").Subrouter()
	machinesAPI.Use(authMiddleware.Authenticate)
	machinesAPI.HandleFunc("", machineHandler.ListMachines).Methods("GET")
	machinesAPI.HandleFunc("/dropdown", machineHandler.Dropdown).Methods("GET")
	machinesAPI.HandleFunc("/{id:[0-9]+}", machineHandler.GetMachine).Methods("GET")
	machinesAPI.Handle("", backOffice(http.HandlerFunc(machineHandler.CreateMachine))).Methods("POST")
	machinesAPI.Handle("/{id:[0-9]+}", backOffice(http.HandlerFunc(machineHandler.UpdateMachine))).Methods("PUT")

	// Spare part catalog
	partsAPI := r.PathPrefix("/api/v1/spare-parts").Subrouter()
	partsAPI.Use(authMiddleware.Authenticate)
	partsAPI.HandleFunc("", sparePartHandler.ListSpareParts).Methods("GET")
	partsAPI.HandleFunc("/dropdown", sparePartHandler.Dropdown).Methods("GET")
	partsAPI.HandleFunc("/{id:[0-9]+}", sparePartHandler.GetSparePart).Methods("GET")
	partsAPI.Handle("", backOffice(http.HandlerFunc(sparePartHandler.CreateSparePart))).Methods("POST")
	partsAPI.Handle("/{id:[0-9]+}", backOffice(http.HandlerFunc(sparePartHandler.UpdateSparePart))).Methods("PUT")

	// Registered products
	productsAPI := r.PathPrefix("/api/v1/products").Subrouter()
	productsAPI.Use(authMiddleware.Authenticate)
	productsAPI.HandleFunc("", productHandler.ListProducts).Methods("GET")
	productsAPI.HandleFunc("/dropdown", productHandler.Dropdown).Methods("GET")
	productsAPI.HandleFunc("/{id:[0-9]+}", productHandler.GetProduct).Methods("GET")
	productsAPI.Handle("", backOffice(http.HandlerFunc(productHandler.RegisterProduct))).Methods("POST")
	productsAPI.Handle("/{id:[0-9]+}", backOffice(http.HandlerFunc(productHandler.UpdateProduct))).Methods("PUT")

	// Service request lifecycle
	requestsAPI := r.PathPrefix("/api/v1/requests").Subrouter()
	requestsAPI.Use(authMiddleware.Authenticate)
	requestsAPI.HandleFunc("", requestHandler.CreateRequest).Methods("POST")
	requestsAPI.HandleFunc("", requestHandler.ListRequests).Methods("GET")
	requestsAPI.HandleFunc("/{id:[0-9]+}", requestHandler.GetRequest).Methods("GET")
	requestsAPI.HandleFunc("/{id:[0-9]+}/detail", requestHandler.GetRequest).Methods("GET")
	requestsAPI.Handle("/{id:[0-9]+}/assign",
		backOffice(http.HandlerFunc(requestHandler.AssignEngineer))).Methods("PUT")
	requestsAPI.Handle("/{id:[0-9]+}",
		authMiddleware.RequireRole(models.RoleEngineer)(http.HandlerFunc(requestHandler.HandleRequest))).Methods("POST")
	requestsAPI.Handle("/{id:[0-9]+}",
		authMiddleware.RequireRole(models.RoleEngineer, models.RoleAdmin, models.RoleOwner)(http.HandlerFunc(requestHandler.CloseRequest))).Methods("PUT")
	requestsAPI.Handle("/{id:[0-9]+}/report",
		backOffice(http.HandlerFunc(reportHandler.ServiceReport))).Methods("GET")

	// Online payments
	paymentsAPI := r.PathPrefix("/api/v1/payments").Subrouter()
	paymentsAPI.Use(authMiddleware.Authenticate)
	paymentsAPI.HandleFunc("/status", paymentHandler.Status).Methods("GET")
	paymentsAPI.HandleFunc("/order", paymentHandler.CreateOrder).Methods("POST")
	paymentsAPI.HandleFunc("/verify", paymentHandler.VerifyPayment).Methods("POST")

	return r
}
