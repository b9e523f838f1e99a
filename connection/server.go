package connection

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
	"github.com/joho/godotenv"

	"hamrotask/controller/admin"
	"hamrotask/controller/auth"
	"hamrotask/controller/billing"
	"hamrotask/controller/chat"
	"hamrotask/controller/field"
	"hamrotask/controller/file"
	"hamrotask/controller/notification"
	"hamrotask/controller/project"
	"hamrotask/controller/status"
	"hamrotask/controller/task"
	"hamrotask/controller/user"
	"hamrotask/controller/workspace"
	"hamrotask/controller/ws"
	"hamrotask/logging"
	"hamrotask/realtime"
	"hamrotask/scheduler"
	"hamrotask/services"
)

func StartServer() {
	if err := godotenv.Load(); err != nil {
		fmt.Println("Warning: .env file not found")
	}
	logging.Init()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		dbURL = "sqlite:./hamrotask.db"
	}
	db, err := OpenDatabase(dbURL)
	if err != nil {
		logging.Logger.Error("Failed to open database", "error", err)
		os.Exit(1)
	}
	if err := AutoMigrate(db); err != nil {
		logging.Logger.Error("Failed to migrate database", "error", err)
		os.Exit(1)
	}
	if err := SeedAdmin(db); err != nil {
		logging.Logger.Error("Failed to seed admin user", "error", err)
		os.Exit(1)
	}

	plans, err := services.LoadPlans()
	if err != nil {
		logging.Logger.Error("Failed to load plan catalog", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hub := realtime.NewHub()
	go hub.Run(ctx)

	sched := scheduler.New(db, hub)
	if err := sched.Start(); err != nil {
		logging.Logger.Error("Failed to start scheduler", "error", err)
		os.Exit(1)
	}

	router := gin.Default()
	router.Use(cors.Default())

	router.GET("/", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "Api is running!"})
	})

	auth.SignInController(router, db)
	auth.SignUpController(router, db)
	auth.GoogleSignInController(router, db)
	auth.OTPController(router, db)
	auth.CaptchaController(router)
	auth.TokenController(router, db)
	user.UserController(router, db)
	workspace.WorkspaceController(router, db, hub, plans)
	project.ProjectController(router, db, hub, plans)
	status.StatusController(router, db, hub)
	field.FieldController(router, db, hub)
	task.TaskController(router, db, hub)
	task.AttachmentController(router, db, hub)
	task.TimerController(router, db, hub)
	chat.ChannelController(router, db, hub)
	chat.MessageController(router, db, hub)
	chat.DMController(router, db, hub)
	notification.NotificationController(router, db)
	billing.BillingController(router, db, hub, plans)
	admin.AdminController(router, db)
	file.FileController(router, db)
	ws.WSController(router, hub)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	server := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	go func() {
		logging.Logger.Info("Server listening", "port", port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Logger.Error("Server stopped", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logging.Logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logging.Logger.Error("Forced shutdown", "error", err)
	}
	sched.Stop()
	hub.Shutdown()
}
