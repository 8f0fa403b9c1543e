package router

import (
	"time"

	"edupulse/config"
	"edupulse/internal/handler"
	"edupulse/internal/middleware"
	"edupulse/internal/repository"
	"edupulse/internal/service"
	"edupulse/pkg/cloudinary"
	"edupulse/pkg/payment"
	"edupulse/pkg/poller"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func Setup(cfg *config.Config, db *gorm.DB, cloud cloudinary.Client) *gin.Engine {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RateLimit(middleware.NewInMemoryRateLimiter(100, 60*time.Second)))

	// Repositories
	userRepo := repository.NewUserRepository(db)
	profileRepo := repository.NewProfileRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	referralRepo := repository.NewReferralRepository(db)
	surveyRepo := repository.NewSurveyRepository(db)
	responseRepo := repository.NewResponseRepository(db)
	withdrawalRepo := repository.NewWithdrawalRepository(db)
	settingRepo := repository.NewSettingRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	// Services
	authSvc := service.NewAuthService(userRepo, &cfg.JWT)
	notifSvc := service.NewNotificationService(notificationRepo)
	provider := payment.NewLipanaProvider(cfg.Lipana.BaseURL, cfg.Lipana.SecretKey)
	provisioner := service.NewAccountProvisioner(db)
	paymentSvc := service.NewPaymentService(paymentRepo, userRepo, settingRepo, provider, provisioner, cfg.Payment.VerifyTimeout)
	surveySvc := service.NewSurveyService(surveyRepo, responseRepo, profileRepo, notifSvc)
	withdrawalSvc := service.NewWithdrawalService(withdrawalRepo, profileRepo, notifSvc)

	// Handlers
	initiatePoller := poller.New(cfg.Payment.PollInterval, cfg.Payment.InitiateMaxWait)
	paymentHandler := handler.NewPaymentHandler(paymentSvc, authSvc, userRepo, profileRepo, initiatePoller)
	authHandler := handler.NewAuthHandler(authSvc)
	meHandler := handler.NewMeHandler(userRepo, profileRepo, cloud)
	surveyHandler := handler.NewSurveyHandler(surveyRepo, responseRepo, surveySvc)
	walletHandler := handler.NewWalletHandler(profileRepo, withdrawalRepo, withdrawalSvc)
	referralHandler := handler.NewReferralHandler(profileRepo, referralRepo)
	notificationHandler := handler.NewNotificationHandler(notifSvc)
	adminHandler := handler.NewAdminHandler(userRepo, profileRepo, paymentRepo, surveyRepo, responseRepo, withdrawalRepo, settingRepo, auditRepo, surveySvc, withdrawalSvc)

	authMw := middleware.AuthRequired(&cfg.JWT)

	r.GET("/healthz", func(c *gin.Context) { c.JSON(200, gin.H{"status": "ok"}) })

	api := r.Group("/api/v1")
	{
		// Registration is payment-first: the account exists only after the
		// charge confirms.
		payments := api.Group("/payments")
		{
			payments.POST("/initiate", paymentHandler.Initiate)
			payments.POST("/verify", paymentHandler.Verify)
		}

		authGroup := api.Group("/auth")
		{
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/refresh", authHandler.Refresh)
		}
		api.POST("/admin/login", authHandler.AdminLogin)

		api.GET("/referrals/:code", referralHandler.Resolve)

		me := api.Group("/me", authMw)
		{
			me.GET("/profile", meHandler.Get)
			me.PATCH("/profile", meHandler.Update)
			me.POST("/avatar", meHandler.UploadAvatar)
			me.GET("/wallet", walletHandler.GetBalance)
			me.GET("/withdrawals", walletHandler.MyWithdrawals)
			me.POST("/withdraw", walletHandler.RequestWithdrawal)
			me.GET("/referrals", referralHandler.MyEarnings)
			me.GET("/responses", surveyHandler.MyResponses)
			me.GET("/notifications", notificationHandler.List)
			me.POST("/notifications/:id/read", notificationHandler.MarkRead)
			me.POST("/notifications/read-all", notificationHandler.MarkAllRead)
		}

		surveys := api.Group("/surveys", authMw)
		{
			surveys.GET("", surveyHandler.ListActive)
			surveys.GET("/:id", surveyHandler.Get)
			surveys.POST("/:id/responses", surveyHandler.Submit)
		}

		admin := api.Group("/admin", authMw, middleware.AdminRequired())
		{
			admin.GET("/dashboard", adminHandler.Dashboard)
			admin.GET("/surveys", adminHandler.ListSurveys)
			admin.POST("/surveys", adminHandler.CreateSurvey)
			admin.PATCH("/surveys/:id", adminHandler.UpdateSurvey)
			admin.DELETE("/surveys/:id", adminHandler.DeleteSurvey)
			admin.GET("/responses/flagged", adminHandler.FlaggedResponses)
			admin.POST("/responses/:id/review", adminHandler.ReviewResponse)
			admin.GET("/withdrawals", adminHandler.ListWithdrawals)
			admin.POST("/withdrawals/:id/approve", adminHandler.ApproveWithdrawal)
			admin.POST("/withdrawals/:id/reject", adminHandler.RejectWithdrawal)
			admin.GET("/payments", adminHandler.ListPayments)
			admin.GET("/users", adminHandler.ListUsers)
			admin.POST("/users/:id/restrict", adminHandler.RestrictUser)
			admin.GET("/settings", adminHandler.GetSettings)
			admin.PUT("/settings", adminHandler.UpdateSetting)
			admin.GET("/audit-logs", adminHandler.AuditLogs)
		}
	}

	return r
}
