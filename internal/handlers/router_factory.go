package handlers

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/secure"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"

	"phraseapp/internal/config"
	"phraseapp/internal/middleware"
	"phraseapp/internal/observability"
	"phraseapp/internal/phrasecache"
	"phraseapp/internal/services"
	"phraseapp/internal/version"
)

// NewRouter creates a new router with all the necessary middleware and routes
func NewRouter(
	cfg *config.Config,
	userService services.UserServiceInterface,
	topicService services.TopicServiceInterface,
	settingsService services.SettingsServiceInterface,
	phraseService services.PhraseServiceInterface,
	transcriptionService services.TranscriptionServiceInterface,
	phraseStore *phrasecache.Store,
	logger *observability.Logger,
) *gin.Engine {
	router := gin.New()
	router.Use(middleware.ErrorRecoveryMiddleware(nil))

	// HTTP request logging through the observability logger
	router.Use(func(c *gin.Context) {
		start := time.Now()

		c.Next()

		latency := time.Since(start)
		statusCode := c.Writer.Status()

		fields := map[string]interface{}{
			"http.method":      c.Request.Method,
			"http.path":        c.Request.URL.Path,
			"http.status_code": statusCode,
			"http.latency_ms":  latency.Milliseconds(),
			"http.client_ip":   c.ClientIP(),
			"http.user_agent":  c.Request.UserAgent(),
		}
		if len(c.Errors) > 0 {
			fields["http.error"] = c.Errors.String()
		}

		if statusCode >= 500 {
			logger.Error(c.Request.Context(), "HTTP request failed", nil, fields)
		} else if statusCode >= 400 {
			logger.Warn(c.Request.Context(), "HTTP request warning", fields)
		} else {
			logger.Info(c.Request.Context(), "HTTP request", fields)
		}
	})

	// Health check endpoint (defined before any middleware)
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "backend"})
	})

	// OpenTelemetry middleware for HTTP tracing and context propagation
	router.Use(observability.GinMiddlewareWithErrorHandling("phrase-backend"))

	// Disable automatic redirection for trailing slashes, which is better for APIs
	router.RedirectTrailingSlash = false

	// CORS
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.Server.CORSOrigins
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "X-Requested-With"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	// Cookie sessions
	store := cookie.NewStore([]byte(cfg.Server.SessionSecret))
	sessionOpts := sessions.Options{
		Path:     config.SessionPath,
		MaxAge:   int(config.SessionMaxAge.Seconds()),
		HttpOnly: config.SessionHTTPOnly,
		Secure:   config.SessionSecure,
	}
	if cfg.Server.Debug {
		sessionOpts.SameSite = http.SameSiteDefaultMode
	} else {
		sessionOpts.SameSite = http.SameSiteLaxMode
		sessionOpts.Secure = true
	}
	store.Options(sessionOpts)
	router.Use(sessions.Sessions(config.SessionName, store))

	gin.SetMode(gin.ReleaseMode)
	if cfg.Server.Debug {
		gin.SetMode(gin.DebugMode)
	}

	// Security headers
	secureConfig := secure.DefaultConfig()
	secureConfig.SSLRedirect = false
	secureConfig.ContentSecurityPolicy = config.DefaultCSP
	router.Use(secure.New(secureConfig))

	authHandler := NewAuthHandler(userService, cfg, logger)
	phraseHandler := NewPhraseHandler(phraseService, userService, phraseStore, cfg, logger)
	topicHandler := NewTopicHandler(topicService, cfg, logger)
	settingsHandler := NewSettingsHandler(settingsService, cfg, logger)
	speechHandler := NewSpeechHandler(transcriptionService, cfg, logger)

	v1 := router.Group("/v1")
	{
		v1.GET("/version", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"service":   "backend",
				"version":   version.Version,
				"commit":    version.Commit,
				"buildTime": version.BuildTime,
			})
		})

		auth := v1.Group("/auth")
		{
			auth.POST("/signup", authHandler.Signup)
			auth.POST("/login", authHandler.Login)
			auth.POST("/logout", authHandler.Logout)
			auth.GET("/status", authHandler.Status)
		}

		phrases := v1.Group("/phrases")
		phrases.Use(middleware.RequireAuth())
		{
			phrases.POST("", phraseHandler.GeneratePhrases)
			phrases.POST("/feedback", phraseHandler.Feedback)
			phrases.GET("/settings", settingsHandler.GetSettings)
			phrases.POST("/settings", settingsHandler.CreateSettings)
			phrases.PUT("/settings", settingsHandler.UpdateSettings)
			phrases.GET("/session", phraseHandler.GetSessionPhrases)
			phrases.POST("/session/:id/translation", phraseHandler.SubmitTranslation)
		}

		topics := v1.Group("/topics")
		topics.Use(middleware.RequireAuth())
		{
			topics.GET("", topicHandler.ListTopics)
			topics.POST("", topicHandler.CreateTopic)
			topics.GET("/:id", topicHandler.GetTopic)
			topics.PUT("/:id", topicHandler.UpdateTopic)
			topics.DELETE("/:id", topicHandler.DeleteTopic)
		}

		preferences := v1.Group("/preferences")
		preferences.Use(middleware.RequireAuth())
		{
			preferences.GET("", settingsHandler.GetPreferences)
			preferences.PUT("", settingsHandler.UpdatePreferences)
		}

		speech := v1.Group("/speech")
		speech.Use(middleware.RequireAuth())
		{
			speech.POST("/transcribe", speechHandler.Transcribe)
		}

		// Reference data (no auth required)
		meta := v1.Group("/meta")
		{
			meta.GET("/levels", settingsHandler.GetLevels)
			meta.GET("/languages", settingsHandler.GetLanguages)
		}
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	})

	return router
}
