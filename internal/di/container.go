// Package di provides a dependency injection container for managing service
// lifecycle and dependencies.
package di

import (
	"context"
	"database/sql"
	"sync"

	"phraseapp/internal/config"
	"phraseapp/internal/database"
	"phraseapp/internal/observability"
	"phraseapp/internal/phrasecache"
	"phraseapp/internal/services"
	contextutils "phraseapp/internal/utils"
)

// ServiceContainerInterface defines the interface for service containers
type ServiceContainerInterface interface {
	GetService(name string) (interface{}, error)
	GetUserService() (services.UserServiceInterface, error)
	GetTopicService() (services.TopicServiceInterface, error)
	GetSettingsService() (services.SettingsServiceInterface, error)
	GetAIService() (services.AIServiceInterface, error)
	GetPhraseService() (services.PhraseServiceInterface, error)
	GetTranscriptionService() (services.TranscriptionServiceInterface, error)
	GetPhraseStore() *phrasecache.Store
	GetDatabase() *sql.DB
	GetConfig() *config.Config
	GetLogger() *observability.Logger
	Initialize(ctx context.Context) error
	Shutdown(ctx context.Context) error
}

// ServiceContainer manages all service dependencies and lifecycle
type ServiceContainer struct {
	cfg           *config.Config
	logger        *observability.Logger
	dbManager     *database.Manager
	db            *sql.DB
	phraseStore   *phrasecache.Store
	services      map[string]interface{}
	mu            sync.RWMutex
	shutdownFuncs []func(context.Context) error
}

// NewServiceContainer creates a new dependency injection container
func NewServiceContainer(cfg *config.Config, logger *observability.Logger) *ServiceContainer {
	return &ServiceContainer{
		cfg:      cfg,
		logger:   logger,
		services: make(map[string]interface{}),
	}
}

// Initialize sets up all services and their dependencies
func (sc *ServiceContainer) Initialize(ctx context.Context) error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	sc.dbManager = database.NewManager(sc.logger)
	db, err := sc.dbManager.InitDBWithConfig(sc.cfg.Database)
	if err != nil {
		return contextutils.WrapErrorf(err, "failed to initialize database")
	}
	sc.db = db
	sc.shutdownFuncs = append(sc.shutdownFuncs, func(_ context.Context) error {
		return db.Close()
	})

	sc.initializeServices(ctx)

	return nil
}

// GetService retrieves a service by name with type assertion
func (sc *ServiceContainer) GetService(name string) (interface{}, error) {
	sc.mu.RLock()
	defer sc.mu.RUnlock()

	service, exists := sc.services[name]
	if !exists {
		return nil, contextutils.ErrorWithContextf("service %s not found", name)
	}
	return service, nil
}

// GetServiceAs performs type-safe service retrieval
func GetServiceAs[T any](sc *ServiceContainer, name string) (T, error) {
	var zero T
	service, err := sc.GetService(name)
	if err != nil {
		return zero, err
	}

	typed, ok := service.(T)
	if !ok {
		return zero, contextutils.ErrorWithContextf("service %s is not of expected type %T", name, zero)
	}
	return typed, nil
}

// GetUserService returns the user service
func (sc *ServiceContainer) GetUserService() (services.UserServiceInterface, error) {
	return GetServiceAs[services.UserServiceInterface](sc, "user")
}

// GetTopicService returns the topic service
func (sc *ServiceContainer) GetTopicService() (services.TopicServiceInterface, error) {
	return GetServiceAs[services.TopicServiceInterface](sc, "topic")
}

// GetSettingsService returns the settings service
func (sc *ServiceContainer) GetSettingsService() (services.SettingsServiceInterface, error) {
	return GetServiceAs[services.SettingsServiceInterface](sc, "settings")
}

// GetAIService returns the AI service
func (sc *ServiceContainer) GetAIService() (services.AIServiceInterface, error) {
	return GetServiceAs[services.AIServiceInterface](sc, "ai")
}

// GetPhraseService returns the phrase service
func (sc *ServiceContainer) GetPhraseService() (services.PhraseServiceInterface, error) {
	return GetServiceAs[services.PhraseServiceInterface](sc, "phrase")
}

// GetTranscriptionService returns the transcription service
func (sc *ServiceContainer) GetTranscriptionService() (services.TranscriptionServiceInterface, error) {
	return GetServiceAs[services.TranscriptionServiceInterface](sc, "transcription")
}

// GetPhraseStore returns the session phrase store
func (sc *ServiceContainer) GetPhraseStore() *phrasecache.Store {
	return sc.phraseStore
}

// GetDatabase returns the database instance
func (sc *ServiceContainer) GetDatabase() *sql.DB {
	return sc.db
}

// GetConfig returns the configuration
func (sc *ServiceContainer) GetConfig() *config.Config {
	return sc.cfg
}

// GetLogger returns the logger
func (sc *ServiceContainer) GetLogger() *observability.Logger {
	return sc.logger
}

// Shutdown gracefully shuts down all services
func (sc *ServiceContainer) Shutdown(ctx context.Context) error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	return sc.cleanup(ctx)
}

// cleanup handles shutdown of all services
func (sc *ServiceContainer) cleanup(ctx context.Context) error {
	var errors []error

	// Shutdown lifecycle services first
	for name := range sc.services {
		if lifecycleService, ok := sc.services[name].(interface{ Shutdown(context.Context) error }); ok {
			sc.logger.Info(ctx, "Shutting down service", map[string]interface{}{"service": name})
			if err := lifecycleService.Shutdown(ctx); err != nil {
				sc.logger.Error(ctx, "Failed to shutdown service", err, map[string]interface{}{"service": name})
				errors = append(errors, contextutils.WrapErrorf(err, "service %s shutdown failed", name))
			} else {
				sc.logger.Info(ctx, "Service shutdown successfully", map[string]interface{}{"service": name})
			}
		}
	}

	// Shutdown remaining resources in reverse order of initialization
	for i := len(sc.shutdownFuncs) - 1; i >= 0; i-- {
		if err := sc.shutdownFuncs[i](ctx); err != nil {
			errors = append(errors, err)
		}
	}

	if len(errors) > 0 {
		return contextutils.ErrorWithContextf("shutdown errors: %v", errors)
	}
	return nil
}

// initializeServices sets up all service dependencies
func (sc *ServiceContainer) initializeServices(_ context.Context) {
	userService := services.NewUserService(sc.db, sc.logger)
	sc.services["user"] = userService

	topicService := services.NewTopicService(sc.db, sc.logger)
	sc.services["topic"] = topicService

	settingsService := services.NewSettingsService(sc.db, topicService, sc.logger)
	sc.services["settings"] = settingsService

	aiService := services.NewAIService(sc.cfg, sc.logger)
	sc.services["ai"] = aiService

	phraseService := services.NewPhraseService(aiService, topicService, settingsService, sc.logger)
	sc.services["phrase"] = phraseService

	transcriptionService := services.NewTranscriptionService(&sc.cfg.Transcription, sc.logger)
	sc.services["transcription"] = transcriptionService

	sc.phraseStore = phrasecache.NewStore()
}
