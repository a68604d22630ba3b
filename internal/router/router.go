// Package router assembles the HTTP API.
package router

import (
	"fmt"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	redisStore "github.com/gin-contrib/sessions/redis"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/yukikurage/collab-task-api/internal/config"
	"github.com/yukikurage/collab-task-api/internal/constants"
	apierrors "github.com/yukikurage/collab-task-api/internal/errors"
	"github.com/yukikurage/collab-task-api/internal/handlers"
	"github.com/yukikurage/collab-task-api/internal/integrity"
	"github.com/yukikurage/collab-task-api/internal/middleware"
	"github.com/yukikurage/collab-task-api/internal/models"
	"github.com/yukikurage/collab-task-api/internal/repository"
	"github.com/yukikurage/collab-task-api/internal/services"
	"github.com/yukikurage/collab-task-api/internal/storage"
	"gorm.io/gorm"
)

// Deps are the process-wide collaborators the API is built from.
type Deps struct {
	Config *config.Config
	DB     *gorm.DB
	Log    *logrus.Logger
	// AI is optional; task suggestions answer 503 without it.
	AI *services.AIService
}

// New wires repositories, services and handlers and registers every route.
func New(deps Deps) (*gin.Engine, error) {
	cfg, log := deps.Config, deps.Log

	if err := RegisterValidators(); err != nil {
		return nil, err
	}

	store, err := sessionStore(cfg)
	if err != nil {
		return nil, err
	}

	files, err := storage.NewLocalStore(cfg.FileUploadPath, cfg.MaxFileSize, log)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare upload directory: %w", err)
	}

	users := repository.NewUserRepository(deps.DB)
	projects := repository.NewProjectRepository(deps.DB)
	tasks := repository.NewTaskRepository(deps.DB)
	maintainer := integrity.NewMaintainer(log)
	tokens := services.NewTokenService(cfg.JWTSecret, cfg.JWTExpire)

	authService := services.NewAuthService(users, tokens, cfg.ResetTokenTTL, log)
	userService := services.NewUserService(users, maintainer)
	projectService := services.NewProjectService(deps.DB, projects, users, maintainer, files, log)
	taskService := services.NewTaskService(tasks, projects, users, maintainer, files, deps.AI, log)

	authHandler := handlers.NewAuthHandler(authService, log)
	userHandler := handlers.NewUserHandler(userService)
	projectHandler := handlers.NewProjectHandler(projectService, taskService)
	taskHandler := handlers.NewTaskHandler(taskService)

	r := gin.New()
	r.MaxMultipartMemory = cfg.MaxFileSize
	r.Use(middleware.RequestLogger(log))
	r.Use(gin.CustomRecovery(func(c *gin.Context, recovered any) {
		log.WithField("panic", recovered).Error("recovered from panic")
		apierrors.Respond(c, fmt.Errorf("panic: %v", recovered), cfg.IsDevelopment())
	}))
	r.Use(middleware.ErrorHandler(cfg.IsDevelopment(), log))
	r.Use(sessions.Sessions(constants.SessionCookieName, store))

	r.NoRoute(func(c *gin.Context) {
		_ = c.Error(apierrors.NotFound("Route"))
	})

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"message": "Task Management API is running",
		})
	})

	requireAuth := middleware.RequireAuth(tokens, users)

	api := r.Group("/api")
	{
		// Auth routes
		auth := api.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.GET("/logout", authHandler.Logout)
			auth.POST("/forgotpassword", authHandler.ForgotPassword)
			auth.PUT("/resetpassword/:token", authHandler.ResetPassword)
			auth.GET("/me", requireAuth, authHandler.Me)
			auth.PUT("/updatedetails", requireAuth, authHandler.UpdateDetails)
			auth.PUT("/updatepassword", requireAuth, authHandler.UpdatePassword)
		}

		// Project routes (protected)
		projectRoutes := api.Group("/projects")
		projectRoutes.Use(requireAuth)
		{
			projectRoutes.GET("", projectHandler.ListProjects)
			projectRoutes.POST("", projectHandler.CreateProject)
			projectRoutes.GET("/:id", projectHandler.GetProject)
			projectRoutes.PUT("/:id", projectHandler.UpdateProject)
			projectRoutes.DELETE("/:id", projectHandler.DeleteProject)
			projectRoutes.POST("/:id/members", projectHandler.AddMember)
			projectRoutes.DELETE("/:id/members/:userId", middleware.RequireObjectIDs("userId"), projectHandler.RemoveMember)
			projectRoutes.POST("/:id/tasks/suggest", projectHandler.SuggestTasks)
		}

		// Task routes (protected)
		taskRoutes := api.Group("/tasks")
		taskRoutes.Use(requireAuth)
		{
			taskRoutes.GET("", taskHandler.ListTasks)
			taskRoutes.POST("", taskHandler.CreateTask)
			taskRoutes.GET("/user/:userId", middleware.RequireObjectIDs("userId"), taskHandler.ListUserTasks)
			taskRoutes.GET("/project/:projectId", middleware.RequireObjectIDs("projectId"), taskHandler.ListProjectTasks)
			taskRoutes.GET("/:id", taskHandler.GetTask)
			taskRoutes.PUT("/:id", taskHandler.UpdateTask)
			taskRoutes.DELETE("/:id", taskHandler.DeleteTask)
			taskRoutes.POST("/:id/comments", taskHandler.AddComment)
			taskRoutes.POST("/:id/attachments", taskHandler.AddAttachment)
			taskRoutes.DELETE("/:id/attachments/:attachmentId", middleware.RequireObjectIDs("attachmentId"), taskHandler.DeleteAttachment)
		}

		// User routes (admin only)
		userRoutes := api.Group("/users")
		userRoutes.Use(requireAuth, middleware.RequireRole(models.RoleAdmin))
		{
			userRoutes.GET("", userHandler.ListUsers)
			userRoutes.GET("/stats", userHandler.Stats)
			userRoutes.GET("/:id", userHandler.GetUser)
			userRoutes.PUT("/:id", userHandler.UpdateUser)
			userRoutes.DELETE("/:id", userHandler.DeleteUser)
		}
	}

	return r, nil
}

func sessionStore(cfg *config.Config) (sessions.Store, error) {
	var store sessions.Store
	switch cfg.SessionStore {
	case "redis":
		redisAddr := cfg.RedisHost + ":" + cfg.RedisPort
		rs, err := redisStore.NewStore(
			10,    // Redis pool size
			"tcp", // network type
			redisAddr,
			"", // password (empty = no password)
			[]byte(cfg.SessionSecret),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create Redis store: %w", err)
		}
		store = rs
	case "cookie", "":
		store = cookie.NewStore([]byte(cfg.SessionSecret))
	default:
		return nil, fmt.Errorf("unknown session store %q", cfg.SessionStore)
	}

	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   int(constants.SessionMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   cfg.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	})
	return store, nil
}
