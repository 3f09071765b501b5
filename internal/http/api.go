package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"tasklist/internal/auth"
	"tasklist/internal/domain"
	"tasklist/internal/mailer"
	"tasklist/internal/service"
)

// Handler wires HTTP routes to domain services.
type Handler struct {
	users    service.UserService
	tasks    service.TaskService
	tokens   *auth.TokenService
	mail     *mailer.Mailer
	notifyTo string
	logger   *logrus.Logger
}

func NewHandler(users service.UserService, tasks service.TaskService, tokens *auth.TokenService, mail *mailer.Mailer, notifyTo string, logger *logrus.Logger) *Handler {
	return &Handler{
		users:    users,
		tasks:    tasks,
		tokens:   tokens,
		mail:     mail,
		notifyTo: notifyTo,
		logger:   logger,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(corsMiddleware())

	router.POST("/register", h.register)
	router.POST("/login", h.login)

	protected := router.Group("/tasks", auth.RequireAuth(h.tokens))
	{
		protected.GET("", h.listTasks)
		protected.POST("", h.createTask)
		protected.DELETE("", h.deleteTasks)
	}

	// catch-all liveness response, not a 404
	router.NoRoute(func(c *gin.Context) {
		c.String(http.StatusOK, "Server is running.")
	})
}

func corsMiddleware() gin.HandlerFunc {
	return cors.New(cors.Config{
		// echo any origin back so credentials stay allowed
		AllowOriginFunc:  func(origin string) bool { return true },
		AllowMethods:     []string{http.MethodOptions, http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders:     []string{"Origin", "X-Requested-With", "Content-Type", "Accept", "Authorization"},
		AllowCredentials: true,
	})
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type createTaskRequest struct {
	Title string `json:"title"`
}

type TaskResponse struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	OwnerUsername string `json:"owner_username"`
	CreatedAt     string `json:"created_at"`
}

func (h *Handler) register(c *gin.Context) {
	var req credentialsRequest
	// absent fields pass through empty; the store is the only validator
	_ = c.ShouldBindJSON(&req)

	user, err := h.users.Register(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		h.serverError(c, "register user", err)
		return
	}

	if h.mail != nil && h.notifyTo != "" {
		go func(username string) {
			if err := h.mail.SendRegistrationNotice(h.notifyTo, username); err != nil {
				h.logger.Warnf("registration notice: %v", err)
			}
		}(user.Username)
	}

	c.JSON(http.StatusOK, gin.H{"message": "User registered successfully"})
}

func (h *Handler) login(c *gin.Context) {
	var req credentialsRequest
	_ = c.ShouldBindJSON(&req)

	user, err := h.users.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		h.serverError(c, "authenticate user", err)
		return
	}

	token, err := h.tokens.Issue(user.Username)
	if err != nil {
		h.serverError(c, "issue token", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token})
}

func (h *Handler) listTasks(c *gin.Context) {
	username := auth.UsernameFromContext(c)

	tasks, err := h.tasks.ListTasks(c.Request.Context(), username)
	if err != nil {
		h.serverError(c, "list tasks", err)
		return
	}

	resp := make([]TaskResponse, len(tasks))
	for i := range tasks {
		resp[i] = taskToResponse(tasks[i])
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) createTask(c *gin.Context) {
	username := auth.UsernameFromContext(c)

	var req createTaskRequest
	_ = c.ShouldBindJSON(&req)

	if _, err := h.tasks.CreateTask(c.Request.Context(), req.Title, username); err != nil {
		h.serverError(c, "create task", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Task created successfully"})
}

func (h *Handler) deleteTasks(c *gin.Context) {
	username := auth.UsernameFromContext(c)

	count, err := h.tasks.DeleteTasks(c.Request.Context(), username)
	if err != nil {
		h.serverError(c, "delete tasks", err)
		return
	}

	h.logger.Debugf("deleted %d tasks for %s", count, username)
	c.JSON(http.StatusOK, gin.H{"message": "Tasks deleted successfully"})
}

// serverError logs the real error and answers with a generic body; internal
// detail never reaches the client.
func (h *Handler) serverError(c *gin.Context, op string, err error) {
	h.logger.Errorf("%s: %v", op, err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Server Error"})
}

func taskToResponse(task domain.Task) TaskResponse {
	return TaskResponse{
		ID:            task.ID,
		Title:         task.Title,
		OwnerUsername: task.OwnerUsername,
		CreatedAt:     task.CreatedAt.Format(time.RFC3339),
	}
}
