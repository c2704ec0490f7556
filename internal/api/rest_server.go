package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/dunereach/dune-server/internal/auth"
	"github.com/dunereach/dune-server/internal/game"
	"github.com/dunereach/dune-server/internal/middleware"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// RestServer is the REST API for The Dune. Handlers are thin adapters: they
// bind input, call a service and map domain errors to status codes.
type RestServer struct {
	router      *gin.Engine
	accounts    auth.AccountRepo
	monsters    game.MonsterRepo
	engine      *game.Engine
	leaderboard *game.Leaderboard
	tokens      *auth.TokenManager
	policy      auth.PasswordPolicy
	metrics     *ServerMetrics
	port        string
}

// Config holds the REST server dependencies.
type Config struct {
	Port          string
	Accounts      auth.AccountRepo
	Monsters      game.MonsterRepo
	Engine        *game.Engine
	Leaderboard   *game.Leaderboard
	Tokens        *auth.TokenManager
	Policy        auth.PasswordPolicy
	EnableTracing bool
}

// NewRestServer builds the router with the middleware stack and all routes.
func NewRestServer(config Config) *RestServer {
	if config.Port == "" {
		config.Port = ":8088"
	}

	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())

	// === Observability middleware ===
	loggerMw := middleware.NewRequestLogger()
	router.Use(loggerMw.Handler())

	if config.EnableTracing {
		router.Use(otelgin.Middleware("rest_api"))
	}

	promMw := middleware.NewPrometheusMiddleware("rest_api")
	router.Use(promMw.Handler())
	promMw.RegisterMetricsEndpoint(router)

	server := &RestServer{
		router:      router,
		accounts:    config.Accounts,
		monsters:    config.Monsters,
		engine:      config.Engine,
		leaderboard: config.Leaderboard,
		tokens:      config.Tokens,
		policy:      config.Policy,
		metrics:     NewServerMetrics(),
		port:        config.Port,
	}

	server.setupRoutes()

	return server
}

// setupRoutes wires all REST API routes.
func (rs *RestServer) setupRoutes() {
	// CORS middleware
	rs.router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	rs.router.GET("/", rs.handleWelcome)
	rs.router.GET("/health", rs.handleHealth)

	api := rs.router.Group("/api")

	// Authentication endpoints (no token required)
	authGroup := api.Group("/auth")
	{
		authGroup.POST("/register", rs.handleRegister)
		authGroup.POST("/login", rs.handleLogin)
		authGroup.POST("/token", rs.handleGenerateToken)
	}

	// Protected endpoints (any authenticated user)
	protected := api.Group("/")
	protected.Use(rs.bearerMiddleware())
	{
		protected.POST("/game/slay", rs.handleSlay)
		protected.GET("/game/leaderboard", rs.handleLeaderboard)
		protected.GET("/users/:username", rs.handleGetAccount)

		// Administrative endpoints (admin role only)
		admin := protected.Group("/admin")
		admin.Use(rs.adminMiddleware())
		{
			admin.GET("/server", rs.handleServerInfo)
			admin.DELETE("/users/:username", rs.handleDeleteAccount)

			admin.POST("/monsters", rs.handleCreateMonster)
			admin.GET("/monsters", rs.handleListMonsters)
			admin.GET("/monsters/:monster_id", rs.handleGetMonster)
			admin.PUT("/monsters/:monster_id", rs.handleUpdateMonster)
			admin.DELETE("/monsters/:monster_id", rs.handleDeleteMonster)
		}
	}
}

// RegisterRequest is the registration payload.
type RegisterRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
	Email    string `json:"email" binding:"required"`
}

// LoginRequest is the credentials payload for login and token generation.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// TokenResponse carries an issued bearer token.
type TokenResponse struct {
	Success bool   `json:"success"`
	Token   string `json:"token,omitempty"`
	Message string `json:"message"`
}

// SlayRequest selects the monster for an encounter. An empty monster_id
// means a random pick from the catalog. Username may only be set by admins
// to resolve an encounter on another account's behalf.
type SlayRequest struct {
	MonsterID string `json:"monster_id"`
	Username  string `json:"username"`
}

// GenericResponse is the common API envelope.
type GenericResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func (rs *RestServer) handleWelcome(c *gin.Context) {
	c.String(http.StatusOK, "Welcome to The Dune Game")
}

func (rs *RestServer) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().Unix(),
	})
}

// handleRegister creates a new account.
func (rs *RestServer) handleRegister(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, GenericResponse{
			Success: false,
			Message: "Invalid request format",
		})
		return
	}

	account, err := auth.Register(c.Request.Context(), rs.accounts, rs.policy, auth.RegisterCommand{
		Username: req.Username,
		Password: req.Password,
		Email:    req.Email,
	})
	if errors.Is(err, auth.ErrValidation) {
		c.JSON(http.StatusBadRequest, GenericResponse{
			Success: false,
			Message: err.Error(),
		})
		return
	}
	if errors.Is(err, auth.ErrUserExists) {
		c.JSON(http.StatusConflict, GenericResponse{
			Success: false,
			Message: "User already exists",
		})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, GenericResponse{
			Success: false,
			Message: "Failed to create user",
		})
		return
	}

	c.JSON(http.StatusCreated, GenericResponse{
		Success: true,
		Message: "User created successfully",
		Data:    account.View(),
	})
}

// handleLogin verifies credentials and returns the public account view.
func (rs *RestServer) handleLogin(c *gin.Context) {
	account, ok := rs.authenticate(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Login successful",
		Data:    account.View(),
	})
}

// handleGenerateToken verifies credentials and issues a bearer token.
func (rs *RestServer) handleGenerateToken(c *gin.Context) {
	account, ok := rs.authenticate(c)
	if !ok {
		return
	}

	token, err := rs.tokens.Issue(account)
	if err != nil {
		c.JSON(http.StatusInternalServerError, TokenResponse{
			Success: false,
			Message: "Failed to generate token",
		})
		return
	}

	c.JSON(http.StatusOK, TokenResponse{
		Success: true,
		Token:   token,
		Message: "Token issued",
	})
}

// authenticate binds the credentials payload and checks it against the
// account store. Both unknown-user and wrong-password produce the same
// response body so clients cannot tell which part failed.
func (rs *RestServer) authenticate(c *gin.Context) (*auth.Account, bool) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, GenericResponse{
			Success: false,
			Message: "Invalid request format",
		})
		return nil, false
	}

	account, err := auth.Authenticate(c.Request.Context(), rs.accounts, req.Username, req.Password)
	if errors.Is(err, auth.ErrUserNotFound) || errors.Is(err, auth.ErrInvalidCredentials) {
		c.JSON(http.StatusUnauthorized, GenericResponse{
			Success: false,
			Message: "Invalid username or password",
		})
		return nil, false
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, GenericResponse{
			Success: false,
			Message: "Internal server error",
		})
		return nil, false
	}
	return account, true
}

// handleSlay resolves an encounter for the authenticated account.
func (rs *RestServer) handleSlay(c *gin.Context) {
	var req SlayRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, GenericResponse{
				Success: false,
				Message: "Invalid request format",
			})
			return
		}
	}

	claims := claimsFromContext(c)
	username := claims.Username
	if req.Username != "" && req.Username != claims.Username {
		// Acting on another account requires the admin role.
		if err := rs.tokens.RequireRole(claims, auth.RoleAdmin); err != nil {
			c.JSON(http.StatusForbidden, GenericResponse{
				Success: false,
				Message: "Access denied: insufficient permissions",
			})
			return
		}
		username = req.Username
	}

	result, err := rs.engine.ResolveEncounter(c.Request.Context(), username, req.MonsterID)
	switch {
	case errors.Is(err, auth.ErrUserNotFound):
		c.JSON(http.StatusNotFound, GenericResponse{
			Success: false,
			Message: "User not found",
		})
		return
	case errors.Is(err, game.ErrMonsterNotFound):
		c.JSON(http.StatusNotFound, GenericResponse{
			Success: false,
			Message: "Monster not found",
		})
		return
	case errors.Is(err, game.ErrCatalogEmpty):
		c.JSON(http.StatusNotFound, GenericResponse{
			Success: false,
			Message: "No monsters roam the dune",
		})
		return
	case errors.Is(err, game.ErrConflict):
		c.JSON(http.StatusConflict, GenericResponse{
			Success: false,
			Message: "Progression was updated concurrently, try again",
		})
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, GenericResponse{
			Success: false,
			Message: "Internal server error",
		})
		return
	}

	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: result.Message,
		Data:    result,
	})
}

// handleLeaderboard returns the top accounts by progression.
func (rs *RestServer) handleLeaderboard(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if limit < 1 || limit > 100 {
		limit = 10
	}

	entries, err := rs.leaderboard.Top(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, GenericResponse{
			Success: false,
			Message: "Failed to load leaderboard",
		})
		return
	}

	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Leaderboard",
		Data: map[string]interface{}{
			"entries": entries,
			"limit":   limit,
		},
	})
}

// handleGetAccount returns the public view of an account. Users can only
// read themselves; admins can read anyone.
func (rs *RestServer) handleGetAccount(c *gin.Context) {
	username := c.Param("username")
	claims := claimsFromContext(c)

	if claims.Username != username {
		if err := rs.tokens.RequireRole(claims, auth.RoleAdmin); err != nil {
			c.JSON(http.StatusForbidden, GenericResponse{
				Success: false,
				Message: "Access denied: insufficient permissions",
			})
			return
		}
	}

	account, err := rs.accounts.GetByUsername(c.Request.Context(), username)
	if errors.Is(err, auth.ErrUserNotFound) {
		c.JSON(http.StatusNotFound, GenericResponse{
			Success: false,
			Message: "User not found",
		})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, GenericResponse{
			Success: false,
			Message: "Internal server error",
		})
		return
	}

	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "User found",
		Data:    account.View(),
	})
}

// handleDeleteAccount removes an account (admin only).
func (rs *RestServer) handleDeleteAccount(c *gin.Context) {
	username := c.Param("username")

	deleted, err := rs.accounts.Delete(c.Request.Context(), username)
	if err != nil {
		c.JSON(http.StatusInternalServerError, GenericResponse{
			Success: false,
			Message: "Internal server error",
		})
		return
	}
	if deleted == 0 {
		c.JSON(http.StatusNotFound, GenericResponse{
			Success: false,
			Message: "User not found",
		})
		return
	}

	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "User deleted successfully",
	})
}

// handleCreateMonster adds a monster to the catalog.
func (rs *RestServer) handleCreateMonster(c *gin.Context) {
	var monster game.Monster
	if err := c.ShouldBindJSON(&monster); err != nil {
		c.JSON(http.StatusBadRequest, GenericResponse{
			Success: false,
			Message: "Invalid request format",
		})
		return
	}
	if monster.MonsterID == "" || monster.Name == "" {
		c.JSON(http.StatusBadRequest, GenericResponse{
			Success: false,
			Message: "Required fields: monster_id, name",
		})
		return
	}

	err := rs.monsters.Create(c.Request.Context(), &monster)
	if errors.Is(err, game.ErrMonsterExists) {
		c.JSON(http.StatusConflict, GenericResponse{
			Success: false,
			Message: "Monster with this ID already exists",
		})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, GenericResponse{
			Success: false,
			Message: "Failed to create monster",
		})
		return
	}

	c.JSON(http.StatusCreated, GenericResponse{
		Success: true,
		Message: "Monster created successfully",
		Data:    monster,
	})
}

// handleListMonsters returns the full catalog.
func (rs *RestServer) handleListMonsters(c *gin.Context) {
	monsters, err := rs.monsters.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, GenericResponse{
			Success: false,
			Message: "Failed to list monsters",
		})
		return
	}

	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Monster catalog",
		Data: map[string]interface{}{
			"monsters": monsters,
			"total":    len(monsters),
		},
	})
}

// handleGetMonster returns a monster by id.
func (rs *RestServer) handleGetMonster(c *gin.Context) {
	monster, err := rs.monsters.GetByID(c.Request.Context(), c.Param("monster_id"))
	if errors.Is(err, game.ErrMonsterNotFound) {
		c.JSON(http.StatusNotFound, GenericResponse{
			Success: false,
			Message: "Monster not found",
		})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, GenericResponse{
			Success: false,
			Message: "Internal server error",
		})
		return
	}

	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Monster found",
		Data:    monster,
	})
}

// handleUpdateMonster replaces the mutable fields of a monster.
func (rs *RestServer) handleUpdateMonster(c *gin.Context) {
	var monster game.Monster
	if err := c.ShouldBindJSON(&monster); err != nil {
		c.JSON(http.StatusBadRequest, GenericResponse{
			Success: false,
			Message: "Invalid request format",
		})
		return
	}
	monster.MonsterID = c.Param("monster_id")

	err := rs.monsters.Update(c.Request.Context(), &monster)
	if errors.Is(err, game.ErrMonsterNotFound) {
		c.JSON(http.StatusNotFound, GenericResponse{
			Success: false,
			Message: "Monster not found",
		})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, GenericResponse{
			Success: false,
			Message: "Failed to update monster",
		})
		return
	}

	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Monster updated successfully",
	})
}

// handleDeleteMonster removes a monster from the catalog.
func (rs *RestServer) handleDeleteMonster(c *gin.Context) {
	err := rs.monsters.Delete(c.Request.Context(), c.Param("monster_id"))
	if errors.Is(err, game.ErrMonsterNotFound) {
		c.JSON(http.StatusNotFound, GenericResponse{
			Success: false,
			Message: "Monster not found",
		})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, GenericResponse{
			Success: false,
			Message: "Failed to delete monster",
		})
		return
	}

	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Monster deleted successfully",
	})
}

// handleServerInfo returns uptime and process metrics (admin only).
func (rs *RestServer) handleServerInfo(c *gin.Context) {
	memoryMB, _ := rs.metrics.GetMemoryUsage()
	cpuPercent, _ := rs.metrics.GetCPUUsage()

	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Server info",
		Data: map[string]interface{}{
			"name":        "The Dune Game Server",
			"status":      "running",
			"uptime":      rs.metrics.GetUptime(),
			"memory_mb":   memoryMB,
			"cpu_percent": cpuPercent,
			"server_time": time.Now().Unix(),
		},
	})
}

// Router exposes the underlying gin engine, mainly for tests.
func (rs *RestServer) Router() http.Handler {
	return rs.router
}

// Start runs the REST server. Blocks until the listener stops.
func (rs *RestServer) Start() error {
	return rs.router.Run(rs.port)
}
