// Package httpapi exposes the operational HTTP surface: health and
// diagnostics probes, account registration, and match seeding for the
// matchmaker. Realtime traffic never flows through here.
package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	server "battle-arena/server"
	"battle-arena/server/internal/account"
	"battle-arena/server/internal/room"
)

// API bundles the handlers and their dependencies.
type API struct {
	hub      *server.Hub
	accounts *account.Service
	started  time.Time
}

// New builds the HTTP API.
func New(hub *server.Hub, accounts *account.Service) *API {
	return &API{hub: hub, accounts: accounts, started: time.Now()}
}

// Router assembles the gin engine with every route mounted.
func (a *API) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/health", a.health)
	router.GET("/diagnostics", a.diagnostics)
	router.POST("/accounts", a.registerAccount)
	router.POST("/matches", a.startMatch)

	return router
}

func (a *API) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (a *API) diagnostics(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"matches":       a.hub.MatchCount(),
		"matchIds":      a.hub.MatchIDs(),
		"uptimeSeconds": int64(time.Since(a.started).Seconds()),
	})
}

type registerRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (a *API) registerAccount(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if a.accounts.Exists(req.Username) {
		c.JSON(http.StatusConflict, gin.H{"error": "username taken"})
		return
	}
	if err := a.accounts.RegisterUser(req.Username, req.Password); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"username": req.Username})
}

func (a *API) startMatch(c *gin.Context) {
	var assignment room.Assignment
	if err := c.ShouldBindJSON(&assignment); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := a.hub.StartMatch(assignment); err != nil {
		var dup *server.DuplicateMatchError
		if errors.As(err, &dup) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"matchId": assignment.MatchID})
}
