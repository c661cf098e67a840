// Package httpapi is the request/response surface of the chat core, used by
// clients without a live connection and for initial page load. It writes
// through the same store and broadcasts through the same registry as the
// websocket gateway.
package httpapi

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	apperrors "devconnect/errors"
	"devconnect/gateway"
	"devconnect/repositories"
	"devconnect/services"
)

type Server struct {
	log      *slog.Logger
	auth     services.IAuthService
	chat     services.IChatService
	verifier gateway.IdentityVerifier
	projects repositories.IProjectRepository
}

func NewServer(log *slog.Logger, auth services.IAuthService, chat services.IChatService,
	verifier gateway.IdentityVerifier, projects repositories.IProjectRepository) *Server {
	return &Server{log: log, auth: auth, chat: chat, verifier: verifier, projects: projects}
}

// Router builds the gin engine. The websocket handler is mounted here too so
// one listener serves both delivery paths.
func (s *Server) Router(ws http.HandlerFunc) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	api := router.Group("/api")
	api.POST("/auth/register", s.register)
	api.POST("/auth/login", s.login)

	authed := api.Group("", s.authRequired())
	authed.POST("/projects", s.createProject)
	authed.POST("/projects/:id/contributors", s.addContributor)
	authed.POST("/projects/:id/requests", s.requestContribution)
	authed.GET("/projects/:id/messages", s.history)
	authed.POST("/projects/:id/messages", s.sendMessage)
	authed.GET("/projects/:id/messages/search", s.searchMessages)
	authed.PUT("/messages/:id/read", s.markRead)

	if ws != nil {
		router.GET("/ws", gin.WrapF(ws))
	}
	return router
}

type registerRequest struct {
	Email    string `json:"email" binding:"required"`
	Name     string `json:"name" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (s *Server) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.reject(c, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}
	token, err := s.auth.Register(req.Email, req.Name, req.Password)
	if err != nil {
		s.reject(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"token": token})
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (s *Server) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.reject(c, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}
	token, err := s.auth.Login(req.Email, req.Password)
	if err != nil {
		s.reject(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token})
}

type createProjectRequest struct {
	Title string `json:"title" binding:"required"`
}

func (s *Server) createProject(c *gin.Context) {
	var req createProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.reject(c, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}
	project, err := s.projects.CreateProject(req.Title, identityFrom(c))
	if err != nil {
		s.reject(c, err)
		return
	}
	c.JSON(http.StatusCreated, project)
}

type contributorRequest struct {
	UserID string `json:"userId" binding:"required"`
}

// addContributor accepts a contribution request. Owner only. The acceptance
// is announced in the chat as a system message so live sessions see the
// membership change.
func (s *Server) addContributor(c *gin.Context) {
	var req contributorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.reject(c, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}
	projectID := c.Param("id")
	identity := identityFrom(c)

	project, err := s.projects.GetProject(projectID)
	if err != nil {
		s.reject(c, err)
		return
	}
	if !project.IsOwner(identity) {
		s.reject(c, apperrors.ErrNotAuthorized)
		return
	}
	project, err = s.projects.AddContributor(projectID, req.UserID)
	if err != nil {
		s.reject(c, err)
		return
	}

	if _, err := s.chat.AppendSystem(c.Request.Context(), projectID, identity, "A new contributor joined the project"); err != nil {
		s.log.Warn("system message failed", "project", projectID, "error", err)
	}
	c.JSON(http.StatusOK, project)
}

func (s *Server) requestContribution(c *gin.Context) {
	project, err := s.projects.RequestContribution(c.Param("id"), identityFrom(c))
	if err != nil {
		s.reject(c, err)
		return
	}
	c.JSON(http.StatusOK, project)
}

// history returns the full message log, ascending.
func (s *Server) history(c *gin.Context) {
	messages, err := s.chat.History(c.Param("id"), identityFrom(c), 0)
	if err != nil {
		s.reject(c, err)
		return
	}
	c.JSON(http.StatusOK, messages)
}

type sendMessageRequest struct {
	Content string `json:"content" binding:"required"`
}

// sendMessage appends through the shared chat service, which also broadcasts
// to any live sessions in the room: clients connected to the gateway observe
// sync-API messages without polling.
func (s *Server) sendMessage(c *gin.Context) {
	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.reject(c, fmt.Errorf("%w: %v", apperrors.ErrEmptyContent, err))
		return
	}
	message, err := s.chat.Append(c.Request.Context(), c.Param("id"), identityFrom(c), req.Content)
	if err != nil {
		s.reject(c, err)
		return
	}
	c.JSON(http.StatusCreated, message)
}

func (s *Server) searchMessages(c *gin.Context) {
	hits, err := s.chat.Search(c.Request.Context(), c.Param("id"), identityFrom(c), c.Query("q"))
	if err != nil {
		s.reject(c, err)
		return
	}
	c.JSON(http.StatusOK, hits)
}

func (s *Server) markRead(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		s.reject(c, fmt.Errorf("%w: invalid message id", apperrors.ErrInvalidArgument))
		return
	}
	message, err := s.chat.MarkRead(id, identityFrom(c))
	if err != nil {
		s.reject(c, err)
		return
	}
	c.JSON(http.StatusOK, message)
}

// reject writes the error kind's status and its human-readable reason.
func (s *Server) reject(c *gin.Context, err error) {
	status := apperrors.MapToStatus(err)
	if status == http.StatusInternalServerError {
		s.log.Error("request failed", "path", c.FullPath(), "error", err)
	}
	c.JSON(status, gin.H{"error": apperrors.Reason(err)})
}
