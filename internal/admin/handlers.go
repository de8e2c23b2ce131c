package admin

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"time"

	"estate-chatbot/internal/auth"
	"estate-chatbot/internal/config"
	"estate-chatbot/internal/leads"
	"estate-chatbot/internal/store"
	"estate-chatbot/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Handler serves the operator API: login plus direct lead access. Manual
// updates are not bound by the terminal-status rule that gates automated
// classification, so sales can reopen a converted or lost lead.
type Handler struct {
	Auth  *auth.Manager
	Cfg   config.AuthConfig
	Store store.Store

	Now func() time.Time
}

func (h Handler) Register(r gin.IRouter) {
	g := r.Group("/api/admin")
	g.POST("/login", h.Login)

	protected := g.Group("", auth.RequireAccessToken(h.Auth))
	protected.GET("/leads/:id", h.GetLead)
	protected.PATCH("/leads/:id", h.UpdateLead)
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type loginResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

func (h Handler) Login(c *gin.Context) {
	log := logger.FromGin(c)

	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "username and password required"})
		return
	}

	userOK := subtle.ConstantTimeCompare([]byte(req.Username), []byte(h.Cfg.AdminUser)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(req.Password), []byte(h.Cfg.AdminPassword)) == 1
	if h.Cfg.AdminUser == "" || !userOK || !passOK {
		log.Warn("admin login rejected", "username", req.Username)
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	now := time.Now()
	if h.Now != nil {
		now = h.Now()
	}
	pair, err := h.Auth.IssuePair(now, req.Username, "admin")
	if err != nil {
		log.Error("token issue failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "token issue failed"})
		return
	}

	log.Info("admin login", "username", req.Username)
	c.JSON(http.StatusOK, loginResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

func (h Handler) GetLead(c *gin.Context) {
	id := c.Param("id")

	var lead *leads.Lead
	err := h.Store.InTurn(c.Request.Context(), func(ctx context.Context, tx store.Tx) error {
		var err error
		lead, err = tx.LeadByID(ctx, id)
		return err
	})
	if errors.Is(err, store.ErrNotFound) {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "lead not found"})
		return
	}
	if err != nil {
		logger.FromGin(c).Error("lead lookup failed", "lead_id", id, "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}

	c.JSON(http.StatusOK, lead)
}

type leadUpdateRequest struct {
	Status *string `json:"status"`
	Notes  *string `json:"notes"`
	Name   *string `json:"name"`
	Phone  *string `json:"phone"`
}

func (h Handler) UpdateLead(c *gin.Context) {
	log := logger.FromGin(c)
	id := c.Param("id")

	var req leadUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	if req.Status != nil && !leads.Status(*req.Status).Valid() {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid status value"})
		return
	}

	var updated *leads.Lead
	err := h.Store.InTurn(c.Request.Context(), func(ctx context.Context, tx store.Tx) error {
		lead, err := tx.LeadByID(ctx, id)
		if err != nil {
			return err
		}

		if req.Status != nil {
			lead.Status = leads.Status(*req.Status)
		}
		if req.Notes != nil {
			lead.Notes = *req.Notes
		}
		if req.Name != nil {
			lead.Name = *req.Name
		}
		if req.Phone != nil {
			lead.Phone = *req.Phone
		}

		if err := tx.SaveLead(ctx, lead); err != nil {
			return err
		}
		updated = lead
		return nil
	})
	if errors.Is(err, store.ErrNotFound) {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "lead not found"})
		return
	}
	if err != nil {
		log.Error("lead update failed", "lead_id", id, "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}

	log.Info("lead updated manually", "lead_id", id)
	c.JSON(http.StatusOK, updated)
}
