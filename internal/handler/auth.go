package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/user/moviesdb/internal/apperr"
	"github.com/user/moviesdb/internal/utils"
	"go.uber.org/zap"
)

type credentials struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Register 注册
func (h *Handler) Register(c *gin.Context) {
	var req credentials
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.FailAuth(c, apperr.Validation("username and password are required"))
		return
	}

	user, err := h.Repos.User.Create(req.Username, req.Password)
	if err != nil {
		utils.FailAuth(c, err)
		return
	}

	h.Logger.Info("user registered", zap.Int("user_id", user.ID))
	utils.Message(c, http.StatusCreated, "user created")
}

// Login 登录，返回令牌
func (h *Handler) Login(c *gin.Context) {
	var req credentials
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.FailAuth(c, apperr.Validation("username and password are required"))
		return
	}

	user, err := h.Repos.User.Verify(req.Username, req.Password)
	if err != nil {
		utils.FailAuth(c, apperr.Persistence(err))
		return
	}
	if user == nil {
		utils.FailAuth(c, apperr.Auth("invalid username or password", nil))
		return
	}

	token, err := h.Tokens.Issue(user.ID)
	if err != nil {
		utils.FailAuth(c, apperr.Internal("could not issue token", err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":    token,
		"username": user.Username,
	})
}
