package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/user/moviesdb/internal/apperr"
	"github.com/user/moviesdb/internal/middleware"
	"github.com/user/moviesdb/internal/repository"
	"github.com/user/moviesdb/internal/utils"
)

type rateRequest struct {
	MovieID    *int    `json:"movie_id" binding:"required,gt=0"`
	Score      *int    `json:"score" binding:"required,min=1,max=10"`
	Title      *string `json:"title"`
	PosterPath *string `json:"poster_path"`
}

// ListRatings 当前用户的评分列表
func (h *Handler) ListRatings(c *gin.Context) {
	ratings, err := h.Repos.Rating.ListByUser(middleware.GetUserID(c))
	if err != nil {
		utils.Fail(c, apperr.Persistence(err))
		return
	}
	c.JSON(http.StatusOK, ratings)
}

// Rate 新增或更新评分
func (h *Handler) Rate(c *gin.Context) {
	var req rateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Fail(c, bindError(err, "movie_id and score are required"))
		return
	}

	rating, err := h.Repos.Rating.Upsert(repository.RateInput{
		UserID:     middleware.GetUserID(c),
		MovieID:    *req.MovieID,
		Score:      *req.Score,
		Title:      req.Title,
		PosterPath: req.PosterPath,
	})
	if err != nil {
		utils.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "rating saved",
		"rating":  rating,
	})
}

// DeleteRating 删除当前用户对某部电影的评分
func (h *Handler) DeleteRating(c *gin.Context) {
	movieID, err := parseMovieID(c)
	if err != nil {
		utils.Fail(c, err)
		return
	}

	if err := h.Repos.Rating.Remove(middleware.GetUserID(c), movieID); err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Message(c, http.StatusOK, "rating removed")
}
