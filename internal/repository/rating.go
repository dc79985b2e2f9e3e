package repository

import (
	"errors"
	"time"

	"github.com/user/moviesdb/internal/apperr"
	"github.com/user/moviesdb/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RatingRepository struct {
	db *gorm.DB
}

func NewRatingRepository(db *gorm.DB) *RatingRepository {
	return &RatingRepository{db: db}
}

// RateInput 评分写入参数，Title/PosterPath 只在首次插入时使用
type RateInput struct {
	UserID     int
	MovieID    int
	Score      int
	Title      *string
	PosterPath *string
}

// ListByUser 列出用户的全部评分
func (r *RatingRepository) ListByUser(userID int) ([]*model.Rating, error) {
	records := make([]*model.Rating, 0)
	err := r.db.Where("user_id = ?", userID).
		Order("updated_at DESC").
		Find(&records).Error
	return records, err
}

// Upsert 按 (user_id, movie_id) 插入或更新评分。
// 已存在时只覆盖 score，标题和海报保持首次写入的值。
func (r *RatingRepository) Upsert(in RateInput) (*model.Rating, error) {
	now := time.Now()
	rec := &model.Rating{
		UserID:    in.UserID,
		MovieID:   in.MovieID,
		Title:     model.UntitledMovie,
		Score:     in.Score,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if in.Title != nil && *in.Title != "" {
		rec.Title = *in.Title
	}
	if in.PosterPath != nil {
		rec.PosterPath = *in.PosterPath
	}

	var saved model.Rating
	err := r.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "movie_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"score", "updated_at"}),
		}).Create(rec).Error
		if err != nil {
			return err
		}
		return tx.Where("user_id = ? AND movie_id = ?", in.UserID, in.MovieID).First(&saved).Error
	})
	if err != nil {
		return nil, apperr.Persistence(err)
	}
	return &saved, nil
}

// Remove 删除用户自己的评分，不存在时返回 NotFound
func (r *RatingRepository) Remove(userID, movieID int) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Where("user_id = ? AND movie_id = ?", userID, movieID).Delete(&model.Rating{})
		if res.Error != nil {
			return apperr.Persistence(res.Error)
		}
		if res.RowsAffected == 0 {
			return apperr.NotFound("rating not found")
		}
		return nil
	})
	return err
}

// GetByUserAndMovie 查询单条评分，不存在返回 nil, nil
func (r *RatingRepository) GetByUserAndMovie(userID, movieID int) (*model.Rating, error) {
	var rec model.Rating
	err := r.db.Where("user_id = ? AND movie_id = ?", userID, movieID).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}
