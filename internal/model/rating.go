package model

import (
	"time"
)

// UntitledMovie 客户端未提供标题时写入的占位标题
const UntitledMovie = "Untitled"

// Rating 用户对某部电影的评分，(user_id, movie_id) 唯一
type Rating struct {
	ID         int       `json:"-" db:"id" gorm:"primaryKey"`
	UserID     int       `json:"-" db:"user_id" gorm:"not null;uniqueIndex:idx_ratings_user_movie"`
	MovieID    int       `json:"movie_id" db:"movie_id" gorm:"not null;uniqueIndex:idx_ratings_user_movie"`
	Title      string    `json:"title" db:"title" gorm:"size:255;not null"`
	PosterPath string    `json:"poster_path" db:"poster_path" gorm:"size:255"`
	Score      int       `json:"score" db:"score" gorm:"not null"`
	CreatedAt  time.Time `json:"-" db:"created_at"`
	UpdatedAt  time.Time `json:"-" db:"updated_at"`

	User *User `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

func (Rating) TableName() string {
	return "ratings"
}
