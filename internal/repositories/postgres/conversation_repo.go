package postgres

import (
	"context"

	"github.com/yoockh/yoointerview/internal/models"
	"gorm.io/gorm"
)

type ConversationRepo interface {
	Insert(ctx context.Context, log *models.ConversationLog) error
	ListBySession(ctx context.Context, sessionID string, limit int) ([]models.ConversationLog, error)
}

type conversationRepo struct {
	db *gorm.DB
}

func NewConversationRepo(db *gorm.DB) ConversationRepo {
	return &conversationRepo{db: db}
}

// AutoMigrate creates the conversation_logs table when missing.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&models.ConversationLog{})
}

func (r *conversationRepo) Insert(ctx context.Context, log *models.ConversationLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

// ListBySession returns the turns of a session in conversation order.
func (r *conversationRepo) ListBySession(ctx context.Context, sessionID string, limit int) ([]models.ConversationLog, error) {
	if limit <= 0 {
		limit = 200
	}

	var rows []models.ConversationLog
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("seq ASC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}
