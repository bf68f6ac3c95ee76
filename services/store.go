package services

import (
	"context"
	"errors"
	"fmt"

	"research-verifier/models"

	"gorm.io/gorm"
)

// MessageStore reads the conversation side of the pipeline.
type MessageStore interface {
	// OwnedMessage returns ErrNotFound when the message is missing or its
	// conversation belongs to another user.
	OwnedMessage(ctx context.Context, messageID, userID uint) (*models.Message, error)
	// History returns the conversation up to and including msg, oldest first.
	History(ctx context.Context, msg *models.Message) ([]models.Message, error)
}

// ProfileStore holds the per-user LLM credential.
type ProfileStore interface {
	APIKey(ctx context.Context, userID uint) (string, error)
	SetAPIKey(ctx context.Context, userID uint, key string) error
}

// VerificationStore persists message verifications.
type VerificationStore interface {
	LatestForMessage(ctx context.Context, messageID uint) (*models.MessageVerification, error)
	Get(ctx context.Context, id uint) (*models.MessageVerification, error)
	Create(ctx context.Context, mv *models.MessageVerification) error
}

// GormStore implements the stores on one database handle.
type GormStore struct {
	DB *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{DB: db}
}

func (s *GormStore) OwnedMessage(ctx context.Context, messageID, userID uint) (*models.Message, error) {
	var msg models.Message
	err := s.DB.WithContext(ctx).
		Joins("JOIN conversations ON conversations.id = messages.conversation_id").
		Where("messages.id = ? AND conversations.user_id = ?", messageID, userID).
		First(&msg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, persistenceErr("load message", err)
	}
	return &msg, nil
}

func (s *GormStore) History(ctx context.Context, msg *models.Message) ([]models.Message, error) {
	var out []models.Message
	err := s.DB.WithContext(ctx).
		Where("conversation_id = ?", msg.ConversationID).
		Where("created_at < ? OR (created_at = ? AND id <= ?)", msg.CreatedAt, msg.CreatedAt, msg.ID).
		Order("created_at ASC, id ASC").
		Find(&out).Error
	if err != nil {
		return nil, persistenceErr("load history", err)
	}
	return out, nil
}

func (s *GormStore) APIKey(ctx context.Context, userID uint) (string, error) {
	var user models.User
	err := s.DB.WithContext(ctx).Select("id", "openai_api_key").First(&user, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", fmt.Errorf("%w: user not found", ErrNotFound)
	}
	if err != nil {
		return "", persistenceErr("load api key", err)
	}
	return user.OpenAIAPIKey, nil
}

// SetAPIKey stores key for the user; an empty key clears it.
func (s *GormStore) SetAPIKey(ctx context.Context, userID uint, key string) error {
	res := s.DB.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Update("openai_api_key", key)
	if res.Error != nil {
		return persistenceErr("update api key", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: user not found", ErrNotFound)
	}
	return nil
}

// LatestForMessage returns the newest verification of a message, or nil.
func (s *GormStore) LatestForMessage(ctx context.Context, messageID uint) (*models.MessageVerification, error) {
	var mv models.MessageVerification
	err := s.DB.WithContext(ctx).
		Preload("PaperVerifications", func(db *gorm.DB) *gorm.DB { return db.Order("paper_index ASC") }).
		Where("message_id = ?", messageID).
		Order("created_at DESC, id DESC").
		First(&mv).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, persistenceErr("load verification", err)
	}
	return &mv, nil
}

func (s *GormStore) Get(ctx context.Context, id uint) (*models.MessageVerification, error) {
	var mv models.MessageVerification
	err := s.DB.WithContext(ctx).
		Preload("PaperVerifications", func(db *gorm.DB) *gorm.DB { return db.Order("paper_index ASC") }).
		First(&mv, id).Error
	if err != nil {
		return nil, persistenceErr("reload verification", err)
	}
	return &mv, nil
}

// Create inserts the verification and its paper rows in one transaction.
func (s *GormStore) Create(ctx context.Context, mv *models.MessageVerification) error {
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		papers := mv.PaperVerifications
		mv.PaperVerifications = nil
		if err := tx.Create(mv).Error; err != nil {
			return err
		}
		for i := range papers {
			papers[i].VerificationID = mv.ID
		}
		if len(papers) > 0 {
			if err := tx.Create(&papers).Error; err != nil {
				return err
			}
		}
		mv.PaperVerifications = papers
		return nil
	})
	if err != nil {
		return persistenceErr("save verification", err)
	}
	return nil
}
