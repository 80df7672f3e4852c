package repository

import (
	"context"

	"bizledger/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ConnectionRepository is the credential store for the accounting API, keyed by user
type ConnectionRepository interface {
	GetByUserID(ctx context.Context, userID uuid.UUID) (*model.MoneybirdConnection, error)
	Upsert(ctx context.Context, conn *model.MoneybirdConnection) error
	DeleteByUserID(ctx context.Context, userID uuid.UUID) (bool, error)
}

type connectionRepository struct {
	db *gorm.DB
}

func NewConnectionRepository(db *gorm.DB) ConnectionRepository {
	return &connectionRepository{db: db}
}

func (r *connectionRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*model.MoneybirdConnection, error) {
	var conn model.MoneybirdConnection
	if err := dbFrom(ctx, r.db).First(&conn, "user_id = ?", userID).Error; err != nil {
		return nil, notFound(err)
	}
	return &conn, nil
}

// Upsert inserts the connection or replaces the token and administration of the existing one
func (r *connectionRepository) Upsert(ctx context.Context, conn *model.MoneybirdConnection) error {
	return dbFrom(ctx, r.db).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"access_token", "administration_id", "administration_name", "updated_at"}),
	}).Create(conn).Error
}

func (r *connectionRepository) DeleteByUserID(ctx context.Context, userID uuid.UUID) (bool, error) {
	res := dbFrom(ctx, r.db).Where("user_id = ?", userID).Delete(&model.MoneybirdConnection{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
