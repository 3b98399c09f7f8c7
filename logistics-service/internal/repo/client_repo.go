package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/director74/cargo_logistics/logistics-service/internal/entity"
)

// ClientRepositoryImpl реализация репозитория клиентов на GORM
type ClientRepositoryImpl struct {
	db *gorm.DB
}

func (r *ClientRepositoryImpl) Create(ctx context.Context, client *entity.Client) error {
	return translate(r.db.WithContext(ctx).Create(client).Error, ErrClientNotFound)
}

func (r *ClientRepositoryImpl) GetByID(ctx context.Context, id uint) (*entity.Client, error) {
	var client entity.Client
	if err := r.db.WithContext(ctx).First(&client, id).Error; err != nil {
		return nil, translate(err, ErrClientNotFound)
	}
	return &client, nil
}

func (r *ClientRepositoryImpl) GetByEmail(ctx context.Context, email string) (*entity.Client, error) {
	var client entity.Client
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&client).Error; err != nil {
		return nil, translate(err, ErrClientNotFound)
	}
	return &client, nil
}

func (r *ClientRepositoryImpl) List(ctx context.Context) ([]entity.Client, error) {
	var clients []entity.Client
	if err := r.db.WithContext(ctx).Order("id").Find(&clients).Error; err != nil {
		return nil, err
	}
	return clients, nil
}
