package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/crushapp/crush-server/internal/db"
)

// UserRepository provides read access to user profile records. Profile
// writes (onboarding, photos) belong to the profile subsystem; this service
// only updates the derived location name.
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(database *gorm.DB) *UserRepository {
	return &UserRepository{db: database}
}

// Get returns the user or gorm.ErrRecordNotFound.
func (r *UserRepository) Get(ctx context.Context, id uint64) (*db.User, error) {
	var user db.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// Exists reports whether a user row exists for id.
func (r *UserRepository) Exists(ctx context.Context, id uint64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.User{}).
		Where("id = ?", id).
		Count(&count).Error
	return count > 0, err
}

// GetByIDs bulk-fetches users, keyed by id. Missing ids are simply absent
// from the map; callers decide whether that is an error. This single query
// is what lets the batch ingestor avoid per-item round trips.
func (r *UserRepository) GetByIDs(ctx context.Context, ids []uint64) (map[uint64]*db.User, error) {
	users := make(map[uint64]*db.User, len(ids))
	if len(ids) == 0 {
		return users, nil
	}

	var rows []db.User
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for i := range rows {
		users[rows[i].ID] = &rows[i]
	}
	return users, nil
}

// UpdateLocationName stores the reverse-geocoded place name on the profile.
func (r *UserRepository) UpdateLocationName(ctx context.Context, id uint64, name string) error {
	return r.db.WithContext(ctx).
		Model(&db.User{}).
		Where("id = ?", id).
		Update("location_name", name).Error
}

// MarkDeleted soft-deletes the profile. The row stays so existing matches
// and swipe history keep their referents; feeds and liker lists filter on
// the flag. Reports whether a live row was flipped.
func (r *UserRepository) MarkDeleted(ctx context.Context, id uint64) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&db.User{}).
		Where("id = ? AND deleted = ?", id, false).
		Update("deleted", true)
	return res.RowsAffected > 0, res.Error
}
