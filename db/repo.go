package db

import (
	"context"
	"strings"
	"time"

	"toolhub/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repo struct{ DB *gorm.DB }

func NewRepo(db *gorm.DB) *Repo { return &Repo{DB: db} }

// Actor 每个需要鉴权分支的操作都带上；isAdmin 由会话层给出，引擎只当输入用
type Actor struct {
	UserID  string
	IsAdmin bool
}

// lockForUpdate 行锁。测试用的 SQLite 没有 FOR UPDATE，写本来就串行。
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}

// Users

func (r *Repo) TouchUserLogin(ctx context.Context, userID string) error {
	now := time.Now().UTC()
	return r.DB.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"last_login_at": now,
			"last_seen_at":  now,
			"login_count":   gorm.Expr("COALESCE(login_count, 0) + 1"),
		}).Error
}

func (r *Repo) TouchUserSeen(ctx context.Context, userID string) error {
	return r.DB.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		Update("last_seen_at", time.Now().UTC()).Error
}

func (r *Repo) FindUserByID(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	if err := r.DB.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *Repo) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var u models.User
	if err := r.DB.WithContext(ctx).Where("username = ?", username).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *Repo) CreateUser(ctx context.Context, u *models.User) error {
	return r.DB.WithContext(ctx).Create(u).Error
}

type ListUsersResult struct {
	Users []models.User `json:"users"`
	Total int64         `json:"total"`
}

// 列表（分页 + 关键词，关键词匹配用户名/显示名）
func (r *Repo) ListUsers(ctx context.Context, q string, page, size int) (ListUsersResult, error) {
	if page <= 0 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 20
	}

	tx := r.DB.WithContext(ctx).Model(&models.User{})
	if q = strings.TrimSpace(q); q != "" {
		like := "%" + strings.ToLower(q) + "%"
		tx = tx.Where("LOWER(username) LIKE ? OR LOWER(display_name) LIKE ?", like, like)
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return ListUsersResult{}, err
	}

	var users []models.User
	if err := tx.
		Order("created_at DESC").
		Offset((page - 1) * size).
		Limit(size).
		Find(&users).Error; err != nil {
		return ListUsersResult{}, err
	}
	return ListUsersResult{Users: users, Total: total}, nil
}

// People

func (r *Repo) CreatePerson(ctx context.Context, p *models.Person) error {
	return r.DB.WithContext(ctx).Create(p).Error
}

func (r *Repo) ListPeople(ctx context.Context) ([]models.Person, error) {
	var ps []models.Person
	err := r.DB.WithContext(ctx).Order("name ASC").Find(&ps).Error
	return ps, err
}

// Locations

func (r *Repo) CreateLocation(ctx context.Context, l *models.Location) error {
	return r.DB.WithContext(ctx).Create(l).Error
}

func (r *Repo) ListLocations(ctx context.Context) ([]models.Location, error) {
	var ls []models.Location
	err := r.DB.WithContext(ctx).Order("name ASC").Find(&ls).Error
	return ls, err
}

func (r *Repo) GrantLocation(ctx context.Context, userID, locationID string) error {
	return r.DB.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.UserLocation{UserID: userID, LocationID: locationID}).Error
}

func (r *Repo) RevokeLocation(ctx context.Context, userID, locationID string) error {
	return r.DB.WithContext(ctx).
		Where("user_id = ? AND location_id = ?", userID, locationID).
		Delete(&models.UserLocation{}).Error
}

// AuthorizedLocationIDs 非管理员可操作的地点集合
func (r *Repo) AuthorizedLocationIDs(ctx context.Context, userID string) ([]string, error) {
	var ids []string
	err := r.DB.WithContext(ctx).Model(&models.UserLocation{}).
		Where("user_id = ?", userID).
		Pluck("location_id", &ids).Error
	return ids, err
}

func (r *Repo) IsAuthorizedForLocation(ctx context.Context, userID, locationID string) (bool, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&models.UserLocation{}).
		Where("user_id = ? AND location_id = ?", userID, locationID).
		Count(&n).Error
	return n > 0, err
}
