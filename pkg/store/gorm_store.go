package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
	"knowledgegalaxy/pkg/domain"
)

const migrateLockID int64 = 51807245

// GormStore implements Store using GORM + Postgres.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore opens the DB and runs auto-migrations.
func NewGormStore(dsn string) (*GormStore, error) {
	gormLog := gormlogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormlogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: gormLog})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := withMigrationLock(db, func(tx *gorm.DB) error {
		if err := tx.AutoMigrate(&DocumentModel{}, &UserModel{}, &RatingModel{}, &ActivityModel{}); err != nil {
			return fmt.Errorf("auto migrate: %w", err)
		}
		return nil
	}); err != nil {
		return nil, err
	}
	return &GormStore{db: db}, nil
}

func withMigrationLock(db *gorm.DB, fn func(*gorm.DB) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("get sql db: %w", err)
	}
	conn, err := sqlDB.Conn(ctx)
	if err != nil {
		return fmt.Errorf("open sql conn: %w", err)
	}
	defer conn.Close()
	if err := execAdvisory(ctx, conn, "SELECT pg_advisory_lock($1)", migrateLockID); err != nil {
		return fmt.Errorf("acquire migrate lock: %w", err)
	}
	defer func() {
		_ = execAdvisory(ctx, conn, "SELECT pg_advisory_unlock($1)", migrateLockID)
	}()
	return fn(db)
}

func execAdvisory(ctx context.Context, conn *sql.Conn, query string, lockID int64) error {
	_, err := conn.ExecContext(ctx, query, lockID)
	return err
}

// InsertDocument stores a new document ahead of every existing one.
func (s *GormStore) InsertDocument(d domain.Document) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&DocumentModel{}).Where("id = ?", d.ID).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrDuplicateID
		}
		var top sql.NullInt64
		if err := tx.Model(&DocumentModel{}).Select("MAX(position)").Scan(&top).Error; err != nil {
			return err
		}
		model, err := documentToModel(d)
		if err != nil {
			return err
		}
		model.Position = top.Int64 + 1
		return tx.Create(&model).Error
	})
}

func (s *GormStore) GetDocument(id string) (domain.Document, bool, error) {
	var model DocumentModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Document{}, false, nil
		}
		return domain.Document{}, false, err
	}
	return documentFromModel(model), true, nil
}

func (s *GormStore) ListDocuments() ([]domain.Document, error) {
	var models []DocumentModel
	if err := s.db.Order("position DESC").Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.Document, 0, len(models))
	for _, m := range models {
		res = append(res, documentFromModel(m))
	}
	return res, nil
}

// MutateDocument locks the row, applies fn and writes the result back in one transaction.
func (s *GormStore) MutateDocument(id string, fn MutateFunc) (domain.Document, bool, error) {
	var (
		out   domain.Document
		found bool
	)
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var model DocumentModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&model, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}
		found = true
		doc := documentFromModel(model)
		if err := fn(&doc); err != nil {
			return err
		}
		doc.ID = model.ID
		if err := saveDocumentRow(tx, doc, model.Position); err != nil {
			return err
		}
		out = doc
		return nil
	})
	if err != nil {
		return domain.Document{}, found, err
	}
	return out, found, nil
}

func (s *GormStore) RecordRating(docID, userID string, score float64, fn RatingFunc) (domain.Document, bool, error) {
	var (
		out   domain.Document
		found bool
	)
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var model DocumentModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&model, "id = ?", docID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}
		found = true

		var previous RatingModel
		had := true
		if err := tx.First(&previous, "document_id = ? AND user_id = ?", docID, userID).Error; err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			had = false
		}

		doc := documentFromModel(model)
		if err := fn(&doc, previous.Score, had); err != nil {
			return err
		}
		if err := saveDocumentRow(tx, doc, model.Position); err != nil {
			return err
		}
		rating := RatingModel{DocumentID: docID, UserID: userID, Score: score, UpdatedAt: doc.UpdatedAt}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "document_id"}, {Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"score", "updated_at"}),
		}).Create(&rating).Error; err != nil {
			return err
		}
		out = doc
		return nil
	})
	if err != nil {
		return domain.Document{}, found, err
	}
	return out, found, nil
}

func (s *GormStore) DeleteDocument(id string) (bool, error) {
	var deleted int64
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&RatingModel{}, "document_id = ?", id).Error; err != nil {
			return err
		}
		res := tx.Delete(&DocumentModel{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		deleted = res.RowsAffected
		return nil
	})
	if err != nil {
		return false, err
	}
	return deleted > 0, nil
}

// SaveUser registers or updates a user.
func (s *GormStore) SaveUser(u domain.User) error {
	model, err := userToModel(u)
	if err != nil {
		return err
	}
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"username", "name", "email", "avatar", "role", "department", "permissions", "badges"}),
	}).Create(&model).Error
}

func (s *GormStore) GetUserByID(id string) (domain.User, bool, error) {
	return s.findUser("id = ?", id)
}

func (s *GormStore) GetUserByUsername(username string) (domain.User, bool, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return domain.User{}, false, nil
	}
	return s.findUser("LOWER(username) = LOWER(?)", username)
}

func (s *GormStore) findUser(query string, arg any) (domain.User, bool, error) {
	var model UserModel
	if err := s.db.Where(query, arg).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.User{}, false, nil
		}
		return domain.User{}, false, err
	}
	return userFromModel(model), true, nil
}

func (s *GormStore) AppendActivity(a domain.Activity) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var top sql.NullInt64
		if err := tx.Model(&ActivityModel{}).Select("MAX(seq)").Scan(&top).Error; err != nil {
			return err
		}
		model := activityToModel(a)
		model.Seq = top.Int64 + 1
		return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&model).Error
	})
}

func (s *GormStore) ListActivities() ([]domain.Activity, error) {
	var models []ActivityModel
	if err := s.db.Order("seq ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.Activity, 0, len(models))
	for _, m := range models {
		res = append(res, activityFromModel(m))
	}
	return res, nil
}

func saveDocumentRow(tx *gorm.DB, doc domain.Document, position int64) error {
	model, err := documentToModel(doc)
	if err != nil {
		return err
	}
	model.Position = position
	return tx.Save(&model).Error
}

func documentToModel(d domain.Document) (DocumentModel, error) {
	comments := d.Comments
	if comments == nil {
		comments = []domain.Comment{}
	}
	rawComments, err := json.Marshal(comments)
	if err != nil {
		return DocumentModel{}, fmt.Errorf("encode comments: %w", err)
	}
	return DocumentModel{
		ID:           d.ID,
		Title:        d.Title,
		Content:      d.Content,
		Summary:      d.Summary,
		Tags:         d.Tags,
		Author:       d.Author,
		AuthorID:     d.AuthorID,
		Department:   d.Department,
		Visibility:   string(d.Visibility),
		Rating:       d.Rating,
		TotalRatings: d.TotalRatings,
		Views:        d.Views,
		FileType:     string(d.FileType),
		FileName:     d.FileName,
		FileSize:     d.FileSize,
		Comments:     rawComments,
		CreatedAt:    d.CreatedAt.UTC(),
		UpdatedAt:    d.UpdatedAt.UTC(),
	}, nil
}

func documentFromModel(m DocumentModel) domain.Document {
	comments := []domain.Comment{}
	if len(m.Comments) > 0 {
		_ = json.Unmarshal(m.Comments, &comments)
	}
	return domain.Document{
		ID:           m.ID,
		Title:        m.Title,
		Content:      m.Content,
		Summary:      m.Summary,
		Tags:         append([]string{}, m.Tags...),
		Author:       m.Author,
		AuthorID:     m.AuthorID,
		Department:   m.Department,
		Visibility:   domain.Visibility(m.Visibility),
		Rating:       m.Rating,
		TotalRatings: m.TotalRatings,
		Views:        m.Views,
		FileType:     domain.FileType(m.FileType),
		FileName:     m.FileName,
		FileSize:     m.FileSize,
		Comments:     comments,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

func userToModel(u domain.User) (UserModel, error) {
	rawBadges, err := json.Marshal(u.Badges)
	if err != nil {
		return UserModel{}, fmt.Errorf("encode badges: %w", err)
	}
	return UserModel{
		ID:          u.ID,
		Username:    u.Username,
		Name:        u.Name,
		Email:       u.Email,
		Avatar:      u.Avatar,
		Role:        u.Role,
		Department:  u.Department,
		Permissions: u.Permissions,
		Badges:      rawBadges,
	}, nil
}

func userFromModel(m UserModel) domain.User {
	var badges []domain.Badge
	if len(m.Badges) > 0 {
		_ = json.Unmarshal(m.Badges, &badges)
	}
	return domain.User{
		ID:          m.ID,
		Username:    m.Username,
		Name:        m.Name,
		Email:       m.Email,
		Avatar:      m.Avatar,
		Role:        m.Role,
		Department:  m.Department,
		Permissions: append([]string(nil), m.Permissions...),
		Badges:      badges,
	}
}

func activityToModel(a domain.Activity) ActivityModel {
	return ActivityModel{
		ID:        a.ID,
		UserID:    a.UserID,
		UserName:  a.User,
		Action:    a.Action,
		Target:    a.Target,
		TargetID:  a.TargetID,
		Type:      string(a.Type),
		Timestamp: a.Timestamp.UTC(),
	}
}

func activityFromModel(m ActivityModel) domain.Activity {
	return domain.Activity{
		ID:        m.ID,
		UserID:    m.UserID,
		User:      m.UserName,
		Action:    m.Action,
		Target:    m.Target,
		TargetID:  m.TargetID,
		Type:      domain.ActivityType(m.Type),
		Timestamp: m.Timestamp,
	}
}
