package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/lexvault/lexvault/pkg/document"
	"github.com/lexvault/lexvault/pkg/logging"
)

// GormStore is the PostgreSQL-backed DocumentStore.
type GormStore struct {
	db        *gorm.DB
	collector MetricsCollector
}

// NewGormStore opens a PostgreSQL connection and migrates the document schema.
func NewGormStore(dsn string, collector MetricsCollector) (*GormStore, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	if err := db.AutoMigrate(&document.Document{}, &document.Version{}); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}
	return &GormStore{db: db, collector: collector}, nil
}

func (s *GormStore) CreateDocument(ctx context.Context, doc *document.Document) (err error) {
	defer record(s.collector, "postgres", "create_document", time.Now(), &err)

	if err = doc.Validate(); err != nil {
		return err
	}
	now := time.Now()
	doc.CreatedAt = now
	doc.UpdatedAt = now
	doc.RefreshSearchText()
	return s.db.WithContext(ctx).Create(doc).Error
}

func (s *GormStore) GetDocument(ctx context.Context, id string) (*document.Document, error) {
	var doc document.Document
	err := s.db.WithContext(ctx).First(&doc, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (s *GormStore) ListDocuments(ctx context.Context, filter Filter) ([]*document.Document, error) {
	q := s.db.WithContext(ctx).Order("created_at DESC")
	if filter.CaseID != "" {
		q = q.Where("case_id = ?", filter.CaseID)
	}
	var docs []*document.Document
	if err := q.Find(&docs).Error; err != nil {
		return nil, err
	}
	return docs, nil
}

func (s *GormStore) DeleteDocument(ctx context.Context, id string) (err error) {
	defer record(s.collector, "postgres", "delete_document", time.Now(), &err)

	var versions []*document.Version
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&document.Document{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		if err := tx.Where("document_id = ?", id).Find(&versions).Error; err != nil {
			return err
		}
		return tx.Delete(&document.Version{}, "document_id = ?", id).Error
	})
	if err != nil {
		return err
	}
	// Version files are cascade-deleted with their document.
	for _, v := range versions {
		if rmErr := os.Remove(v.FilePath); rmErr != nil && !os.IsNotExist(rmErr) {
			logger := logging.GetStorageLogger("delete_document", "postgres")
			logger.Warn().
				Err(rmErr).Str("path", v.FilePath).Msg("could not remove version file")
		}
	}
	return nil
}

func (s *GormStore) UpdateDocumentFile(ctx context.Context, id, filePath string) (err error) {
	defer record(s.collector, "postgres", "update_document_file", time.Now(), &err)

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var doc document.Document
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&doc, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		doc.FilePath = filePath
		if err := doc.RefreshFileMetadata(); err != nil {
			return err
		}
		doc.OCRText = ""
		doc.OCRProcessed = false
		doc.OCRError = ""
		doc.UpdatedAt = time.Now()
		doc.RefreshSearchText()
		return tx.Save(&doc).Error
	})
}

func (s *GormStore) Search(ctx context.Context, query string) ([]*document.Document, error) {
	needle := strings.ToLower(strings.TrimSpace(query))
	if needle == "" {
		return nil, nil
	}
	var docs []*document.Document
	err := s.db.WithContext(ctx).
		Where("search_text LIKE ?", "%"+needle+"%").
		Order("created_at DESC").
		Find(&docs).Error
	if err != nil {
		return nil, err
	}
	return docs, nil
}

func (s *GormStore) SetOCRRun(ctx context.Context, id, runID string) error {
	res := s.db.WithContext(ctx).Model(&document.Document{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"ocr_run_id": runID, "updated_at": time.Now()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// PublishExtraction writes the extraction outcome only when runID still matches
// the document's current run token. A stale token is not an error.
func (s *GormStore) PublishExtraction(ctx context.Context, id, runID, text, ocrErr string) (current bool, err error) {
	defer record(s.collector, "postgres", "publish_extraction", time.Now(), &err)

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var doc document.Document
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&doc, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if doc.OCRRunID != runID {
			return nil
		}
		doc.OCRText = text
		doc.OCRProcessed = true
		doc.OCRError = ocrErr
		doc.UpdatedAt = time.Now()
		doc.RefreshSearchText()
		if err := tx.Save(&doc).Error; err != nil {
			return err
		}
		current = true
		return nil
	})
	return current, err
}

// AppendVersion assigns the next version number inside a transaction. The row
// lock on the parent document serializes concurrent appends so numbering stays
// gapless.
func (s *GormStore) AppendVersion(ctx context.Context, v *document.Version) (err error) {
	defer record(s.collector, "postgres", "append_version", time.Now(), &err)

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var doc document.Document
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&doc, "id = ?", v.DocumentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		var max int
		if err := tx.Model(&document.Version{}).
			Where("document_id = ?", v.DocumentID).
			Select("COALESCE(MAX(version_number), 0)").
			Scan(&max).Error; err != nil {
			return err
		}
		v.VersionNumber = max + 1
		if v.UploadedAt.IsZero() {
			v.UploadedAt = time.Now()
		}
		if err := v.Validate(); err != nil {
			return err
		}
		return tx.Create(v).Error
	})
}

func (s *GormStore) ListVersions(ctx context.Context, documentID string) ([]*document.Version, error) {
	var versions []*document.Version
	err := s.db.WithContext(ctx).
		Where("document_id = ?", documentID).
		Order("version_number DESC").
		Find(&versions).Error
	if err != nil {
		return nil, err
	}
	return versions, nil
}

func (s *GormStore) Health(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
