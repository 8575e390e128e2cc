// internal/services/helpers.go
package services

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/javajoker/curated-market/internal/apperrors"
	"github.com/javajoker/curated-market/internal/utils"
)

var forUpdate = clause.Locking{Strength: "UPDATE"}

func validateRequest(req interface{}) error {
	if err := utils.ValidateStruct(req); err != nil {
		return &apperrors.Error{Kind: apperrors.KindValidation, Message: "validation failed", Err: err}
	}
	return nil
}

func notFoundOr(err error, resource string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.NotFound(resource)
	}
	return err
}

func findByID(db *gorm.DB, dest interface{}, id uuid.UUID, resource string) error {
	return notFoundOr(db.First(dest, "id = ?", id).Error, resource)
}

// lockByID loads a row with SELECT ... FOR UPDATE; tx must be a transaction.
func lockByID(tx *gorm.DB, dest interface{}, id uuid.UUID, resource string) error {
	return notFoundOr(tx.Clauses(forUpdate).First(dest, "id = ?", id).Error, resource)
}

// userRelations name associations that load another user's row.
var userRelations = map[string]bool{
	"Seller":   true,
	"Curator":  true,
	"Customer": true,
}

// publicUserColumns keeps contact details and balances out of preloaded users.
func publicUserColumns(db *gorm.DB) *gorm.DB {
	return db.Select("id", "username", "role", "profile_data", "created_at", "updated_at")
}

// preload loads an association, limiting user relations to their public columns.
func preload(db *gorm.DB, relation string) *gorm.DB {
	if userRelations[relation] {
		return db.Preload(relation, publicUserColumns)
	}
	return db.Preload(relation)
}

// paginate counts and fetches one page. Preloads are applied to the fetch only,
// since gorm refuses Count with Preload.
func paginate(query *gorm.DB, params utils.PaginationParams, sortFields []string, dest interface{}, preloads ...string) (int64, error) {
	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return 0, err
	}

	find := utils.ApplySort(query, params, sortFields)
	for _, relation := range preloads {
		find = preload(find, relation)
	}
	if err := utils.ApplyPagination(find, params).Find(dest).Error; err != nil {
		return 0, err
	}
	return total, nil
}
