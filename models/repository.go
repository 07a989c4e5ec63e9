package models

import (
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
)

// Repository bundles the database handle and logger that every catalog
// operation runs against. It is constructed once in main and injected, so
// tests can point the same code at a throwaway database.
type Repository struct {
	db     *gorm.DB
	logger *logrus.Logger
	tracer trace.Tracer
}

func NewRepository(db *gorm.DB, logger *logrus.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
		tracer: otel.Tracer("catalog-models"),
	}
}
