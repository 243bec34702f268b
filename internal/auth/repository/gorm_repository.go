package repository

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tair/supply-dashboard/internal/auth/domain"
)

var tracer = otel.Tracer("preference-repository")

// GormPreferenceRepository implements PreferenceRepository using GORM
type GormPreferenceRepository struct {
	db *gorm.DB
}

// NewGormPreferenceRepository creates a new GORM preference repository
func NewGormPreferenceRepository(db *gorm.DB) *GormPreferenceRepository {
	return &GormPreferenceRepository{db: db}
}

// Migrate creates or updates the preferences table
func (r *GormPreferenceRepository) Migrate() error {
	if err := r.db.AutoMigrate(&domain.Preference{}); err != nil {
		return fmt.Errorf("failed to migrate preferences: %w", err)
	}
	return nil
}

// Find retrieves the preference stored for a browser
func (r *GormPreferenceRepository) Find(ctx context.Context, clientID string) (*domain.Preference, error) {
	ctx, span := tracer.Start(ctx, "repository.FindPreference",
		trace.WithAttributes(attribute.String("client.id", clientID)),
	)
	defer span.End()

	var pref domain.Preference
	if err := r.db.WithContext(ctx).Where("client_id = ?", clientID).First(&pref).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrPreferenceNotFound
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to find preference: %w", err)
	}
	return &pref, nil
}

// Save inserts or replaces the preference for a browser
func (r *GormPreferenceRepository) Save(ctx context.Context, pref *domain.Preference) error {
	ctx, span := tracer.Start(ctx, "repository.SavePreference",
		trace.WithAttributes(
			attribute.String("client.id", pref.ClientID),
			attribute.Bool("preference.remember_me", pref.RememberMe),
		),
	)
	defer span.End()

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "client_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"remembered_email", "remember_me", "updated_at"}),
	}).Create(pref).Error
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to save preference: %w", err)
	}
	return nil
}

// Delete removes the preference for a browser
func (r *GormPreferenceRepository) Delete(ctx context.Context, clientID string) error {
	ctx, span := tracer.Start(ctx, "repository.DeletePreference",
		trace.WithAttributes(attribute.String("client.id", clientID)),
	)
	defer span.End()

	if err := r.db.WithContext(ctx).Delete(&domain.Preference{}, "client_id = ?", clientID).Error; err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to delete preference: %w", err)
	}
	return nil
}
