package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/NoorShal/lamma-backend-test/internal/model"
	"github.com/NoorShal/lamma-backend-test/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// AttributeMode selects how the registry reacts to a persistence failure.
type AttributeMode string

const (
	// AttributeModeTolerant logs the failure and drops the attribute; the
	// enclosing product write continues.
	AttributeModeTolerant AttributeMode = "tolerant"
	// AttributeModeStrict returns the failure, aborting the enclosing transaction.
	AttributeModeStrict AttributeMode = "strict"
)

func ParseAttributeMode(s string) (AttributeMode, error) {
	switch m := AttributeMode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return AttributeModeTolerant, nil
	case AttributeModeTolerant, AttributeModeStrict:
		return m, nil
	default:
		return "", fmt.Errorf("unknown attribute failure mode %q", s)
	}
}

// AttributeRegistry maps attribute names to their shared definitions,
// normalizing names so "Size" and " size " resolve to one row.
type AttributeRegistry struct {
	repo repository.AttributeRepository
	mode AttributeMode
}

func NewAttributeRegistry(repo repository.AttributeRepository, mode AttributeMode) *AttributeRegistry {
	if mode == "" {
		mode = AttributeModeTolerant
	}
	return &AttributeRegistry{repo: repo, mode: mode}
}

func (r *AttributeRegistry) Mode() AttributeMode { return r.mode }

// FindOrCreate returns the definition id for name together with the trimmed
// value. Blank input is a *ValidationError in every mode. A persistence
// failure is returned as is in strict mode and as ErrAttributeSkipped in
// tolerant mode.
func (r *AttributeRegistry) FindOrCreate(ctx context.Context, tx *gorm.DB, name, value string) (uuid.UUID, string, error) {
	normalized := model.NormalizeAttributeName(name)
	trimmed := strings.TrimSpace(value)

	fields := map[string]string{}
	if normalized == "" {
		fields["name"] = "required"
	}
	if trimmed == "" {
		fields["value"] = "required"
	}
	if len(fields) > 0 {
		return uuid.Nil, "", NewValidationError(fields)
	}

	def, err := r.lookup(tx, normalized)
	if err != nil {
		if r.mode == AttributeModeStrict {
			return uuid.Nil, "", fmt.Errorf("register attribute %q: %w", normalized, err)
		}
		log.Ctx(ctx).Warn().
			Str("attribute_name", normalized).
			Err(err).
			Msg("failed to create attribute, dropping it from the variation")
		return uuid.Nil, "", ErrAttributeSkipped
	}
	return def.ID, trimmed, nil
}

// lookup runs the repository call inside a SAVEPOINT when tx is an open
// transaction, so a failed statement rolls back only the savepoint and the
// caller can keep writing in tolerant mode.
func (r *AttributeRegistry) lookup(tx *gorm.DB, name string) (*model.AttributeDefinition, error) {
	if tx == nil {
		return r.repo.FindOrCreateTx(nil, name)
	}
	var def *model.AttributeDefinition
	err := tx.Transaction(func(sp *gorm.DB) error {
		var err error
		def, err = r.repo.FindOrCreateTx(sp, name)
		return err
	})
	return def, err
}
