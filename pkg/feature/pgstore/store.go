package pgstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/progressmethod/featuregate/pkg/feature"
	"github.com/progressmethod/featuregate/pkg/pg"
)

const featureColumns = `id, name, description, state, rollout_strategy, config,
	is_active, rollout_percentage, rollout_target_date,
	ab_test_groups, ab_test_active,
	target_roles, target_user_ids, excluded_user_ids,
	usage_count, success_rate, last_used,
	created_at, updated_at, created_by`

// Store is the Postgres implementation of feature.Store, backed by a
// pgx connection pool. Enum fields are stored as text, group and config
// maps as jsonb, id and role sets as text arrays.
type Store struct {
	pool *pgxpool.Pool
}

// New creates a Postgres feature store over an existing pool.
func New(pool *pgxpool.Pool) *Store {
	if pool == nil {
		panic("pgstore: pool cannot be nil")
	}
	return &Store{pool: pool}
}

func (s *Store) InsertFeature(ctx context.Context, f *feature.Feature) error {
	if f == nil || f.ID == "" {
		return feature.ErrInvalidFeature
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO features (`+featureColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
			$11, $12, $13, $14, $15, $16, $17, $18, $19, $20)`,
		f.ID, f.Name, f.Description, string(f.State), string(f.Strategy), f.Config,
		f.IsActive, f.RolloutPercentage, f.RolloutTargetDate,
		f.ABTestGroups, f.ABTestActive,
		f.TargetRoles, f.TargetUserIDs, f.ExcludedUserIDs,
		f.UsageCount, f.SuccessRate, f.LastUsed,
		f.CreatedAt, f.UpdatedAt, f.CreatedBy,
	)
	if err != nil {
		if pg.IsDuplicateKeyError(err) {
			return feature.ErrFeatureExists
		}
		return errors.Join(feature.ErrStoreFailure, err)
	}
	return nil
}

func (s *Store) UpdateFeature(ctx context.Context, id string, p feature.Patch, updatedAt time.Time) (bool, error) {
	setSQL, args := buildPatch(p, updatedAt)

	args = append(args, id)
	query := fmt.Sprintf("UPDATE features SET %s WHERE id = $%d", setSQL, len(args))

	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return false, errors.Join(feature.ErrStoreFailure, err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *Store) GetFeature(ctx context.Context, id string) (*feature.Feature, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+featureColumns+` FROM features WHERE id = $1 AND is_active`, id)

	f, err := scanFeature(row)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, feature.ErrFeatureNotFound
		}
		return nil, errors.Join(feature.ErrStoreFailure, err)
	}
	return f, nil
}

func (s *Store) ListFeatures(ctx context.Context) ([]*feature.Feature, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+featureColumns+` FROM features WHERE is_active ORDER BY id`)
	if err != nil {
		return nil, errors.Join(feature.ErrStoreFailure, err)
	}
	defer rows.Close()

	var features []*feature.Feature
	for rows.Next() {
		f, err := scanFeature(rows)
		if err != nil {
			return nil, errors.Join(feature.ErrStoreFailure, err)
		}
		features = append(features, f)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Join(feature.ErrStoreFailure, err)
	}
	return features, nil
}

func (s *Store) InsertUsageEvent(ctx context.Context, e *feature.UsageEvent) error {
	if e == nil || e.FeatureID == "" {
		return feature.ErrInvalidFeature
	}

	var abGroup *string
	if e.ABGroup != "" {
		abGroup = &e.ABGroup
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO feature_usage_events
			(id, feature_id, user_id, telegram_id, event_type, metadata, ab_test_group, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		e.ID, e.FeatureID, e.UserID, e.TelegramID, string(e.Type), e.Metadata, abGroup, e.CreatedAt,
	)
	if err != nil {
		return errors.Join(feature.ErrStoreFailure, err)
	}
	return nil
}

// RecordAccess bumps the usage counter in a single update expression so
// concurrent accesses never lose counts.
func (s *Store) RecordAccess(ctx context.Context, featureID string, at time.Time) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE features SET usage_count = usage_count + 1, last_used = $2 WHERE id = $1`,
		featureID, at)
	if err != nil {
		return errors.Join(feature.ErrStoreFailure, err)
	}
	if tag.RowsAffected() == 0 {
		return feature.ErrFeatureNotFound
	}
	return nil
}

func (s *Store) ListUsageEvents(ctx context.Context, featureID string, since time.Time) ([]*feature.UsageEvent, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, feature_id, user_id, telegram_id, event_type, metadata, ab_test_group, created_at
		FROM feature_usage_events
		WHERE feature_id = $1 AND created_at >= $2
		ORDER BY created_at`,
		featureID, since)
	if err != nil {
		return nil, errors.Join(feature.ErrStoreFailure, err)
	}
	defer rows.Close()

	var events []*feature.UsageEvent
	for rows.Next() {
		var (
			e       feature.UsageEvent
			typ     string
			abGroup *string
		)
		if err := rows.Scan(&e.ID, &e.FeatureID, &e.UserID, &e.TelegramID,
			&typ, &e.Metadata, &abGroup, &e.CreatedAt); err != nil {
			return nil, errors.Join(feature.ErrStoreFailure, err)
		}
		e.Type = feature.EventType(typ)
		if abGroup != nil {
			e.ABGroup = *abGroup
		}
		events = append(events, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Join(feature.ErrStoreFailure, err)
	}
	return events, nil
}

// buildPatch translates a feature.Patch into a SET clause and its
// arguments. updated_at is always stamped; the caller appends the id
// argument for the WHERE clause.
func buildPatch(p feature.Patch, updatedAt time.Time) (string, []any) {
	sets := []string{"updated_at = $1"}
	args := []any{updatedAt}

	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if p.Name != nil {
		add("name", *p.Name)
	}
	if p.Description != nil {
		add("description", *p.Description)
	}
	if p.State != nil {
		add("state", string(*p.State))
	}
	if p.Strategy != nil {
		add("rollout_strategy", string(*p.Strategy))
	}
	if p.Config != nil {
		add("config", p.Config)
	}
	if p.IsActive != nil {
		add("is_active", *p.IsActive)
	}
	if p.RolloutPercentage != nil {
		add("rollout_percentage", *p.RolloutPercentage)
	}
	if p.RolloutTargetDate != nil {
		add("rollout_target_date", *p.RolloutTargetDate)
	}
	if p.ABTestGroups != nil {
		add("ab_test_groups", p.ABTestGroups)
	}
	if p.ABTestActive != nil {
		add("ab_test_active", *p.ABTestActive)
	}
	if p.TargetRoles != nil {
		add("target_roles", p.TargetRoles)
	}
	if p.TargetUserIDs != nil {
		add("target_user_ids", p.TargetUserIDs)
	}
	if p.ExcludedUserIDs != nil {
		add("excluded_user_ids", p.ExcludedUserIDs)
	}

	return strings.Join(sets, ", "), args
}

// scanFeature reads one feature row. Works for both QueryRow and Rows
// through the pgx.Row interface.
func scanFeature(row pgx.Row) (*feature.Feature, error) {
	var (
		f        feature.Feature
		state    string
		strategy string
	)
	err := row.Scan(
		&f.ID, &f.Name, &f.Description, &state, &strategy, &f.Config,
		&f.IsActive, &f.RolloutPercentage, &f.RolloutTargetDate,
		&f.ABTestGroups, &f.ABTestActive,
		&f.TargetRoles, &f.TargetUserIDs, &f.ExcludedUserIDs,
		&f.UsageCount, &f.SuccessRate, &f.LastUsed,
		&f.CreatedAt, &f.UpdatedAt, &f.CreatedBy,
	)
	if err != nil {
		return nil, err
	}
	f.State = feature.FlagState(state)
	f.Strategy = feature.RolloutStrategy(strategy)
	return &f, nil
}
