package database

import (
	"context"
	"errors"
	"fmt"

	"museo-server/shared/interfaces"
	"museo-server/shared/models"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

const userColumns = `id, first_name, last_name, email, password_hash, role, is_active, total_points, created_at`

var (
	_ interfaces.UserAccount = (*pgUserAccount)(nil)
	_ interfaces.UserWriter  = (*pgUserAccount)(nil)
)

type pgUserAccount struct {
	logger *zap.Logger
}

// PgUserAccount is the concrete PostgreSQL user store.
type PgUserAccount interface {
	interfaces.UserAccount
	interfaces.UserWriter
}

// NewPgUserAccount creates a PostgreSQL-backed UserAccount.
// Every method runs on the querier it is given, so callers decide whether
// the statement joins a transaction.
func NewPgUserAccount(logger *zap.Logger) PgUserAccount {
	return &pgUserAccount{logger: logger.Named("PgUserAccount")}
}

func (r *pgUserAccount) GetUser(ctx context.Context, querier interfaces.DBTX, userID uuid.UUID) (*models.User, error) {
	return r.getUser(ctx, querier, `SELECT `+userColumns+` FROM users WHERE id = $1`, userID)
}

// LockUser takes a FOR UPDATE lock on the user row, serialising concurrent
// progress operations of the same user until the transaction ends.
func (r *pgUserAccount) LockUser(ctx context.Context, querier interfaces.DBTX, userID uuid.UUID) (*models.User, error) {
	return r.getUser(ctx, querier, `SELECT `+userColumns+` FROM users WHERE id = $1 FOR UPDATE`, userID)
}

func (r *pgUserAccount) getUser(ctx context.Context, querier interfaces.DBTX, query string, userID uuid.UUID) (*models.User, error) {
	user := &models.User{}
	if err := pgxscan.Get(ctx, querier, user, query, userID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug("User not found", zap.Stringer("userID", userID))
			return nil, models.ErrUserNotFound
		}
		r.logger.Error("Failed to get user", zap.Stringer("userID", userID), zap.Error(err))
		return nil, fmt.Errorf("failed to get user %s: %w", userID, err)
	}
	return user, nil
}

func (r *pgUserAccount) AddPoints(ctx context.Context, querier interfaces.DBTX, userID uuid.UUID, delta int) (int, error) {
	if delta < 0 {
		return 0, fmt.Errorf("%w: negative point delta %d", models.ErrInvalidState, delta)
	}
	query := `UPDATE users SET total_points = total_points + $2 WHERE id = $1 RETURNING total_points`
	var total int
	err := querier.QueryRow(ctx, query, userID, delta).Scan(&total)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, models.ErrUserNotFound
		}
		logFields := []zap.Field{zap.Stringer("userID", userID), zap.Int("delta", delta), zap.Error(err)}
		r.logger.Error("Failed to add points", logFields...)
		return 0, fmt.Errorf("failed to add points for user %s: %w", userID, err)
	}
	r.logger.Debug("Points added", zap.Stringer("userID", userID), zap.Int("delta", delta), zap.Int("total", total))
	return total, nil
}

// GetStanding returns 1 + the number of active users with more points.
func (r *pgUserAccount) GetStanding(ctx context.Context, querier interfaces.DBTX, points int) (int, error) {
	query := `SELECT COUNT(*) FROM users WHERE is_active AND total_points > $1`
	var above int
	if err := querier.QueryRow(ctx, query, points).Scan(&above); err != nil {
		r.logger.Error("Failed to compute standing", zap.Int("points", points), zap.Error(err))
		return 0, fmt.Errorf("failed to compute standing: %w", err)
	}
	return above + 1, nil
}

func (r *pgUserAccount) EnsureUser(ctx context.Context, querier interfaces.DBTX, user *models.User) (bool, error) {
	if user.Role == "" {
		user.Role = models.RoleUser
	}
	query := `
		INSERT INTO users (first_name, last_name, email, password_hash, role, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (email) DO NOTHING
		RETURNING id`
	err := querier.QueryRow(ctx, query,
		user.FirstName, user.LastName, user.Email, user.PasswordHash, user.Role, user.IsActive,
	).Scan(&user.ID)
	if err == nil {
		r.logger.Info("User created", zap.Stringer("userID", user.ID), zap.String("email", user.Email))
		return true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		r.logger.Error("Failed to create user", zap.String("email", user.Email), zap.Error(err))
		return false, fmt.Errorf("failed to create user %s: %w", user.Email, err)
	}

	if err := querier.QueryRow(ctx, `SELECT id FROM users WHERE email = $1`, user.Email).Scan(&user.ID); err != nil {
		r.logger.Error("Failed to load existing user", zap.String("email", user.Email), zap.Error(err))
		return false, fmt.Errorf("failed to load user %s: %w", user.Email, err)
	}
	return false, nil
}
