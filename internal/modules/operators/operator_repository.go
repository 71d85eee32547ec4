package operators

import (
	"context"
	"errors"
	"fmt"

	"route-ops/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RepositoryInterface defines the contract for the operator repository.
type RepositoryInterface interface {
	Create(ctx context.Context, op *models.Operator, passwordHash string) (*models.Operator, error)
	CreateOAuthOperator(ctx context.Context, op *models.Operator) (*models.Operator, error)
	FindByID(ctx context.Context, id string) (*models.Operator, error)
	// FindByEmail returns the operator including the password hash.
	FindByEmail(ctx context.Context, email string) (*models.Operator, error)
}

// Repository implements RepositoryInterface using PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new operator repository.
func NewRepository(db *pgxpool.Pool) RepositoryInterface {
	return &Repository{db: db}
}

const operatorColumns = `id, name, email, COALESCE(password_hash, ''), auth_provider, COALESCE(auth_provider_id, ''), created_at, updated_at`

func scanOperator(row pgx.Row) (*models.Operator, error) {
	var op models.Operator
	err := row.Scan(&op.ID, &op.Name, &op.Email, &op.PasswordHash, &op.AuthProvider, &op.AuthProviderID, &op.CreatedAt, &op.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan operator: %w", err)
	}
	return &op, nil
}

// Create inserts a password-based operator account.
func (r *Repository) Create(ctx context.Context, op *models.Operator, passwordHash string) (*models.Operator, error) {
	query := `
        INSERT INTO operators (name, email, password_hash, auth_provider)
        VALUES ($1, $2, $3, 'email')
        RETURNING ` + operatorColumns
	created, err := scanOperator(r.db.QueryRow(ctx, query, op.Name, op.Email, passwordHash))
	if err != nil {
		return nil, fmt.Errorf("repository.Create: %w", err)
	}
	return created, nil
}

// CreateOAuthOperator inserts an operator provisioned through Google login.
func (r *Repository) CreateOAuthOperator(ctx context.Context, op *models.Operator) (*models.Operator, error) {
	query := `
        INSERT INTO operators (name, email, auth_provider, auth_provider_id)
        VALUES ($1, $2, $3, $4)
        RETURNING ` + operatorColumns
	created, err := scanOperator(r.db.QueryRow(ctx, query, op.Name, op.Email, op.AuthProvider, op.AuthProviderID))
	if err != nil {
		return nil, fmt.Errorf("repository.CreateOAuthOperator: %w", err)
	}
	return created, nil
}

// FindByID retrieves a single operator by id.
func (r *Repository) FindByID(ctx context.Context, id string) (*models.Operator, error) {
	query := `SELECT ` + operatorColumns + ` FROM operators WHERE id = $1`
	op, err := scanOperator(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("repository.FindByID: %w", err)
	}
	return op, nil
}

// FindByEmail retrieves a single operator by email, hash included.
func (r *Repository) FindByEmail(ctx context.Context, email string) (*models.Operator, error) {
	query := `SELECT ` + operatorColumns + ` FROM operators WHERE email = $1`
	op, err := scanOperator(r.db.QueryRow(ctx, query, email))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("repository.FindByEmail: %w", err)
	}
	return op, nil
}
