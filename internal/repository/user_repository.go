package repository

import (
	"database/sql"
	"fmt"

	"github.com/fleetwatch/fleet-ingest-go/internal/models"
)

// UserRepository handles database operations for users
type UserRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

// GetByOrganization retrieves the first user belonging to an organization.
// Returns nil when the organization has no users.
func (r *UserRepository) GetByOrganization(organizationID int64) (*models.User, error) {
	query := `SELECT id, organization_id, name, role FROM users
		WHERE organization_id = ? ORDER BY id LIMIT 1`

	var u models.User
	err := r.db.QueryRow(query, organizationID).Scan(&u.ID, &u.OrganizationID, &u.Name, &u.Role)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get organization user: %w", err)
	}

	return &u, nil
}

// Insert adds a user. Used by bootstrap and tests.
func (r *UserRepository) Insert(u *models.User) (int64, error) {
	result, err := r.db.Exec(
		"INSERT INTO users (organization_id, name, role) VALUES (?, ?, ?)",
		u.OrganizationID, u.Name, u.Role,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert user: %w", err)
	}
	return result.LastInsertId()
}
