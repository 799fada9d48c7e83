package repository

import (
	"context"

	"github.com/google/uuid"
)

const getUserByID = `
SELECT id, email, name, role, created_at, updated_at
FROM users
WHERE id = $1
`

func (q *Queries) GetUserByID(ctx context.Context, id uuid.UUID) (User, error) {
	var u User
	err := q.db.QueryRowContext(ctx, getUserByID, id).Scan(
		&u.ID, &u.Email, &u.Name, &u.Role, &u.CreatedAt, &u.UpdatedAt,
	)
	return u, err
}

const upsertUser = `
INSERT INTO users (id, email, name, role)
VALUES ($1, $2, $3, $4)
ON CONFLICT (id) DO UPDATE
SET email = EXCLUDED.email, name = EXCLUDED.name, role = EXCLUDED.role,
	updated_at = now()
RETURNING id, email, name, role, created_at, updated_at
`

// UpsertUserParams mirror an identity asserted by the auth proxy.
type UpsertUserParams struct {
	ID    uuid.UUID
	Email string
	Name  string
	Role  string
}

func (q *Queries) UpsertUser(ctx context.Context, arg UpsertUserParams) (User, error) {
	var u User
	err := q.db.QueryRowContext(ctx, upsertUser, arg.ID, arg.Email, arg.Name, arg.Role).Scan(
		&u.ID, &u.Email, &u.Name, &u.Role, &u.CreatedAt, &u.UpdatedAt,
	)
	return u, err
}
