package storage

import (
	"context"
	"fmt"
)

func emailExists(ctx context.Context, q querier, email string) (bool, error) {
	var exists bool
	err := q.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM users WHERE email = ?)",
		email,
	).Scan(&exists)
	if err != nil {
		return false, unavailable("Failed to check email", err)
	}
	return exists, nil
}

func userExists(ctx context.Context, q querier, uid string) error {
	var exists bool
	err := q.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM users WHERE id = ?)",
		uid,
	).Scan(&exists)
	if err != nil {
		return unavailable("Failed to check user", err)
	}
	if !exists {
		return notFound("user", uid)
	}
	return nil
}

// routineOwner returns the user owning the routine.
func routineOwner(ctx context.Context, q querier, routineID string) (string, error) {
	var owner string
	err := q.QueryRowContext(ctx, "SELECT user_id FROM routines WHERE id = ?", routineID).Scan(&owner)
	if err != nil {
		if isNoRows(err) {
			return "", notFound("routine", routineID)
		}
		return "", unavailable(fmt.Sprintf("Failed to query routine %s", routineID), err)
	}
	return owner, nil
}
