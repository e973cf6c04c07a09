package sqlite

import (
	"context"

	"github.com/aussiebroadwan/keygate/internal/keygate/domain"
)

type bindingsRepo struct {
	db dbtx
}

func (r *bindingsRepo) GetBinding(ctx context.Context, userID string) (domain.Binding, error) {
	var (
		b        domain.Binding
		required int64
		updated  int64
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT user_id, required, public_id, updated_at FROM yubikey_bindings WHERE user_id = ?`,
		userID,
	).Scan(&b.UserID, &required, &b.PublicID, &updated)
	if err != nil {
		return domain.Binding{}, mapNotFound(err)
	}
	b.Required = required != 0
	b.UpdatedAt = fromMillis(updated)
	return b, nil
}

func (r *bindingsRepo) UpsertBinding(ctx context.Context, b domain.Binding) error {
	required := 0
	if b.Required {
		required = 1
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO yubikey_bindings (user_id, required, public_id, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			required   = excluded.required,
			public_id  = excluded.public_id,
			updated_at = excluded.updated_at`,
		b.UserID, required, domain.TruncatePublicID(b.PublicID), toMillis(b.UpdatedAt),
	)
	return mapConstraint(err)
}

func (r *bindingsRepo) DeleteBinding(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM yubikey_bindings WHERE user_id = ?`, userID)
	return err
}
