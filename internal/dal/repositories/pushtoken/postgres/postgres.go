package postgresrepo

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/easey-git/easey-app-sub001/internal/dal/postgres"
)

// PushTokenRepository reads registered device tokens.
type PushTokenRepository struct {
	conn postgres.DBTX
}

func NewPushTokenRepository(conn postgres.DBTX) *PushTokenRepository {
	return &PushTokenRepository{
		conn: conn,
	}
}

// List returns all registered device tokens.
func (r *PushTokenRepository) List(ctx context.Context) ([]string, error) {
	query, args, err := sq.Select("token").
		From("push_tokens").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build push token query: %w", err)
	}

	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list push tokens: %w", err)
	}
	defer rows.Close()

	var tokens []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("failed to scan push token: %w", err)
		}
		tokens = append(tokens, t)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return tokens, nil
}
