package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"chat-relay/internal/domain"
)

// MessageRepository define el contrato de persistencia de mensajes:
// append de un registro y consulta del historial de un usuario.
type MessageRepository interface {
	Create(ctx context.Context, record domain.MessageRecord) error
	ListHistoryByUserID(ctx context.Context, userID string) ([]domain.MessageRecord, error)
}

// PgMessageRepository implementa MessageRepository usando pgxpool.
type PgMessageRepository struct {
	pool *pgxpool.Pool
}

func NewPgMessageRepository(pool *pgxpool.Pool) *PgMessageRepository {
	return &PgMessageRepository{pool: pool}
}

func (r *PgMessageRepository) Create(ctx context.Context, record domain.MessageRecord) error {
	const query = `
		INSERT INTO messages (id, sender_id, recipient_id, content, sent_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.pool.Exec(ctx, query,
		record.ID,
		record.SenderID,
		record.RecipientID,
		record.Content,
		record.SentAt,
	)
	return err
}

// ListHistoryByUserID devuelve todos los registros donde el usuario es
// remitente o destinatario, en orden de envío.
func (r *PgMessageRepository) ListHistoryByUserID(ctx context.Context, userID string) ([]domain.MessageRecord, error) {
	const query = `
		SELECT id, sender_id, recipient_id, content, sent_at
		FROM messages
		WHERE sender_id = $1 OR recipient_id = $1
		ORDER BY sent_at ASC
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []domain.MessageRecord
	for rows.Next() {
		var rec domain.MessageRecord
		err = rows.Scan(
			&rec.ID,
			&rec.SenderID,
			&rec.RecipientID,
			&rec.Content,
			&rec.SentAt,
		)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return records, nil
}
