package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/himigchat/himig/store"
)

func (d *DB) CreateChatMessage(ctx context.Context, create *store.ChatMessage) (*store.ChatMessage, error) {
	fields := []string{"uid", "creator_id", "conversation_id", "role", "content", "created_ts"}
	args := []any{create.UID, create.CreatorID, create.ConversationID, string(create.Role), create.Content, create.CreatedTs}

	stmt := `INSERT INTO chat_message (` + strings.Join(fields, ", ") + `)
		VALUES (` + placeholders(len(args)) + `)
		RETURNING id`
	if err := d.db.QueryRowContext(ctx, stmt, args...).Scan(&create.ID); err != nil {
		return nil, fmt.Errorf("failed to create chat_message: %w", err)
	}

	return create, nil
}

func (d *DB) ListChatMessages(ctx context.Context, find *store.FindChatMessage) ([]*store.ChatMessage, error) {
	where, args := []string{"1 = 1"}, []any{}

	if find.ID != nil {
		where, args = append(where, "id = "+placeholder(len(args)+1)), append(args, *find.ID)
	}
	if find.CreatorID != nil {
		where, args = append(where, "creator_id = "+placeholder(len(args)+1)), append(args, *find.CreatorID)
	}
	if find.ConversationID != nil {
		where, args = append(where, "conversation_id = "+placeholder(len(args)+1)), append(args, *find.ConversationID)
	}

	// Ties on created_ts are broken by insertion order.
	query := `SELECT id, uid, creator_id, conversation_id, role, content, created_ts FROM chat_message WHERE ` + strings.Join(where, " AND ") + ` ORDER BY created_ts ASC, id ASC`
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list chat_messages: %w", err)
	}
	defer rows.Close()

	list := make([]*store.ChatMessage, 0)
	for rows.Next() {
		m, err := scanChatMessage(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate chat_messages: %w", err)
	}

	return list, nil
}

func (d *DB) GetFirstChatMessage(ctx context.Context, creatorID int32, conversationID string) (*store.ChatMessage, error) {
	query := `SELECT id, uid, creator_id, conversation_id, role, content, created_ts FROM chat_message
		WHERE creator_id = ` + placeholder(1) + ` AND conversation_id = ` + placeholder(2) + `
		ORDER BY created_ts ASC, id ASC LIMIT 1`
	row := d.db.QueryRowContext(ctx, query, creatorID, conversationID)
	m := &store.ChatMessage{}
	var role string
	if err := row.Scan(&m.ID, &m.UID, &m.CreatorID, &m.ConversationID, &role, &m.Content, &m.CreatedTs); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get first chat_message: %w", err)
	}
	m.Role = store.ChatMessageRole(role)
	return m, nil
}

func (d *DB) DeleteChatMessage(ctx context.Context, delete *store.DeleteChatMessage) error {
	if _, err := d.db.ExecContext(ctx, `DELETE FROM chat_message WHERE id = `+placeholder(1), delete.ID); err != nil {
		return fmt.Errorf("failed to delete chat_message: %w", err)
	}
	return nil
}

func (d *DB) DeleteConversation(ctx context.Context, delete *store.DeleteConversation) (int64, error) {
	result, err := d.db.ExecContext(ctx,
		`DELETE FROM chat_message WHERE creator_id = `+placeholder(1)+` AND conversation_id = `+placeholder(2),
		delete.CreatorID, delete.ConversationID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete conversation: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted chat_messages: %w", err)
	}
	return rows, nil
}

func (d *DB) ListConversationSummaries(ctx context.Context, creatorID int32) ([]*store.ConversationSummary, error) {
	query := `SELECT conversation_id, MIN(created_ts) AS first_ts, MAX(created_ts) AS last_ts
		FROM chat_message WHERE creator_id = ` + placeholder(1) + `
		GROUP BY conversation_id ORDER BY last_ts DESC`
	rows, err := d.db.QueryContext(ctx, query, creatorID)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversation summaries: %w", err)
	}
	defer rows.Close()

	list := make([]*store.ConversationSummary, 0)
	for rows.Next() {
		s := &store.ConversationSummary{}
		if err := rows.Scan(&s.ConversationID, &s.FirstTs, &s.LastTs); err != nil {
			return nil, fmt.Errorf("failed to scan conversation summary: %w", err)
		}
		list = append(list, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate conversation summaries: %w", err)
	}

	return list, nil
}

func scanChatMessage(rows *sql.Rows) (*store.ChatMessage, error) {
	m := &store.ChatMessage{}
	var role string
	if err := rows.Scan(&m.ID, &m.UID, &m.CreatorID, &m.ConversationID, &role, &m.Content, &m.CreatedTs); err != nil {
		return nil, fmt.Errorf("failed to scan chat_message: %w", err)
	}
	m.Role = store.ChatMessageRole(role)
	return m, nil
}
