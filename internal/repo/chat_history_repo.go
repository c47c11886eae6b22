package repo

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/didi/gendry/builder"

	"github.com/agdesk/agdesk/internal/model"
	appErr "github.com/agdesk/agdesk/internal/pkg/errors"
)

type ChatHistoryRepo struct {
	db *sql.DB
}

func NewChatHistoryRepo(db *sql.DB) *ChatHistoryRepo {
	return &ChatHistoryRepo{db: db}
}

func (r *ChatHistoryRepo) Create(ctx context.Context, history *model.ChatHistory) error {
	messagesJSON, err := json.Marshal(history.Messages)
	if err != nil {
		return err
	}
	data := map[string]interface{}{
		"id":            history.ID,
		"user_id":       history.UserID,
		"title":         history.Title,
		"messages_json": string(messagesJSON),
		"ctime":         history.Ctime,
		"mtime":         history.Mtime,
	}
	sqlStr, args, err := builder.BuildInsert("chat_history", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

func (r *ChatHistoryRepo) Update(ctx context.Context, history *model.ChatHistory) error {
	messagesJSON, err := json.Marshal(history.Messages)
	if err != nil {
		return err
	}
	where := map[string]interface{}{
		"id":      history.ID,
		"user_id": history.UserID,
	}
	update := map[string]interface{}{
		"title":         history.Title,
		"messages_json": string(messagesJSON),
		"mtime":         history.Mtime,
	}
	sqlStr, args, err := builder.BuildUpdate("chat_history", where, update)
	if err != nil {
		return err
	}
	result, err := r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return appErr.ErrNotFound
	}
	return nil
}

func (r *ChatHistoryRepo) GetByID(ctx context.Context, userID, historyID string) (*model.ChatHistory, error) {
	where := map[string]interface{}{
		"id":      historyID,
		"user_id": userID,
	}
	sqlStr, args, err := builder.BuildSelect("chat_history", where, []string{"id", "user_id", "title", "messages_json", "ctime", "mtime"})
	if err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	if !rows.Next() {
		return nil, appErr.ErrNotFound
	}
	return scanChatHistory(rows)
}

func (r *ChatHistoryRepo) List(ctx context.Context, userID string, limit uint) ([]model.ChatHistory, error) {
	where := map[string]interface{}{
		"user_id":  userID,
		"_orderby": "mtime desc",
	}
	if limit > 0 {
		where["_limit"] = []uint{0, limit}
	}
	sqlStr, args, err := builder.BuildSelect("chat_history", where, []string{"id", "user_id", "title", "messages_json", "ctime", "mtime"})
	if err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	histories := make([]model.ChatHistory, 0)
	for rows.Next() {
		history, err := scanChatHistory(rows)
		if err != nil {
			return nil, err
		}
		histories = append(histories, *history)
	}
	return histories, rows.Err()
}

func (r *ChatHistoryRepo) Delete(ctx context.Context, userID, historyID string) error {
	where := map[string]interface{}{
		"id":      historyID,
		"user_id": userID,
	}
	sqlStr, args, err := builder.BuildDelete("chat_history", where)
	if err != nil {
		return err
	}
	result, err := r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return appErr.ErrNotFound
	}
	return nil
}

func scanChatHistory(rows *sql.Rows) (*model.ChatHistory, error) {
	var history model.ChatHistory
	var messagesJSON string
	if err := rows.Scan(
		&history.ID,
		&history.UserID,
		&history.Title,
		&messagesJSON,
		&history.Ctime,
		&history.Mtime,
	); err != nil {
		return nil, err
	}
	if messagesJSON != "" {
		_ = json.Unmarshal([]byte(messagesJSON), &history.Messages)
	}
	return &history, nil
}
