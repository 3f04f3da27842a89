package repo

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"livecast-api/internal/models"
)

// schema はMVP向けの単一SQLite DBのスキーマ
const schema = `
CREATE TABLE IF NOT EXISTS users (
	id            TEXT PRIMARY KEY,
	email         TEXT UNIQUE NOT NULL,
	password_hash TEXT NOT NULL,
	display_name  TEXT NOT NULL,
	role          TEXT NOT NULL DEFAULT 'viewer',
	created_at    TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS streams (
	id             TEXT PRIMARY KEY,
	title          TEXT NOT NULL,
	owner_id       TEXT NOT NULL,
	status         TEXT NOT NULL,
	started_at     TEXT NOT NULL,
	stopped_at     TEXT,
	stopped_reason TEXT,
	FOREIGN KEY(owner_id) REFERENCES users(id)
);

CREATE TABLE IF NOT EXISTS chat_messages (
	id         TEXT PRIMARY KEY,
	stream_id  TEXT NOT NULL,
	user_id    TEXT NOT NULL,
	content    TEXT NOT NULL,
	created_at TEXT NOT NULL,
	FOREIGN KEY(stream_id) REFERENCES streams(id),
	FOREIGN KEY(user_id) REFERENCES users(id)
);
`

// OpenSQLite はSQLiteを開き、スキーマを初期化します
func OpenSQLite(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// SQLiteRepo はユーザー・配信・チャット履歴をSQLiteに保存します
// UserRepo / StreamRepo / ChatRepo を実装します
type SQLiteRepo struct{ db *sql.DB }

func NewSQLiteRepo(db *sql.DB) *SQLiteRepo {
	return &SQLiteRepo{db: db}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

func (r *SQLiteRepo) CreateUser(ctx context.Context, user models.User) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, email, password_hash, display_name, role, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		user.UserId, user.Email, user.PasswordHash, user.DisplayName, user.Role, formatTime(user.CreatedAt))
	return err
}

func (r *SQLiteRepo) GetUser(ctx context.Context, userId string) (models.User, bool, error) {
	return r.getUser(ctx, "id = ?", userId)
}

func (r *SQLiteRepo) GetUserByEmail(ctx context.Context, email string) (models.User, bool, error) {
	return r.getUser(ctx, "email = ?", email)
}

func (r *SQLiteRepo) getUser(ctx context.Context, where string, arg any) (models.User, bool, error) {
	row := r.db.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT id, email, password_hash, display_name, role, created_at FROM users WHERE %s`, where), arg)

	var u models.User
	var createdAt string
	err := row.Scan(&u.UserId, &u.Email, &u.PasswordHash, &u.DisplayName, &u.Role, &createdAt)
	if err == sql.ErrNoRows {
		return models.User{}, false, nil
	}
	if err != nil {
		return models.User{}, false, err
	}
	if u.CreatedAt, err = parseTime(createdAt); err != nil {
		return models.User{}, false, err
	}
	return u, true, nil
}

func (r *SQLiteRepo) CreateStream(ctx context.Context, stream models.Stream) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO streams (id, title, owner_id, status, started_at)
		 VALUES (?, ?, ?, ?, ?)`,
		stream.StreamId, stream.Title, stream.OwnerId, stream.Status, formatTime(stream.StartedAt))
	return err
}

func (r *SQLiteRepo) GetStream(ctx context.Context, streamId string) (models.Stream, bool, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT streams.id, streams.title, streams.owner_id, users.display_name,
		        streams.status, streams.started_at, streams.stopped_at, streams.stopped_reason
		 FROM streams
		 JOIN users ON users.id = streams.owner_id
		 WHERE streams.id = ?`, streamId)

	s, err := scanStream(row)
	if err == sql.ErrNoRows {
		return models.Stream{}, false, nil
	}
	if err != nil {
		return models.Stream{}, false, err
	}
	return s, true, nil
}

func (r *SQLiteRepo) ListStreams(ctx context.Context) ([]models.Stream, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT streams.id, streams.title, streams.owner_id, users.display_name,
		        streams.status, streams.started_at, streams.stopped_at, streams.stopped_reason
		 FROM streams
		 JOIN users ON users.id = streams.owner_id
		 ORDER BY streams.started_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	res := make([]models.Stream, 0)
	for rows.Next() {
		s, err := scanStream(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, s)
	}
	return res, rows.Err()
}

func (r *SQLiteRepo) StopStream(ctx context.Context, streamId string, stoppedAt time.Time, reason string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE streams SET status = ?, stopped_at = ?, stopped_reason = ? WHERE id = ?`,
		models.StreamStopped, formatTime(stoppedAt), reason, streamId)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrStreamNotFound
	}
	return nil
}

func (r *SQLiteRepo) AddMessage(ctx context.Context, msg models.ChatMessage) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO chat_messages (id, stream_id, user_id, content, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		msg.MessageId, msg.StreamId, msg.UserId, msg.Content, formatTime(msg.CreatedAt))
	return err
}

func (r *SQLiteRepo) ListMessages(ctx context.Context, streamId string, limit int) ([]models.ChatMessage, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT chat_messages.id, chat_messages.stream_id, chat_messages.user_id,
		        users.display_name, chat_messages.content, chat_messages.created_at
		 FROM chat_messages
		 JOIN users ON users.id = chat_messages.user_id
		 WHERE chat_messages.stream_id = ?
		 ORDER BY chat_messages.created_at DESC
		 LIMIT ?`, streamId, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	res := make([]models.ChatMessage, 0, limit)
	for rows.Next() {
		var m models.ChatMessage
		var createdAt string
		if err := rows.Scan(&m.MessageId, &m.StreamId, &m.UserId, &m.Author, &m.Content, &createdAt); err != nil {
			return nil, err
		}
		if m.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		res = append(res, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// 新しい順に取得しているので、古い順に並べ替えて返す
	for i, j := 0, len(res)-1; i < j; i, j = i+1, j-1 {
		res[i], res[j] = res[j], res[i]
	}
	return res, nil
}

// scanner は*sql.Rowと*sql.Rowsの共通部分
type scanner interface {
	Scan(dest ...any) error
}

func scanStream(row scanner) (models.Stream, error) {
	var s models.Stream
	var startedAt string
	var stoppedAt, stoppedReason sql.NullString
	err := row.Scan(&s.StreamId, &s.Title, &s.OwnerId, &s.OwnerName, &s.Status, &startedAt, &stoppedAt, &stoppedReason)
	if err != nil {
		return models.Stream{}, err
	}
	if s.StartedAt, err = parseTime(startedAt); err != nil {
		return models.Stream{}, err
	}
	if stoppedAt.Valid {
		t, err := parseTime(stoppedAt.String)
		if err != nil {
			return models.Stream{}, err
		}
		s.StoppedAt = &t
	}
	if stoppedReason.Valid {
		s.StoppedReason = stoppedReason.String
	}
	return s, nil
}
