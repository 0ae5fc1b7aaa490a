package sqlite

import (
	"fmt"

	"aisha/internal/dto"
	"aisha/internal/model"
)

// CommandRepository implements repository.CommandRepository for SQLite.
type CommandRepository struct {
	db *DB
}

// NewCommandRepository creates a new SQLite command repository.
func NewCommandRepository(db *DB) *CommandRepository {
	return &CommandRepository{db: db}
}

// Insert records a recognized command.
func (r *CommandRepository) Insert(cmd *model.VoiceCommand) (int64, error) {
	r.db.Lock()
	defer r.db.Unlock()

	result, err := r.db.Conn().Exec(`
		INSERT INTO commands (session, source, text, action, reply, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, cmd.Session, cmd.Source, cmd.Text, cmd.Action, cmd.Reply, cmd.CreatedAt.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to insert command: %w", err)
	}

	return result.LastInsertId()
}

func commandWhere(query string, filter *dto.EventFilter) (string, []interface{}) {
	args := []interface{}{}
	if filter == nil {
		return query, args
	}

	if filter.Session != "" {
		query += " AND session = ?"
		args = append(args, filter.Session)
	}
	if filter.Source != "" {
		query += " AND source = ?"
		args = append(args, filter.Source)
	}
	if filter.Action != "" {
		query += " AND action = ?"
		args = append(args, filter.Action)
	}
	if !filter.Since.IsZero() {
		query += " AND created_at >= ?"
		args = append(args, filter.Since.UTC())
	}
	return query, args
}

// GetAll lists commands matching the filter, newest first.
func (r *CommandRepository) GetAll(filter *dto.EventFilter) ([]model.VoiceCommand, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	query, args := commandWhere(`
		SELECT id, session, source, text, action, reply, created_at
		FROM commands WHERE 1=1
	`, filter)
	query += " ORDER BY created_at DESC, id DESC"

	if filter != nil && filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := r.db.Conn().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query commands: %w", err)
	}
	defer rows.Close()

	var commands []model.VoiceCommand
	for rows.Next() {
		var c model.VoiceCommand
		if err := rows.Scan(&c.ID, &c.Session, &c.Source, &c.Text, &c.Action, &c.Reply, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan command: %w", err)
		}
		commands = append(commands, c)
	}

	return commands, rows.Err()
}

// CountByAction returns the number of commands per action. Unmatched
// utterances are counted under the empty action.
func (r *CommandRepository) CountByAction(filter *dto.EventFilter) (map[string]int, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	query, args := commandWhere(`SELECT action, COUNT(*) FROM commands WHERE 1=1`, filter)
	query += " GROUP BY action"

	rows, err := r.db.Conn().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to count commands: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var action string
		var count int
		if err := rows.Scan(&action, &count); err != nil {
			return nil, fmt.Errorf("failed to scan command count: %w", err)
		}
		counts[action] = count
	}

	return counts, rows.Err()
}

// DeleteAll removes every recorded command.
func (r *CommandRepository) DeleteAll() error {
	r.db.Lock()
	defer r.db.Unlock()

	if _, err := r.db.Conn().Exec(`DELETE FROM commands`); err != nil {
		return fmt.Errorf("failed to delete commands: %w", err)
	}
	return nil
}
