package state

import "fmt"

// Session is one row of the local mirror of the relay's chat list. The
// relay stays the source of truth; the mirror exists so project and
// session pickers render instantly on launch.
type Session struct {
	ID        string
	ProjectID string
	Title     string
	UpdatedAt float64
}

func (s *Store) UpsertSession(sess *Session) error {
	_, err := s.db.Exec(`INSERT INTO sessions (id, project_id, title, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			project_id = excluded.project_id,
			title = excluded.title,
			updated_at = excluded.updated_at`,
		sess.ID, sess.ProjectID, sess.Title, sess.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert session: %w", err)
	}
	return nil
}

func (s *Store) SessionsForProject(projectID string) ([]*Session, error) {
	rows, err := s.db.Query(`SELECT id, project_id, title, updated_at
		FROM sessions WHERE project_id = ? ORDER BY updated_at DESC`, projectID)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()
	var sessions []*Session
	for rows.Next() {
		sess := &Session{}
		if err := rows.Scan(&sess.ID, &sess.ProjectID, &sess.Title, &sess.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}

func (s *Store) DeleteSession(id string) error {
	if _, err := s.db.Exec("DELETE FROM sessions WHERE id = ?", id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
