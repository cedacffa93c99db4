package database

import "database/sql"

// InsertUser registers a user. Returns the ID on success, 0 if the
// email is already registered.
func (db *DB) InsertUser(email, displayName, role string) (int64, error) {
	if role == "" {
		role = "reviewer"
	}
	result, err := db.conn.Exec(
		`INSERT INTO users (email, display_name, role) VALUES (?, ?, ?)`,
		email, displayName, role,
	)
	if err != nil {
		// Duplicate email constraint
		return 0, nil //nolint: nilerr
	}
	return result.LastInsertId()
}

// GetUser returns a single user by ID, or nil if not found.
func (db *DB) GetUser(userID int64) (*User, error) {
	row := db.conn.QueryRow(
		`SELECT id, email, display_name, role, created_at FROM users WHERE id = ?`, userID,
	)
	var u User
	if err := row.Scan(&u.ID, &u.Email, &u.DisplayName, &u.Role, &u.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

// ListUsers returns all users ordered by registration time.
func (db *DB) ListUsers() ([]User, error) {
	rows, err := db.conn.Query(
		`SELECT id, email, display_name, role, created_at FROM users ORDER BY id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Email, &u.DisplayName, &u.Role, &u.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// UserNames returns a map of user_id -> display_name for a set of user IDs.
func (db *DB) UserNames(userIDs []int64) (map[int64]string, error) {
	if len(userIDs) == 0 {
		return make(map[int64]string), nil
	}

	query := "SELECT id, display_name FROM users WHERE id IN (?" +
		repeatString(",?", len(userIDs)-1) + ")"

	args := make([]any, len(userIDs))
	for i, id := range userIDs {
		args[i] = id
	}

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	m := make(map[int64]string)
	for rows.Next() {
		var id int64
		var name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, err
		}
		m[id] = name
	}
	return m, rows.Err()
}
