package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/abrezinsky/livevote/internal/models"
)

// Repository provides data access methods
type Repository struct {
	db *sql.DB
}

// New creates a new Repository
func New(dbPath string) (*Repository, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	// SQLite works best with a single connection; pragmas are per connection
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	// Enable foreign key constraints
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, err
	}

	repo := &Repository{db: db}

	if err := repo.migrate(); err != nil {
		db.Close()
		return nil, err
	}

	return repo, nil
}

// DB returns the underlying database connection
func (r *Repository) DB() *sql.DB {
	return r.db
}

// Close closes the database connection
func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping checks if the database connection is alive
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// migrate runs database migrations
func (r *Repository) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			email TEXT UNIQUE NOT NULL,
			name TEXT NOT NULL,
			password_hash TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			host_id INTEGER NOT NULL,
			name TEXT NOT NULL,
			description TEXT,
			join_code TEXT UNIQUE NOT NULL,
			status TEXT NOT NULL DEFAULT 'setup',
			submissions_closed BOOLEAN NOT NULL DEFAULT 0,
			current_presentation_id INTEGER,
			timer_started_at DATETIME,
			timer_duration INTEGER,
			timer_paused_at DATETIME,
			timer_paused_remaining INTEGER,
			winners_reveal_step INTEGER NOT NULL DEFAULT 0 CHECK (winners_reveal_step >= 0),
			confetti_count INTEGER NOT NULL DEFAULT 0,
			confetti_triggered_at DATETIME,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (host_id) REFERENCES users(id) ON DELETE CASCADE,
			FOREIGN KEY (current_presentation_id) REFERENCES presentation_groups(id) ON DELETE SET NULL
		)`,
		`CREATE TABLE IF NOT EXISTS categories (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			event_id INTEGER NOT NULL,
			name TEXT NOT NULL,
			description TEXT,
			sort_order INTEGER NOT NULL,
			FOREIGN KEY (event_id) REFERENCES events(id) ON DELETE CASCADE,
			UNIQUE(event_id, sort_order)
		)`,
		`CREATE TABLE IF NOT EXISTS presentation_groups (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			event_id INTEGER NOT NULL,
			name TEXT NOT NULL,
			emoji TEXT,
			invite_code TEXT UNIQUE NOT NULL,
			status TEXT NOT NULL DEFAULT 'not_submitted',
			submission_link TEXT,
			submitted_at DATETIME,
			presentation_order INTEGER,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (event_id) REFERENCES events(id) ON DELETE CASCADE,
			UNIQUE(event_id, presentation_order)
		)`,
		`CREATE TABLE IF NOT EXISTS group_members (
			group_id INTEGER NOT NULL,
			user_id INTEGER NOT NULL,
			is_leader BOOLEAN NOT NULL DEFAULT 0,
			joined_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (group_id, user_id),
			FOREIGN KEY (group_id) REFERENCES presentation_groups(id) ON DELETE CASCADE,
			FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS voting_sessions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			event_id INTEGER NOT NULL,
			session_code TEXT UNIQUE NOT NULL,
			display_name TEXT NOT NULL,
			last_active DATETIME NOT NULL,
			created_at DATETIME NOT NULL,
			FOREIGN KEY (event_id) REFERENCES events(id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS votes (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			event_id INTEGER NOT NULL,
			group_id INTEGER NOT NULL,
			user_id INTEGER,
			voting_session_id INTEGER,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			CHECK ((user_id IS NULL) <> (voting_session_id IS NULL)),
			FOREIGN KEY (event_id) REFERENCES events(id) ON DELETE CASCADE,
			FOREIGN KEY (group_id) REFERENCES presentation_groups(id) ON DELETE CASCADE,
			FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE,
			FOREIGN KEY (voting_session_id) REFERENCES voting_sessions(id) ON DELETE CASCADE,
			UNIQUE(event_id, group_id, user_id),
			UNIQUE(event_id, group_id, voting_session_id)
		)`,
		`CREATE TABLE IF NOT EXISTS ratings (
			vote_id INTEGER NOT NULL,
			category_id INTEGER NOT NULL,
			stars INTEGER NOT NULL CHECK (stars BETWEEN 1 AND 5),
			PRIMARY KEY (vote_id, category_id),
			FOREIGN KEY (vote_id) REFERENCES votes(id) ON DELETE CASCADE,
			FOREIGN KEY (category_id) REFERENCES categories(id) ON DELETE CASCADE
		)`,
		`CREATE INDEX IF NOT EXISTS idx_events_host ON events(host_id)`,
		`CREATE INDEX IF NOT EXISTS idx_categories_event ON categories(event_id)`,
		`CREATE INDEX IF NOT EXISTS idx_groups_event ON presentation_groups(event_id)`,
		`CREATE INDEX IF NOT EXISTS idx_members_user ON group_members(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_event ON voting_sessions(event_id, last_active)`,
		`CREATE INDEX IF NOT EXISTS idx_votes_event_group ON votes(event_id, group_id)`,
	}

	for _, migration := range migrations {
		if _, err := r.db.Exec(migration); err != nil {
			return err
		}
	}
	return nil
}

// withTx runs fn inside a transaction, rolling back on error.
// fn must only use tx: the pool holds a single connection.
func (r *Repository) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

// execAffecting runs an update and reports ErrNotFound when no row matched
func (r *Repository) execAffecting(ctx context.Context, query string, args ...interface{}) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// isUniqueViolation reports whether err is a UNIQUE or PRIMARY KEY constraint failure
func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func nullTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.UTC()
}

func nullInt(i *int) interface{} {
	if i == nil {
		return nil
	}
	return *i
}

func nullInt64(i *int64) interface{} {
	if i == nil {
		return nil
	}
	return *i
}

func timePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time.UTC()
	return &t
}

func intPtr(ni sql.NullInt64) *int {
	if !ni.Valid {
		return nil
	}
	v := int(ni.Int64)
	return &v
}

func int64Ptr(ni sql.NullInt64) *int64 {
	if !ni.Valid {
		return nil
	}
	v := ni.Int64
	return &v
}

// ==================== User Methods ====================

// CreateUser inserts an account; the email must be unique
func (r *Repository) CreateUser(ctx context.Context, email, name, passwordHash string, now time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		INSERT INTO users (email, name, password_hash, created_at) VALUES (?, ?, ?, ?)
	`, email, name, passwordHash, now.UTC())
	if err != nil {
		if isUniqueViolation(err) {
			return 0, ErrDuplicate
		}
		return 0, err
	}
	return result.LastInsertId()
}

const userColumns = `id, email, name, password_hash, created_at`

func scanUser(row scanner) (*models.User, error) {
	var u models.User
	var createdAt sql.NullTime
	if err := row.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &createdAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	u.CreatedAt = createdAt.Time.UTC()
	return &u, nil
}

// GetUser retrieves a user by id
func (r *Repository) GetUser(ctx context.Context, id int64) (*models.User, error) {
	return scanUser(r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id))
}

// GetUserByEmail retrieves a user by email
func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return scanUser(r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email))
}

// UpdateUserName renames an account
func (r *Repository) UpdateUserName(ctx context.Context, id int64, name string) error {
	return r.execAffecting(ctx, `UPDATE users SET name = ? WHERE id = ?`, name, id)
}

// UpdateUserEmail changes an account's email; the new email must be unique
func (r *Repository) UpdateUserEmail(ctx context.Context, id int64, email string) error {
	err := r.execAffecting(ctx, `UPDATE users SET email = ? WHERE id = ?`, email, id)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

// UpdateUserPassword replaces an account's password hash
func (r *Repository) UpdateUserPassword(ctx context.Context, id int64, passwordHash string) error {
	return r.execAffecting(ctx, `UPDATE users SET password_hash = ? WHERE id = ?`, passwordHash, id)
}

// DeleteUser removes an account. Hosted events, memberships and the user's votes cascade.
func (r *Repository) DeleteUser(ctx context.Context, id int64) error {
	return r.execAffecting(ctx, `DELETE FROM users WHERE id = ?`, id)
}

// ==================== Event Methods ====================

const eventColumns = `id, host_id, name, description, join_code, status, submissions_closed,
	current_presentation_id, timer_started_at, timer_duration, timer_paused_at, timer_paused_remaining,
	winners_reveal_step, confetti_count, confetti_triggered_at, created_at`

func scanEvent(row scanner) (*models.Event, error) {
	var e models.Event
	var description sql.NullString
	var status string
	var currentPresentation, timerDuration, pausedRemaining sql.NullInt64
	var timerStarted, timerPaused, confettiAt, createdAt sql.NullTime
	err := row.Scan(&e.ID, &e.HostID, &e.Name, &description, &e.JoinCode, &status, &e.SubmissionsClosed,
		&currentPresentation, &timerStarted, &timerDuration, &timerPaused, &pausedRemaining,
		&e.WinnersRevealStep, &e.ConfettiCount, &confettiAt, &createdAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	e.Description = description.String
	e.Status = models.EventStatus(status)
	e.CurrentPresentationID = int64Ptr(currentPresentation)
	e.Timer = models.Timer{
		StartedAt:       timePtr(timerStarted),
		Duration:        intPtr(timerDuration),
		PausedAt:        timePtr(timerPaused),
		PausedRemaining: intPtr(pausedRemaining),
	}
	e.ConfettiTriggeredAt = timePtr(confettiAt)
	e.CreatedAt = createdAt.Time.UTC()
	return &e, nil
}

// CreateEvent inserts an event and its categories in one transaction
func (r *Repository) CreateEvent(ctx context.Context, hostID int64, name, description, joinCode string, categories []models.Category, now time.Time) (int64, error) {
	var eventID int64
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `
			INSERT INTO events (host_id, name, description, join_code, status, created_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`, hostID, name, description, joinCode, string(models.EventSetup), now.UTC())
		if err != nil {
			return err
		}
		if eventID, err = result.LastInsertId(); err != nil {
			return err
		}
		for _, c := range categories {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO categories (event_id, name, description, sort_order) VALUES (?, ?, ?, ?)
			`, eventID, c.Name, c.Description, c.Order); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if isUniqueViolation(err) {
			return 0, ErrDuplicate
		}
		return 0, err
	}
	return eventID, nil
}

// GetEvent retrieves an event by id
func (r *Repository) GetEvent(ctx context.Context, id int64) (*models.Event, error) {
	return scanEvent(r.db.QueryRowContext(ctx, `SELECT `+eventColumns+` FROM events WHERE id = ?`, id))
}

// GetEventByJoinCode retrieves an event by its join code
func (r *Repository) GetEventByJoinCode(ctx context.Context, joinCode string) (*models.Event, error) {
	return scanEvent(r.db.QueryRowContext(ctx, `SELECT `+eventColumns+` FROM events WHERE join_code = ?`, joinCode))
}

// ListEventsByHost returns a host's events, newest first
func (r *Repository) ListEventsByHost(ctx context.Context, hostID int64) ([]models.Event, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+eventColumns+` FROM events WHERE host_id = ? ORDER BY created_at DESC, id DESC
	`, hostID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []models.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, *e)
	}
	return events, rows.Err()
}

// DeleteEvent removes an event; categories, groups, sessions and votes cascade
func (r *Repository) DeleteEvent(ctx context.Context, id int64) error {
	return r.execAffecting(ctx, `DELETE FROM events WHERE id = ?`, id)
}

// UpdateEventDetails changes an event's name and description
func (r *Repository) UpdateEventDetails(ctx context.Context, id int64, name, description string) error {
	return r.execAffecting(ctx, `UPDATE events SET name = ?, description = ? WHERE id = ?`, name, description, id)
}

// SetSubmissionsClosed opens or closes presentation submissions
func (r *Repository) SetSubmissionsClosed(ctx context.Context, id int64, closed bool) error {
	return r.execAffecting(ctx, `UPDATE events SET submissions_closed = ? WHERE id = ?`, closed, id)
}

// ActivateEvent moves an event from setup to live.
// Returns false when the event was not in setup.
func (r *Repository) ActivateEvent(ctx context.Context, id int64) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE events SET status = ? WHERE id = ? AND status = ?
	`, string(models.EventLive), id, string(models.EventSetup))
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	return n > 0, err
}

// SetEventStatus sets the event status
func (r *Repository) SetEventStatus(ctx context.Context, id int64, status models.EventStatus) error {
	return r.execAffecting(ctx, `UPDATE events SET status = ? WHERE id = ?`, string(status), id)
}

// CompleteEvent marks the event completed, clears the current presentation and resets the reveal
func (r *Repository) CompleteEvent(ctx context.Context, id int64) error {
	return r.execAffecting(ctx, `
		UPDATE events SET status = ?, current_presentation_id = NULL, winners_reveal_step = 0 WHERE id = ?
	`, string(models.EventCompleted), id)
}

// SetCurrentPresentation points the event at a group, or clears it with nil
func (r *Repository) SetCurrentPresentation(ctx context.Context, id int64, groupID *int64) error {
	return r.execAffecting(ctx, `UPDATE events SET current_presentation_id = ? WHERE id = ?`, nullInt64(groupID), id)
}

// SetRevealStep stores the winners reveal step
func (r *Repository) SetRevealStep(ctx context.Context, id int64, step int) error {
	return r.execAffecting(ctx, `UPDATE events SET winners_reveal_step = ? WHERE id = ?`, step, id)
}

// IncrementConfetti bumps the confetti counter in SQL and returns the new value
func (r *Repository) IncrementConfetti(ctx context.Context, id int64, at time.Time) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `
		UPDATE events SET confetti_count = confetti_count + 1, confetti_triggered_at = ?
		WHERE id = ?
		RETURNING confetti_count
	`, at.UTC(), id).Scan(&count)
	if err == sql.ErrNoRows {
		return 0, ErrNotFound
	}
	return count, err
}

// SetTimer overwrites all stored timer fields
func (r *Repository) SetTimer(ctx context.Context, id int64, timer models.Timer) error {
	return r.execAffecting(ctx, `
		UPDATE events SET timer_started_at = ?, timer_duration = ?, timer_paused_at = ?, timer_paused_remaining = ?
		WHERE id = ?
	`, nullTime(timer.StartedAt), nullInt(timer.Duration), nullTime(timer.PausedAt), nullInt(timer.PausedRemaining), id)
}

// ==================== Category Methods ====================

// ListCategories returns an event's categories in display order
func (r *Repository) ListCategories(ctx context.Context, eventID int64) ([]models.Category, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, event_id, name, description, sort_order
		FROM categories WHERE event_id = ? ORDER BY sort_order, id
	`, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []models.Category
	for rows.Next() {
		var c models.Category
		var description sql.NullString
		if err := rows.Scan(&c.ID, &c.EventID, &c.Name, &description, &c.Order); err != nil {
			return nil, err
		}
		c.Description = description.String
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// ReorderCategories assigns sort_order = index for every category of the event.
// categoryIDs must list each of the event's categories exactly once.
func (r *Repository) ReorderCategories(ctx context.Context, eventID int64, categoryIDs []int64) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		existing, err := queryIDs(ctx, tx, `SELECT id FROM categories WHERE event_id = ?`, eventID)
		if err != nil {
			return err
		}
		if !sameIDSet(existing, categoryIDs, true) {
			return ErrOrderMismatch
		}
		// Park every row on a unique negative value so the UNIQUE(event_id, sort_order) index never collides
		if _, err := tx.ExecContext(ctx, `UPDATE categories SET sort_order = -id WHERE event_id = ?`, eventID); err != nil {
			return err
		}
		for i, id := range categoryIDs {
			if _, err := tx.ExecContext(ctx, `UPDATE categories SET sort_order = ? WHERE id = ? AND event_id = ?`, i, id, eventID); err != nil {
				return err
			}
		}
		return nil
	})
}

// ReplaceCategories makes categories the event's full category list, ordered by index.
// Entries with an ID keep that row (and its ratings) under the new name; entries
// without one are inserted; existing rows not listed are deleted with their ratings.
func (r *Repository) ReplaceCategories(ctx context.Context, eventID int64, categories []models.Category) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		existing, err := queryIDs(ctx, tx, `SELECT id FROM categories WHERE event_id = ?`, eventID)
		if err != nil {
			return err
		}
		var kept []int64
		for _, c := range categories {
			if c.ID != 0 {
				kept = append(kept, c.ID)
			}
		}
		if !sameIDSet(existing, kept, false) {
			return ErrOrderMismatch
		}

		if _, err := tx.ExecContext(ctx, `UPDATE categories SET sort_order = -id WHERE event_id = ?`, eventID); err != nil {
			return err
		}
		keep := make(map[int64]bool, len(kept))
		for _, id := range kept {
			keep[id] = true
		}
		for _, id := range existing {
			if keep[id] {
				continue
			}
			if _, err := tx.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id); err != nil {
				return err
			}
		}

		for i, c := range categories {
			if c.ID != 0 {
				_, err = tx.ExecContext(ctx, `
					UPDATE categories SET name = ?, description = ?, sort_order = ? WHERE id = ? AND event_id = ?
				`, c.Name, c.Description, i, c.ID, eventID)
			} else {
				_, err = tx.ExecContext(ctx, `
					INSERT INTO categories (event_id, name, description, sort_order) VALUES (?, ?, ?, ?)
				`, eventID, c.Name, c.Description, i)
			}
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// queryIDs reads a single id column to completion
func queryIDs(ctx context.Context, tx *sql.Tx, query string, args ...interface{}) ([]int64, error) {
	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// sameIDSet reports whether want contains no duplicates and only ids from have.
// With exact set, it must also cover all of have.
func sameIDSet(have, want []int64, exact bool) bool {
	owned := make(map[int64]bool, len(have))
	for _, id := range have {
		owned[id] = true
	}
	seen := make(map[int64]bool, len(want))
	for _, id := range want {
		if !owned[id] || seen[id] {
			return false
		}
		seen[id] = true
	}
	return !exact || len(seen) == len(owned)
}

// ==================== Group Methods ====================

const groupColumns = `id, event_id, name, emoji, invite_code, status, submission_link, submitted_at, presentation_order`

func scanGroup(row scanner) (*models.Group, error) {
	var g models.Group
	var emoji, link sql.NullString
	var status string
	var submittedAt sql.NullTime
	var order sql.NullInt64
	if err := row.Scan(&g.ID, &g.EventID, &g.Name, &emoji, &g.InviteCode, &status, &link, &submittedAt, &order); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	g.Emoji = emoji.String
	g.Status = models.GroupStatus(status)
	g.SubmissionLink = link.String
	g.SubmittedAt = timePtr(submittedAt)
	g.PresentationOrder = intPtr(order)
	return &g, nil
}

// CreateGroup inserts a group with its creator as leader
func (r *Repository) CreateGroup(ctx context.Context, eventID, leaderID int64, name, emoji, inviteCode string, now time.Time) (int64, error) {
	var groupID int64
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `
			INSERT INTO presentation_groups (event_id, name, emoji, invite_code, status, created_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`, eventID, name, emoji, inviteCode, string(models.GroupNotSubmitted), now.UTC())
		if err != nil {
			return err
		}
		if groupID, err = result.LastInsertId(); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO group_members (group_id, user_id, is_leader, joined_at) VALUES (?, ?, 1, ?)
		`, groupID, leaderID, now.UTC())
		return err
	})
	if err != nil {
		if isUniqueViolation(err) {
			return 0, ErrDuplicate
		}
		return 0, err
	}
	return groupID, nil
}

// GetGroup retrieves a group by id
func (r *Repository) GetGroup(ctx context.Context, id int64) (*models.Group, error) {
	return scanGroup(r.db.QueryRowContext(ctx, `SELECT `+groupColumns+` FROM presentation_groups WHERE id = ?`, id))
}

// GetGroupByInviteCode retrieves a group by invite code
func (r *Repository) GetGroupByInviteCode(ctx context.Context, inviteCode string) (*models.Group, error) {
	return scanGroup(r.db.QueryRowContext(ctx, `SELECT `+groupColumns+` FROM presentation_groups WHERE invite_code = ?`, inviteCode))
}

// ListGroups returns an event's groups in presentation order (unordered groups last) with members
func (r *Repository) ListGroups(ctx context.Context, eventID int64) ([]models.Group, error) {
	groups, err := r.listGroupRows(ctx, eventID)
	if err != nil {
		return nil, err
	}
	members, err := r.listEventMembers(ctx, eventID)
	if err != nil {
		return nil, err
	}
	for i := range groups {
		groups[i].Members = members[groups[i].ID]
	}
	return groups, nil
}

func (r *Repository) listGroupRows(ctx context.Context, eventID int64) ([]models.Group, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+groupColumns+` FROM presentation_groups
		WHERE event_id = ?
		ORDER BY presentation_order IS NULL, presentation_order, id
	`, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var groups []models.Group
	for rows.Next() {
		g, err := scanGroup(rows)
		if err != nil {
			return nil, err
		}
		groups = append(groups, *g)
	}
	return groups, rows.Err()
}

func (r *Repository) listEventMembers(ctx context.Context, eventID int64) (map[int64][]models.GroupMember, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT gm.group_id, gm.user_id, u.name, gm.is_leader
		FROM group_members gm
		JOIN presentation_groups g ON g.id = gm.group_id
		JOIN users u ON u.id = gm.user_id
		WHERE g.event_id = ?
		ORDER BY gm.is_leader DESC, gm.joined_at, gm.user_id
	`, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	members := make(map[int64][]models.GroupMember)
	for rows.Next() {
		var m models.GroupMember
		if err := rows.Scan(&m.GroupID, &m.UserID, &m.UserName, &m.IsLeader); err != nil {
			return nil, err
		}
		members[m.GroupID] = append(members[m.GroupID], m)
	}
	return members, rows.Err()
}

// AddGroupMember adds a user to a group
func (r *Repository) AddGroupMember(ctx context.Context, groupID, userID int64, isLeader bool, now time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO group_members (group_id, user_id, is_leader, joined_at) VALUES (?, ?, ?, ?)
	`, groupID, userID, isLeader, now.UTC())
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

// RemoveGroupMember deletes one membership
func (r *Repository) RemoveGroupMember(ctx context.Context, groupID, userID int64) error {
	return r.execAffecting(ctx, `DELETE FROM group_members WHERE group_id = ? AND user_id = ?`, groupID, userID)
}

// RemoveParticipant deletes a user's memberships in every group of the event.
// Returns the number of memberships removed.
func (r *Repository) RemoveParticipant(ctx context.Context, eventID, userID int64) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM group_members
		WHERE user_id = ? AND group_id IN (SELECT id FROM presentation_groups WHERE event_id = ?)
	`, userID, eventID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// UpdateGroup renames a group and changes its emoji
func (r *Repository) UpdateGroup(ctx context.Context, id int64, name, emoji string) error {
	return r.execAffecting(ctx, `UPDATE presentation_groups SET name = ?, emoji = ? WHERE id = ?`, name, emoji, id)
}

// DeleteGroup removes a group; memberships, votes and ratings cascade and
// an event presenting it loses its current presentation
func (r *Repository) DeleteGroup(ctx context.Context, id int64) error {
	return r.execAffecting(ctx, `DELETE FROM presentation_groups WHERE id = ?`, id)
}

// GetMembership returns a user's membership of a group
func (r *Repository) GetMembership(ctx context.Context, groupID, userID int64) (*models.GroupMember, error) {
	var m models.GroupMember
	err := r.db.QueryRowContext(ctx, `
		SELECT group_id, user_id, is_leader FROM group_members WHERE group_id = ? AND user_id = ?
	`, groupID, userID).Scan(&m.GroupID, &m.UserID, &m.IsLeader)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// SubmitGroup records a presentation submission
func (r *Repository) SubmitGroup(ctx context.Context, groupID int64, link string, status models.GroupStatus, at time.Time) error {
	return r.execAffecting(ctx, `
		UPDATE presentation_groups SET submission_link = ?, status = ?, submitted_at = ? WHERE id = ?
	`, link, string(status), at.UTC(), groupID)
}

// ReorderPresentations replaces the whole presentation order of an event.
// Listed groups get positions 0..n-1; unlisted groups lose their position.
func (r *Repository) ReorderPresentations(ctx context.Context, eventID int64, groupIDs []int64) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		existing, err := queryIDs(ctx, tx, `SELECT id FROM presentation_groups WHERE event_id = ?`, eventID)
		if err != nil {
			return err
		}
		if !sameIDSet(existing, groupIDs, false) {
			return ErrOrderMismatch
		}
		if _, err := tx.ExecContext(ctx, `UPDATE presentation_groups SET presentation_order = NULL WHERE event_id = ?`, eventID); err != nil {
			return err
		}
		for i, id := range groupIDs {
			if _, err := tx.ExecContext(ctx, `
				UPDATE presentation_groups SET presentation_order = ? WHERE id = ? AND event_id = ?
			`, i, id, eventID); err != nil {
				return err
			}
		}
		return nil
	})
}

// ListParticipantIDs returns the distinct users that belong to any group of the event
func (r *Repository) ListParticipantIDs(ctx context.Context, eventID int64) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT DISTINCT gm.user_id
		FROM group_members gm
		JOIN presentation_groups g ON g.id = gm.group_id
		WHERE g.event_id = ?
		ORDER BY gm.user_id
	`, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ==================== Voting Session Methods ====================

const sessionColumns = `id, event_id, session_code, display_name, last_active, created_at`

func scanSession(row scanner) (*models.VotingSession, error) {
	var s models.VotingSession
	if err := row.Scan(&s.ID, &s.EventID, &s.SessionCode, &s.DisplayName, &s.LastActive, &s.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	s.LastActive = s.LastActive.UTC()
	s.CreatedAt = s.CreatedAt.UTC()
	return &s, nil
}

// CreateVotingSession inserts an anonymous voter; the session code must be unique
func (r *Repository) CreateVotingSession(ctx context.Context, eventID int64, sessionCode, displayName string, now time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		INSERT INTO voting_sessions (event_id, session_code, display_name, last_active, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, eventID, sessionCode, displayName, now.UTC(), now.UTC())
	if err != nil {
		if isUniqueViolation(err) {
			return 0, ErrDuplicate
		}
		return 0, err
	}
	return result.LastInsertId()
}

// GetVotingSession retrieves a voting session by id
func (r *Repository) GetVotingSession(ctx context.Context, id int64) (*models.VotingSession, error) {
	return scanSession(r.db.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM voting_sessions WHERE id = ?`, id))
}

// GetVotingSessionByCode retrieves a voting session by its code
func (r *Repository) GetVotingSessionByCode(ctx context.Context, sessionCode string) (*models.VotingSession, error) {
	return scanSession(r.db.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM voting_sessions WHERE session_code = ?`, sessionCode))
}

// TouchVotingSession updates last_active
func (r *Repository) TouchVotingSession(ctx context.Context, id int64, now time.Time) error {
	return r.execAffecting(ctx, `UPDATE voting_sessions SET last_active = ? WHERE id = ?`, now.UTC(), id)
}

// ListActiveVotingSessions returns sessions of the event active at or after since
func (r *Repository) ListActiveVotingSessions(ctx context.Context, eventID int64, since time.Time) ([]models.VotingSession, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+sessionColumns+` FROM voting_sessions
		WHERE event_id = ? AND last_active >= ?
		ORDER BY created_at, id
	`, eventID, since.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []models.VotingSession
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *s)
	}
	return sessions, rows.Err()
}

// DeleteVotingSession removes a session with its votes and ratings
func (r *Repository) DeleteVotingSession(ctx context.Context, id int64) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			DELETE FROM ratings WHERE vote_id IN (SELECT id FROM votes WHERE voting_session_id = ?)
		`, id); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM votes WHERE voting_session_id = ?`, id); err != nil {
			return err
		}
		result, err := tx.ExecContext(ctx, `DELETE FROM voting_sessions WHERE id = ?`, id)
		if err != nil {
			return err
		}
		if n, err := result.RowsAffected(); err != nil {
			return err
		} else if n == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// ==================== Vote Methods ====================

var errInvalidVoter = errors.New("vote needs exactly one of user or voting session")

// voterClause returns the predicate selecting a voter's rows in votes
func voterClause(voter models.VoterIdentity) (string, int64, error) {
	if !voter.Valid() {
		return "", 0, errInvalidVoter
	}
	if voter.UserID != nil {
		return "user_id = ?", *voter.UserID, nil
	}
	return "voting_session_id = ?", *voter.VotingSessionID, nil
}

// findOrCreateVote returns the vote id for (event, group, voter), inserting it when missing
func findOrCreateVote(ctx context.Context, tx *sql.Tx, eventID, groupID int64, voter models.VoterIdentity, now time.Time) (int64, error) {
	clause, voterID, err := voterClause(voter)
	if err != nil {
		return 0, err
	}
	now = now.UTC()

	var voteID int64
	err = tx.QueryRowContext(ctx, `
		SELECT id FROM votes WHERE event_id = ? AND group_id = ? AND `+clause,
		eventID, groupID, voterID).Scan(&voteID)
	switch {
	case err == nil:
		_, err = tx.ExecContext(ctx, `UPDATE votes SET updated_at = ? WHERE id = ?`, now, voteID)
		return voteID, err
	case err != sql.ErrNoRows:
		return 0, err
	}

	result, err := tx.ExecContext(ctx, `
		INSERT INTO votes (event_id, group_id, user_id, voting_session_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, eventID, groupID, nullInt64(voter.UserID), nullInt64(voter.VotingSessionID), now, now)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// ReplaceVoteRatings creates the voter's vote if needed and replaces all its ratings
// (delete-then-insert) in one transaction. Returns the vote id.
func (r *Repository) ReplaceVoteRatings(ctx context.Context, eventID, groupID int64, voter models.VoterIdentity, ratings []models.RatingInput, now time.Time) (int64, error) {
	var voteID int64
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		if voteID, err = findOrCreateVote(ctx, tx, eventID, groupID, voter, now); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM ratings WHERE vote_id = ?`, voteID); err != nil {
			return err
		}
		for _, rt := range ratings {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO ratings (vote_id, category_id, stars) VALUES (?, ?, ?)
			`, voteID, rt.CategoryID, rt.Stars); err != nil {
				return err
			}
		}
		return nil
	})
	return voteID, err
}

// UpsertRating sets one category's stars on the voter's vote, creating the vote on first use
func (r *Repository) UpsertRating(ctx context.Context, eventID, groupID int64, voter models.VoterIdentity, categoryID int64, stars int, now time.Time) (int64, error) {
	var voteID int64
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		if voteID, err = findOrCreateVote(ctx, tx, eventID, groupID, voter, now); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO ratings (vote_id, category_id, stars) VALUES (?, ?, ?)
			ON CONFLICT(vote_id, category_id) DO UPDATE SET stars = excluded.stars
		`, voteID, categoryID, stars)
		return err
	})
	return voteID, err
}

const voteSelect = `
	SELECT v.id, v.event_id, v.group_id, v.user_id, v.voting_session_id, v.updated_at, r.category_id, r.stars
	FROM votes v
	LEFT JOIN ratings r ON r.vote_id = v.id
`

// collectVotes folds joined vote/rating rows into votes, preserving row order
func collectVotes(rows *sql.Rows) ([]models.Vote, error) {
	defer rows.Close()

	var votes []models.Vote
	index := make(map[int64]int)
	for rows.Next() {
		var v models.Vote
		var userID, sessionID, categoryID, stars sql.NullInt64
		var updatedAt sql.NullTime
		if err := rows.Scan(&v.ID, &v.EventID, &v.GroupID, &userID, &sessionID, &updatedAt, &categoryID, &stars); err != nil {
			return nil, err
		}
		i, ok := index[v.ID]
		if !ok {
			v.Voter = models.VoterIdentity{UserID: int64Ptr(userID), VotingSessionID: int64Ptr(sessionID)}
			v.UpdatedAt = updatedAt.Time.UTC()
			v.Ratings = []models.Rating{}
			votes = append(votes, v)
			i = len(votes) - 1
			index[v.ID] = i
		}
		if categoryID.Valid {
			votes[i].Ratings = append(votes[i].Ratings, models.Rating{
				VoteID:     v.ID,
				CategoryID: categoryID.Int64,
				Stars:      int(stars.Int64),
			})
		}
	}
	return votes, rows.Err()
}

// GetVoterVote returns the voter's vote for a group
func (r *Repository) GetVoterVote(ctx context.Context, eventID, groupID int64, voter models.VoterIdentity) (*models.Vote, error) {
	clause, voterID, err := voterClause(voter)
	if err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx, voteSelect+`
		WHERE v.event_id = ? AND v.group_id = ? AND v.`+clause+`
		ORDER BY v.id, r.category_id
	`, eventID, groupID, voterID)
	if err != nil {
		return nil, err
	}
	votes, err := collectVotes(rows)
	if err != nil {
		return nil, err
	}
	if len(votes) == 0 {
		return nil, ErrNotFound
	}
	return &votes[0], nil
}

// ListVoterVotes returns all of a voter's votes in the event
func (r *Repository) ListVoterVotes(ctx context.Context, eventID int64, voter models.VoterIdentity) ([]models.Vote, error) {
	clause, voterID, err := voterClause(voter)
	if err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx, voteSelect+`
		WHERE v.event_id = ? AND v.`+clause+`
		ORDER BY v.group_id, v.id, r.category_id
	`, eventID, voterID)
	if err != nil {
		return nil, err
	}
	return collectVotes(rows)
}

// ListEventVotes returns every vote of the event with its ratings
func (r *Repository) ListEventVotes(ctx context.Context, eventID int64) ([]models.Vote, error) {
	rows, err := r.db.QueryContext(ctx, voteSelect+`
		WHERE v.event_id = ?
		ORDER BY v.id, r.category_id
	`, eventID)
	if err != nil {
		return nil, err
	}
	return collectVotes(rows)
}

// DeleteEventVotes removes all votes and ratings of an event; returns the number of votes removed
func (r *Repository) DeleteEventVotes(ctx context.Context, eventID int64) (int64, error) {
	var removed int64
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			DELETE FROM ratings WHERE vote_id IN (SELECT id FROM votes WHERE event_id = ?)
		`, eventID); err != nil {
			return err
		}
		result, err := tx.ExecContext(ctx, `DELETE FROM votes WHERE event_id = ?`, eventID)
		if err != nil {
			return err
		}
		removed, err = result.RowsAffected()
		return err
	})
	return removed, err
}
