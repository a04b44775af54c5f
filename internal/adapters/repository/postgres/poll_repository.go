package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/gatherbot/gather/internal/core/domain"
	"github.com/gatherbot/gather/internal/core/ports"
)

type pollRepository struct {
	db *sql.DB
}

func NewPollRepository(db *sql.DB) ports.PollRepository {
	return &pollRepository{
		db: db,
	}
}

func (r *pollRepository) CreatePoll(ctx context.Context, creator, description, location, token string) (int64, error) {
	if description == "" {
		return 0, domain.ErrEmptyDescription
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	queryPoll := `
		INSERT INTO polls (creator, description, active)
		VALUES ($1, $2, TRUE)
		RETURNING id
	`
	var pollID int64
	err = tx.QueryRowContext(ctx, queryPoll, creator, description).Scan(&pollID)
	if err != nil {
		return 0, fmt.Errorf("failed to insert poll: %w", err)
	}

	querySurface := `
		INSERT INTO surfaces (location, token, poll_id)
		VALUES ($1, $2, $3)
	`
	_, err = tx.ExecContext(ctx, querySurface, location, token, pollID)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, domain.ErrSurfaceExists
		}
		return 0, fmt.Errorf("failed to insert surface: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return pollID, nil
}

func (r *pollRepository) RegisterSurface(ctx context.Context, token string, pollID int64) error {
	query := `
		INSERT INTO surfaces (location, token, poll_id)
		VALUES ('', $1, $2)
	`
	_, err := r.db.ExecContext(ctx, query, token, pollID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.ErrPollNotFound
		}
		if isUniqueViolation(err) {
			return domain.ErrSurfaceExists
		}
		return fmt.Errorf("failed to register surface: %w", err)
	}
	return nil
}

func (r *pollRepository) ResolvePoll(ctx context.Context, token, location string) (*domain.Poll, error) {
	// The inline path resolves by token alone; inline tokens carry a
	// dedicated uniqueness index since they have no owning location.
	var row *sql.Row
	if location != "" {
		query := `
			SELECT p.id, p.creator, p.description, p.active, p.created_at
			FROM polls p
			JOIN surfaces s ON s.poll_id = p.id
			WHERE s.location = $1 AND s.token = $2
		`
		row = r.db.QueryRowContext(ctx, query, location, token)
	} else {
		query := `
			SELECT p.id, p.creator, p.description, p.active, p.created_at
			FROM polls p
			JOIN surfaces s ON s.poll_id = p.id
			WHERE s.token = $1
		`
		row = r.db.QueryRowContext(ctx, query, token)
	}

	var poll domain.Poll
	err := row.Scan(&poll.ID, &poll.Creator, &poll.Description, &poll.Active, &poll.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrPollNotFound
		}
		return nil, fmt.Errorf("failed to resolve poll: %w", err)
	}
	return &poll, nil
}

func (r *pollRepository) GetPoll(ctx context.Context, pollID int64) (*domain.Poll, error) {
	query := `
		SELECT id, creator, description, active, created_at
		FROM polls
		WHERE id = $1
	`
	var poll domain.Poll
	err := r.db.QueryRowContext(ctx, query, pollID).Scan(
		&poll.ID, &poll.Creator, &poll.Description, &poll.Active, &poll.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrPollNotFound
		}
		return nil, fmt.Errorf("failed to get poll: %w", err)
	}
	return &poll, nil
}

// ToggleVote realizes "tap to vote, tap again to retract" inside a single
// transaction: lock the poll row, delete the vote, and insert it only
// when the delete affected nothing. The affected-row count is the sole
// membership check, so two concurrent taps from the same voter serialize
// on the row lock and collapse to a net toggle.
func (r *pollRepository) ToggleVote(ctx context.Context, voter, token, location string) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var lockRow *sql.Row
	if location != "" {
		queryLock := `
			SELECT p.id, p.active
			FROM polls p
			JOIN surfaces s ON s.poll_id = p.id
			WHERE s.location = $1 AND s.token = $2
			FOR UPDATE OF p
		`
		lockRow = tx.QueryRowContext(ctx, queryLock, location, token)
	} else {
		queryLock := `
			SELECT p.id, p.active
			FROM polls p
			JOIN surfaces s ON s.poll_id = p.id
			WHERE s.token = $1
			FOR UPDATE OF p
		`
		lockRow = tx.QueryRowContext(ctx, queryLock, token)
	}

	var pollID int64
	var active bool
	if err := lockRow.Scan(&pollID, &active); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, domain.ErrPollNotFound
		}
		return false, fmt.Errorf("failed to lock poll: %w", err)
	}

	// Closed polls silently ignore votes.
	if !active {
		return false, nil
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM votes WHERE voter = $1 AND poll_id = $2`, voter, pollID)
	if err != nil {
		return false, fmt.Errorf("failed to delete vote: %w", err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}

	if deleted == 0 {
		_, err = tx.ExecContext(ctx, `INSERT INTO votes (voter, poll_id) VALUES ($1, $2)`, voter, pollID)
		if err != nil {
			return false, fmt.Errorf("failed to insert vote: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return true, nil
}

func (r *pollRepository) ToggleActive(ctx context.Context, pollID int64) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var active bool
	err = tx.QueryRowContext(ctx, `SELECT active FROM polls WHERE id = $1 FOR UPDATE`, pollID).Scan(&active)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, domain.ErrPollNotFound
		}
		return false, fmt.Errorf("failed to read active flag: %w", err)
	}

	newActive := !active
	_, err = tx.ExecContext(ctx, `UPDATE polls SET active = $1 WHERE id = $2`, newActive, pollID)
	if err != nil {
		return false, fmt.Errorf("failed to update active flag: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return newActive, nil
}

func (r *pollRepository) ListSurfaces(ctx context.Context, pollID int64) ([]domain.Surface, error) {
	query := `
		SELECT poll_id, location, token
		FROM surfaces
		WHERE poll_id = $1
		ORDER BY created_at
	`
	rows, err := r.db.QueryContext(ctx, query, pollID)
	if err != nil {
		return nil, fmt.Errorf("failed to list surfaces: %w", err)
	}
	defer rows.Close()

	var surfaces []domain.Surface
	for rows.Next() {
		var s domain.Surface
		if err := rows.Scan(&s.PollID, &s.Location, &s.Token); err != nil {
			return nil, fmt.Errorf("failed to scan surface: %w", err)
		}
		surfaces = append(surfaces, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating surfaces: %w", err)
	}
	return surfaces, nil
}

func (r *pollRepository) ListVotes(ctx context.Context, pollID int64) ([]string, error) {
	query := `
		SELECT voter
		FROM votes
		WHERE poll_id = $1
		ORDER BY created_at
	`
	rows, err := r.db.QueryContext(ctx, query, pollID)
	if err != nil {
		return nil, fmt.Errorf("failed to list votes: %w", err)
	}
	defer rows.Close()

	var voters []string
	for rows.Next() {
		var voter string
		if err := rows.Scan(&voter); err != nil {
			return nil, fmt.Errorf("failed to scan vote: %w", err)
		}
		voters = append(voters, voter)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating votes: %w", err)
	}
	return voters, nil
}

func (r *pollRepository) ListOpenPolls(ctx context.Context, creator string) ([]*domain.Poll, error) {
	query := `
		SELECT id, creator, description, active, created_at
		FROM polls
		WHERE creator = $1 AND active
		ORDER BY created_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query, creator)
	if err != nil {
		return nil, fmt.Errorf("failed to list open polls: %w", err)
	}
	defer rows.Close()

	var polls []*domain.Poll
	for rows.Next() {
		var poll domain.Poll
		if err := rows.Scan(&poll.ID, &poll.Creator, &poll.Description, &poll.Active, &poll.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan poll: %w", err)
		}
		polls = append(polls, &poll)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating polls: %w", err)
	}
	return polls, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

func isForeignKeyViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23503"
}
