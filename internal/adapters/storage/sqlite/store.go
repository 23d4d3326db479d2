package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/randomtoy/cyberdamus-go/internal/domain"
	"github.com/randomtoy/cyberdamus-go/internal/ports"
)

// Store implements ports.Store on a SQLite database.
type Store struct {
	conn *sql.DB
}

var _ ports.Store = (*Store)(nil)

// Close closes the database connection.
func (s *Store) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type scanner interface {
	Scan(dest ...any) error
}

const oracleColumns = `authority, treasury, fee, fortune_counter, artwork_complete, artwork_version, artwork_updated_at`

const fortuneColumns = `fortune_id, owner, card_past, card_present, card_future, timestamp, round, rarity, entropy_seed`

func (s *Store) WithinUnitOfWork(ctx context.Context, fn func(ctx context.Context, uow ports.UnitOfWork) error) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		return fn(ctx, &unitOfWork{q: tx})
	})
}

func (s *Store) InitializeOracle(ctx context.Context, st domain.OracleState) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		var n int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM card_library`).Scan(&n); err != nil {
			return fmt.Errorf("count artwork: %w", err)
		}
		res, err := tx.ExecContext(ctx, `
			INSERT INTO oracle_state (id, `+oracleColumns+`)
			VALUES (1, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (id) DO NOTHING`,
			st.Authority[:], st.Treasury[:], int64(st.Fee), int64(st.FortuneCounter),
			n == domain.PoolSize, st.ArtworkVersion, st.ArtworkUpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert oracle state: %w", err)
		}
		if affected, err := res.RowsAffected(); err != nil {
			return fmt.Errorf("insert oracle state: %w", err)
		} else if affected == 0 {
			return domain.ErrAlreadyInitialized
		}
		return nil
	})
}

func (s *Store) OracleState(ctx context.Context) (domain.OracleState, error) {
	return loadOracle(ctx, s.conn)
}

func (s *Store) GetFortune(ctx context.Context, id uint64) (domain.Fortune, error) {
	row := s.conn.QueryRowContext(ctx, `SELECT `+fortuneColumns+` FROM fortunes WHERE fortune_id = ?`, int64(id))
	f, err := scanFortune(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Fortune{}, fmt.Errorf("%w: %d", domain.ErrFortuneNotFound, id)
	}
	if err != nil {
		return domain.Fortune{}, fmt.Errorf("get fortune %d: %w", id, err)
	}
	return f, nil
}

func (s *Store) ListFortunes(ctx context.Context, owner domain.Identity, limit int) ([]domain.Fortune, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.conn.QueryContext(ctx,
		`SELECT `+fortuneColumns+` FROM fortunes WHERE owner = ? ORDER BY fortune_id DESC LIMIT ?`,
		owner[:], limit)
	if err != nil {
		return nil, fmt.Errorf("list fortunes: %w", err)
	}
	defer rows.Close()

	var out []domain.Fortune
	for rows.Next() {
		f, err := scanFortune(rows)
		if err != nil {
			return nil, fmt.Errorf("scan fortune: %w", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (s *Store) GetUsage(ctx context.Context, id domain.Identity) (domain.UsageRecord, error) {
	return loadUsage(ctx, s.conn, id)
}

func (s *Store) ArtworkCount(ctx context.Context) (int, error) {
	var n int
	if err := s.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM card_library`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count artwork: %w", err)
	}
	return n, nil
}

func (s *Store) IsFullyPopulated(ctx context.Context) (bool, error) {
	n, err := s.ArtworkCount(ctx)
	return n == domain.PoolSize, err
}

func (s *Store) PutArtwork(ctx context.Context, start int, svgs []string, now int64) (int, error) {
	if start < 0 || start+len(svgs) > domain.PoolSize {
		return 0, fmt.Errorf("%w: slots [%d,%d)", domain.ErrInvalidCardID, start, start+len(svgs))
	}

	var count int
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := loadOracle(ctx, tx); err != nil {
			return err
		}
		for i, svg := range svgs {
			id := start + i
			if svg == "" {
				if _, err := tx.ExecContext(ctx, `DELETE FROM card_library WHERE card_id = ?`, id); err != nil {
					return fmt.Errorf("clear card %d: %w", id, err)
				}
				continue
			}
			_, err := tx.ExecContext(ctx, `
				INSERT INTO card_library (card_id, svg, updated_at) VALUES (?, ?, ?)
				ON CONFLICT (card_id) DO UPDATE SET svg = excluded.svg, updated_at = excluded.updated_at`,
				id, svg, now)
			if err != nil {
				return fmt.Errorf("store card %d: %w", id, err)
			}
		}

		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM card_library`).Scan(&count); err != nil {
			return fmt.Errorf("count artwork: %w", err)
		}
		_, err := tx.ExecContext(ctx, `
			UPDATE oracle_state
			SET artwork_updated_at = ?, artwork_complete = artwork_complete OR ?
			WHERE id = 1`,
			now, count == domain.PoolSize)
		if err != nil {
			return fmt.Errorf("update oracle state: %w", err)
		}
		return nil
	})
	return count, err
}

func (s *Store) GetArtwork(ctx context.Context, id domain.CardID) (string, error) {
	var svg string
	err := s.conn.QueryRowContext(ctx, `SELECT svg FROM card_library WHERE card_id = ?`, int(id)).Scan(&svg)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w: %d", domain.ErrInvalidCardID, id)
	}
	if err != nil {
		return "", fmt.Errorf("get artwork %d: %w", id, err)
	}
	return svg, nil
}

func loadOracle(ctx context.Context, q querier) (domain.OracleState, error) {
	var (
		st                  domain.OracleState
		authority, treasury []byte
		fee, counter        int64
	)
	err := q.QueryRowContext(ctx, `SELECT `+oracleColumns+` FROM oracle_state WHERE id = 1`).Scan(
		&authority, &treasury, &fee, &counter, &st.ArtworkComplete, &st.ArtworkVersion, &st.ArtworkUpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.OracleState{}, domain.ErrNotInitialized
	}
	if err != nil {
		return domain.OracleState{}, fmt.Errorf("load oracle state: %w", err)
	}
	copy(st.Authority[:], authority)
	copy(st.Treasury[:], treasury)
	st.Fee = uint64(fee)
	st.FortuneCounter = uint64(counter)
	return st, nil
}

func loadUsage(ctx context.Context, q querier, id domain.Identity) (domain.UsageRecord, error) {
	rec := domain.UsageRecord{Identity: id}
	var total int64
	err := q.QueryRowContext(ctx, `
		SELECT daily_count, last_reset_day, cooldown_until, total_fortunes, last_fortune_timestamp
		FROM user_records WHERE identity = ?`, id[:]).Scan(
		&rec.DailyCount, &rec.LastResetDay, &rec.CooldownUntil, &total, &rec.LastDrawTimestamp)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.NewUsageRecord(id), nil
	}
	if err != nil {
		return domain.UsageRecord{}, fmt.Errorf("load usage: %w", err)
	}
	rec.TotalDraws = uint64(total)
	return rec, nil
}

func scanFortune(row scanner) (domain.Fortune, error) {
	var (
		f                     domain.Fortune
		id, round             int64
		owner, seed           []byte
		past, present, future int
		rarity                string
	)
	if err := row.Scan(&id, &owner, &past, &present, &future, &f.Timestamp, &round, &rarity, &seed); err != nil {
		return domain.Fortune{}, err
	}
	r, err := domain.ParseRarity(rarity)
	if err != nil {
		return domain.Fortune{}, err
	}
	f.ID = uint64(id)
	f.Round = uint64(round)
	f.Rarity = r
	f.Cards = [3]domain.CardID{domain.CardID(past), domain.CardID(present), domain.CardID(future)}
	copy(f.Owner[:], owner)
	copy(f.Seed[:], seed)
	return f, nil
}

// unitOfWork runs every call on the enclosing transaction.
type unitOfWork struct {
	q querier
}

func (u *unitOfWork) OracleState(ctx context.Context) (domain.OracleState, error) {
	return loadOracle(ctx, u.q)
}

func (u *unitOfWork) AllocateSequence(ctx context.Context) (uint64, error) {
	var seq int64
	err := u.q.QueryRowContext(ctx, `
		UPDATE oracle_state SET fortune_counter = fortune_counter + 1
		WHERE id = 1
		RETURNING fortune_counter - 1`).Scan(&seq)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, domain.ErrNotInitialized
	}
	if err != nil {
		return 0, fmt.Errorf("allocate sequence: %w", err)
	}
	return uint64(seq), nil
}

func (u *unitOfWork) LoadUsage(ctx context.Context, id domain.Identity) (domain.UsageRecord, error) {
	return loadUsage(ctx, u.q, id)
}

func (u *unitOfWork) SaveUsage(ctx context.Context, rec domain.UsageRecord) error {
	_, err := u.q.ExecContext(ctx, `
		INSERT INTO user_records
			(identity, daily_count, last_reset_day, cooldown_until, total_fortunes, last_fortune_timestamp)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (identity) DO UPDATE SET
			daily_count = excluded.daily_count,
			last_reset_day = excluded.last_reset_day,
			cooldown_until = excluded.cooldown_until,
			total_fortunes = excluded.total_fortunes,
			last_fortune_timestamp = excluded.last_fortune_timestamp`,
		rec.Identity[:], rec.DailyCount, rec.LastResetDay, rec.CooldownUntil,
		int64(rec.TotalDraws), rec.LastDrawTimestamp)
	if err != nil {
		return fmt.Errorf("save usage: %w", err)
	}
	return nil
}

func (u *unitOfWork) SaveFortune(ctx context.Context, f domain.Fortune) error {
	_, err := u.q.ExecContext(ctx,
		`INSERT INTO fortunes (`+fortuneColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		int64(f.ID), f.Owner[:], int(f.Cards[0]), int(f.Cards[1]), int(f.Cards[2]),
		f.Timestamp, int64(f.Round), f.Rarity.String(), f.Seed[:])
	if err != nil {
		return fmt.Errorf("save fortune %d: %w", f.ID, err)
	}
	return nil
}

func (u *unitOfWork) RecordFee(ctx context.Context, t ports.FeeTransfer) error {
	_, err := u.q.ExecContext(ctx, `
		INSERT INTO fee_transfers (fortune_id, payer, treasury, amount, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		int64(t.FortuneID), t.Payer[:], t.Treasury[:], int64(t.Amount), t.Timestamp)
	if err != nil {
		return fmt.Errorf("record fee: %w", err)
	}
	return nil
}

// FeeTotal returns the sum of fees charged to payer.
func (s *Store) FeeTotal(ctx context.Context, payer domain.Identity) (uint64, error) {
	var total int64
	err := s.conn.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM fee_transfers WHERE payer = ?`, payer[:]).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum fees: %w", err)
	}
	return uint64(total), nil
}
