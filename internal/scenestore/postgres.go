package scenestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ashfall-games/scenecaster/internal/scenemodel"
)

// Schema is the SQL DDL for the scenes table.
const Schema = `
CREATE TABLE IF NOT EXISTS scenes (
    scene_id     TEXT PRIMARY KEY,
    player_id    TEXT NOT NULL DEFAULT '',
    turn         INTEGER NOT NULL DEFAULT 0,
    status       TEXT NOT NULL,
    descriptor   JSONB NOT NULL,
    context      JSONB NOT NULL,
    assets       JSONB,
    created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_scenes_player_created ON scenes(player_id, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_scenes_status ON scenes(status) WHERE status = 'pending';
`

// DB is the database interface used by [PostgresStore]. Both *pgxpool.Pool
// and *pgx.Conn satisfy this interface.
type DB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresStore is a [Store] backed by PostgreSQL, persisting the descriptor,
// context, and assets of each scene record as JSONB columns.
type PostgresStore struct {
	db DB
}

// Compile-time interface check.
var _ Store = (*PostgresStore)(nil)

// NewPostgresStore creates a [PostgresStore] using the given database
// connection or pool. Callers must run [PostgresStore.Migrate] before
// issuing queries.
func NewPostgresStore(db DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// NewPool constructs a [pgxpool.Pool] for dsn and pings it, making an
// unreachable store a startup failure rather than a first-request surprise.
func NewPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("scenestore: parse dsn: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("scenestore: create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("scenestore: ping: %w", err)
	}
	return pool, nil
}

// Migrate executes the [Schema] DDL, creating the scenes table and indexes
// if they do not already exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("scenestore: migrate: %w", err)
	}
	return nil
}

// Upsert implements [Store.Upsert].
func (s *PostgresStore) Upsert(ctx context.Context, rec Record) error {
	descJSON, err := json.Marshal(rec.Descriptor)
	if err != nil {
		return fmt.Errorf("scenestore: marshal descriptor: %w", err)
	}
	ctxJSON, err := json.Marshal(rec.Context)
	if err != nil {
		return fmt.Errorf("scenestore: marshal context: %w", err)
	}
	assetsJSON, err := marshalAssets(rec.Assets)
	if err != nil {
		return err
	}

	const query = `
		INSERT INTO scenes (scene_id, player_id, turn, status, descriptor, context, assets)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (scene_id) DO UPDATE SET
			player_id = EXCLUDED.player_id,
			turn = EXCLUDED.turn,
			status = EXCLUDED.status,
			descriptor = EXCLUDED.descriptor,
			context = EXCLUDED.context,
			assets = EXCLUDED.assets,
			updated_at = now()
		RETURNING created_at, updated_at`

	err = s.db.QueryRow(ctx, query,
		rec.SceneID, rec.PlayerID, rec.Turn, string(rec.Status), descJSON, ctxJSON, assetsJSON,
	).Scan(&rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return fmt.Errorf("scenestore: upsert %q: %w", rec.SceneID, err)
	}
	return nil
}

// UpdateStatusAndAssets implements [Store.UpdateStatusAndAssets]. The
// WHERE status <> 'ready' guard is the SQL expression of the "ready wins"
// conditional update: once a scene is ready, a straggling retry's update
// becomes a silent no-op rather than overwriting fresher assets.
func (s *PostgresStore) UpdateStatusAndAssets(ctx context.Context, sceneID string, status scenemodel.Status, assets *scenemodel.Assets) error {
	assetsJSON, err := marshalAssets(assets)
	if err != nil {
		return err
	}

	const query = `
		UPDATE scenes SET status = $2, assets = $3, updated_at = now()
		WHERE scene_id = $1 AND status <> 'ready'`

	tag, err := s.db.Exec(ctx, query, sceneID, string(status), assetsJSON)
	if err != nil {
		return fmt.Errorf("scenestore: update status %q: %w", sceneID, err)
	}
	if tag.RowsAffected() == 0 {
		// Either the scene does not exist, or it is already ready and the
		// conditional update correctly declined to overwrite it. The lookup
		// below tells them apart: a missing scene returns ErrNotFound.
		if _, err := s.FindBySceneID(ctx, sceneID); err != nil {
			return err
		}
	}
	return nil
}

// FindBySceneID implements [Store.FindBySceneID].
func (s *PostgresStore) FindBySceneID(ctx context.Context, sceneID string) (Record, error) {
	const query = `
		SELECT scene_id, player_id, turn, status, descriptor, context, assets, created_at, updated_at
		FROM scenes WHERE scene_id = $1`

	return scanRecord(s.db.QueryRow(ctx, query, sceneID))
}

// FindPending implements [Store.FindPending].
func (s *PostgresStore) FindPending(ctx context.Context, olderThan time.Time) ([]Record, error) {
	const query = `
		SELECT scene_id, player_id, turn, status, descriptor, context, assets, created_at, updated_at
		FROM scenes WHERE status = 'pending' AND created_at < $1
		ORDER BY created_at`

	rows, err := s.db.Query(ctx, query, olderThan)
	if err != nil {
		return nil, fmt.Errorf("scenestore: find pending: %w", err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

// ListByPlayer implements [Store.ListByPlayer].
func (s *PostgresStore) ListByPlayer(ctx context.Context, playerID string, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 50
	}
	const query = `
		SELECT scene_id, player_id, turn, status, descriptor, context, assets, created_at, updated_at
		FROM scenes WHERE player_id = $1
		ORDER BY created_at DESC
		LIMIT $2`

	rows, err := s.db.Query(ctx, query, playerID, limit)
	if err != nil {
		return nil, fmt.Errorf("scenestore: list by player: %w", err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

func marshalAssets(assets *scenemodel.Assets) ([]byte, error) {
	if assets == nil {
		return nil, nil
	}
	b, err := json.Marshal(assets)
	if err != nil {
		return nil, fmt.Errorf("scenestore: marshal assets: %w", err)
	}
	return b, nil
}

func scanRecord(row pgx.Row) (Record, error) {
	var (
		rec        Record
		status     string
		descJSON   []byte
		ctxJSON    []byte
		assetsJSON []byte
	)
	err := row.Scan(&rec.SceneID, &rec.PlayerID, &rec.Turn, &status, &descJSON, &ctxJSON, &assetsJSON, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Record{}, ErrNotFound
		}
		return Record{}, fmt.Errorf("scenestore: scan: %w", err)
	}
	rec.Status = scenemodel.Status(status)
	if err := json.Unmarshal(descJSON, &rec.Descriptor); err != nil {
		return Record{}, fmt.Errorf("scenestore: unmarshal descriptor: %w", err)
	}
	if err := json.Unmarshal(ctxJSON, &rec.Context); err != nil {
		return Record{}, fmt.Errorf("scenestore: unmarshal context: %w", err)
	}
	if len(assetsJSON) > 0 {
		var assets scenemodel.Assets
		if err := json.Unmarshal(assetsJSON, &assets); err != nil {
			return Record{}, fmt.Errorf("scenestore: unmarshal assets: %w", err)
		}
		rec.Assets = &assets
	}
	return rec, nil
}

func scanRecords(rows pgx.Rows) ([]Record, error) {
	var out []Record
	for rows.Next() {
		var (
			rec        Record
			status     string
			descJSON   []byte
			ctxJSON    []byte
			assetsJSON []byte
		)
		if err := rows.Scan(&rec.SceneID, &rec.PlayerID, &rec.Turn, &status, &descJSON, &ctxJSON, &assetsJSON, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scenestore: scan: %w", err)
		}
		rec.Status = scenemodel.Status(status)
		if err := json.Unmarshal(descJSON, &rec.Descriptor); err != nil {
			return nil, fmt.Errorf("scenestore: unmarshal descriptor: %w", err)
		}
		if err := json.Unmarshal(ctxJSON, &rec.Context); err != nil {
			return nil, fmt.Errorf("scenestore: unmarshal context: %w", err)
		}
		if len(assetsJSON) > 0 {
			var assets scenemodel.Assets
			if err := json.Unmarshal(assetsJSON, &assets); err != nil {
				return nil, fmt.Errorf("scenestore: unmarshal assets: %w", err)
			}
			rec.Assets = &assets
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("scenestore: rows: %w", err)
	}
	return out, nil
}
