package scenestore

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ashfall-games/scenecaster/internal/scenemodel"
)

// mockRow implements pgx.Row for testing.
type mockRow struct {
	scanFunc func(dest ...any) error
}

func (r *mockRow) Scan(dest ...any) error { return r.scanFunc(dest...) }

// mockRows implements pgx.Rows for testing.
type mockRows struct {
	rows []Record
	idx  int
}

func (r *mockRows) Close()                                       {}
func (r *mockRows) Err() error                                   { return nil }
func (r *mockRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *mockRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *mockRows) RawValues() [][]byte                          { return nil }
func (r *mockRows) Conn() *pgx.Conn                              { return nil }
func (r *mockRows) Values() ([]any, error)                       { return nil, nil }

func (r *mockRows) Next() bool {
	if r.idx >= len(r.rows) {
		return false
	}
	r.idx++
	return true
}

func (r *mockRows) Scan(dest ...any) error {
	rec := r.rows[r.idx-1]
	descJSON, err := json.Marshal(rec.Descriptor)
	if err != nil {
		return err
	}
	ctxJSON, err := json.Marshal(rec.Context)
	if err != nil {
		return err
	}
	assetsJSON, err := marshalAssets(rec.Assets)
	if err != nil {
		return err
	}
	*dest[0].(*string) = rec.SceneID
	*dest[1].(*string) = rec.PlayerID
	*dest[2].(*int) = rec.Turn
	*dest[3].(*string) = string(rec.Status)
	*dest[4].(*[]byte) = descJSON
	*dest[5].(*[]byte) = ctxJSON
	*dest[6].(*[]byte) = assetsJSON
	*dest[7].(*time.Time) = rec.CreatedAt
	*dest[8].(*time.Time) = rec.UpdatedAt
	return nil
}

// mockDB implements the DB interface for testing.
type mockDB struct {
	queryRowFunc func(ctx context.Context, sql string, args ...any) pgx.Row
	queryFunc    func(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	execFunc     func(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func (m *mockDB) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if m.queryRowFunc != nil {
		return m.queryRowFunc(ctx, sql, args...)
	}
	return &mockRow{scanFunc: func(dest ...any) error { return pgx.ErrNoRows }}
}

func (m *mockDB) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if m.queryFunc != nil {
		return m.queryFunc(ctx, sql, args...)
	}
	return &mockRows{}, nil
}

func (m *mockDB) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if m.execFunc != nil {
		return m.execFunc(ctx, sql, args...)
	}
	return pgconn.CommandTag{}, nil
}

func TestPostgresStore_Upsert(t *testing.T) {
	t.Parallel()
	now := time.Now().UTC()
	db := &mockDB{
		queryRowFunc: func(ctx context.Context, sql string, args ...any) pgx.Row {
			return &mockRow{scanFunc: func(dest ...any) error {
				*dest[0].(*time.Time) = now
				*dest[1].(*time.Time) = now
				return nil
			}}
		},
	}
	s := NewPostgresStore(db)
	err := s.Upsert(context.Background(), Record{SceneID: "scene-1", Status: scenemodel.StatusPending})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
}

func TestPostgresStore_FindBySceneID_NotFound(t *testing.T) {
	t.Parallel()
	db := &mockDB{}
	s := NewPostgresStore(db)
	_, err := s.FindBySceneID(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestPostgresStore_FindBySceneID_ScansRecord(t *testing.T) {
	t.Parallel()
	want := Record{
		SceneID:   "scene-1",
		PlayerID:  "p1",
		Turn:      3,
		Status:    scenemodel.StatusReady,
		Assets:    &scenemodel.Assets{ImageURL: "https://img/a.png"},
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	db := &mockDB{
		queryRowFunc: func(ctx context.Context, sql string, args ...any) pgx.Row {
			rows := &mockRows{rows: []Record{want}}
			rows.Next()
			return rowFromRows(rows)
		},
	}
	s := NewPostgresStore(db)
	got, err := s.FindBySceneID(context.Background(), "scene-1")
	if err != nil {
		t.Fatalf("FindBySceneID: %v", err)
	}
	if got.SceneID != want.SceneID || got.Status != want.Status {
		t.Errorf("got = %+v, want %+v", got, want)
	}
	if got.Assets == nil || got.Assets.ImageURL != want.Assets.ImageURL {
		t.Errorf("Assets = %+v, want %+v", got.Assets, want.Assets)
	}
}

// rowFromRows adapts a positioned mockRows into a pgx.Row for QueryRow tests.
func rowFromRows(r *mockRows) pgx.Row {
	return &mockRow{scanFunc: r.Scan}
}

func TestPostgresStore_UpdateStatusAndAssets_ReadyWinsFallsBackToFind(t *testing.T) {
	t.Parallel()
	ready := Record{SceneID: "scene-1", Status: scenemodel.StatusReady, CreatedAt: time.Now().UTC(), UpdatedAt: time.Now().UTC()}
	db := &mockDB{
		execFunc: func(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
			return pgconn.NewCommandTag("UPDATE 0"), nil
		},
		queryRowFunc: func(ctx context.Context, sql string, args ...any) pgx.Row {
			rows := &mockRows{rows: []Record{ready}}
			rows.Next()
			return rowFromRows(rows)
		},
	}
	s := NewPostgresStore(db)
	err := s.UpdateStatusAndAssets(context.Background(), "scene-1", scenemodel.StatusOffline, nil)
	if err != nil {
		t.Fatalf("UpdateStatusAndAssets: %v", err)
	}
}

func TestPostgresStore_UpdateStatusAndAssets_MissingSceneReturnsNotFound(t *testing.T) {
	t.Parallel()
	db := &mockDB{
		execFunc: func(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
			return pgconn.NewCommandTag("UPDATE 0"), nil
		},
	}
	s := NewPostgresStore(db)
	err := s.UpdateStatusAndAssets(context.Background(), "missing", scenemodel.StatusOffline, nil)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestPostgresStore_FindPending_ScansMultipleRows(t *testing.T) {
	t.Parallel()
	recs := []Record{
		{SceneID: "a", Status: scenemodel.StatusPending, CreatedAt: time.Now().UTC()},
		{SceneID: "b", Status: scenemodel.StatusPending, CreatedAt: time.Now().UTC()},
	}
	db := &mockDB{
		queryFunc: func(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
			return &mockRows{rows: recs}, nil
		},
	}
	s := NewPostgresStore(db)
	got, err := s.FindPending(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("FindPending: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len(got) = %d, want 2", len(got))
	}
}
