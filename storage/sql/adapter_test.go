package sql

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sig-0/p2prates/provider/currencies"
	"github.com/sig-0/p2prates/storage"
	"github.com/sig-0/p2prates/storage/types"
)

type (
	execDelegate     func(context.Context, string, ...any) (pgconn.CommandTag, error)
	queryDelegate    func(context.Context, string, ...any) (pgx.Rows, error)
	queryRowDelegate func(context.Context, string, ...any) pgx.Row
)

type mockDB struct {
	execFn     execDelegate
	queryFn    queryDelegate
	queryRowFn queryRowDelegate
}

func (m *mockDB) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if m.execFn != nil {
		return m.execFn(ctx, sql, args...)
	}

	return pgconn.CommandTag{}, nil
}

func (m *mockDB) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if m.queryFn != nil {
		return m.queryFn(ctx, sql, args...)
	}

	return &fakeRows{}, nil
}

func (m *mockDB) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if m.queryRowFn != nil {
		return m.queryRowFn(ctx, sql, args...)
	}

	return &fakeRow{values: []any{int64(0)}}
}

// fakeRow scans the held values into the destinations, by position
type fakeRow struct {
	err    error
	values []any
}

func (r *fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}

	return assign(r.values, dest)
}

type fakeRows struct {
	err  error
	rows [][]any
	pos  int
}

func (r *fakeRows) Close()                                       {}
func (r *fakeRows) Err() error                                   { return r.err }
func (r *fakeRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *fakeRows) Values() ([]any, error)                       { return r.rows[r.pos-1], nil }
func (r *fakeRows) RawValues() [][]byte                          { return nil }
func (r *fakeRows) Conn() *pgx.Conn                              { return nil }

func (r *fakeRows) Next() bool {
	if r.pos >= len(r.rows) {
		return false
	}

	r.pos++

	return true
}

func (r *fakeRows) Scan(dest ...any) error {
	return assign(r.rows[r.pos-1], dest)
}

func assign(values, dest []any) error {
	if len(values) != len(dest) {
		return errors.New("column count mismatch")
	}

	for i, v := range values {
		switch d := dest[i].(type) {
		case *string:
			*d, _ = v.(string)
		case *int64:
			*d, _ = v.(int64)
		case *pgtype.Numeric:
			*d, _ = v.(pgtype.Numeric)
		case *pgtype.Timestamptz:
			*d, _ = v.(pgtype.Timestamptz)
		default:
			return errors.New("unsupported destination")
		}
	}

	return nil
}

func snapshotRow(id string, fiat types.Currency, pct float64, at time.Time) []any {
	return []any{
		id,
		fiat.String(),
		currencies.USDT.String(),
		floatToNumeric(4.05),
		floatToNumeric(4.40),
		floatToNumeric(pct),
		"bybit",
		"binance",
		timeToTimestampz(at),
	}
}

func TestStorage_SaveSpread(t *testing.T) {
	t.Parallel()

	t.Run("valid snapshot", func(t *testing.T) {
		t.Parallel()

		var (
			capturedSQL  string
			capturedArgs []any

			recordedAt = time.Date(2025, 3, 1, 10, 0, 0, 0, time.FixedZone("CET", 3600))
		)

		db := &mockDB{
			execFn: func(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
				capturedSQL = sql
				capturedArgs = args

				return pgconn.NewCommandTag("INSERT 0 1"), nil
			},
		}

		s := NewStorage(db)

		err := s.SaveSpread(context.Background(), &types.SpreadSnapshot{
			ID:         "snap-1",
			RecordedAt: recordedAt,
			SpreadResult: types.SpreadResult{
				Fiat:         currencies.PLN,
				Crypto:       currencies.USDT,
				BuyPrice:     4.05,
				SellPrice:    4.40,
				SpreadPct:    8.64,
				BuyExchange:  "bybit",
				SellExchange: "binance",
			},
		})
		require.NoError(t, err)

		assert.Equal(t, saveSpread, capturedSQL)
		require.Len(t, capturedArgs, 9)

		assert.Equal(t, "snap-1", capturedArgs[0])
		assert.Equal(t, "PLN", capturedArgs[1])
		assert.Equal(t, "USDT", capturedArgs[2])
		assert.Equal(t, 8.64, numericToFloat(capturedArgs[5].(pgtype.Numeric)))

		ts, ok := capturedArgs[8].(pgtype.Timestamptz)
		require.True(t, ok)
		assert.Equal(t, time.UTC, ts.Time.Location())
		assert.True(t, ts.Time.Equal(recordedAt))
	})

	t.Run("exec error", func(t *testing.T) {
		t.Parallel()

		execErr := errors.New("connection reset")

		db := &mockDB{
			execFn: func(context.Context, string, ...any) (pgconn.CommandTag, error) {
				return pgconn.CommandTag{}, execErr
			},
		}

		err := NewStorage(db).SaveSpread(context.Background(), &types.SpreadSnapshot{ID: "x"})

		assert.ErrorIs(t, err, execErr)
	})
}

func TestStorage_Spreads(t *testing.T) {
	t.Parallel()

	t.Run("page of snapshots", func(t *testing.T) {
		t.Parallel()

		var (
			now       = time.Now().UTC().Truncate(time.Second)
			queryArgs []any
			countArgs []any
		)

		db := &mockDB{
			queryRowFn: func(_ context.Context, _ string, args ...any) pgx.Row {
				countArgs = args

				return &fakeRow{values: []any{int64(7)}}
			},
			queryFn: func(_ context.Context, sql string, args ...any) (pgx.Rows, error) {
				assert.Equal(t, listSpreads, sql)
				queryArgs = args

				return &fakeRows{
					rows: [][]any{
						snapshotRow("b", currencies.PLN, 8.64, now),
						snapshotRow("a", currencies.PLN, 1.5, now.Add(-time.Minute)),
					},
				}, nil
			},
		}

		fiat := currencies.PLN

		page, err := NewStorage(db).Spreads(
			context.Background(),
			&types.SpreadQuery{Fiat: &fiat, Limit: 2, Offset: 1},
		)
		require.NoError(t, err)

		assert.EqualValues(t, 7, page.Total)
		require.Len(t, page.Results, 2)

		first := page.Results[0]
		assert.Equal(t, "b", first.ID)
		assert.Equal(t, currencies.PLN, first.Fiat)
		assert.Equal(t, currencies.USDT, first.Crypto)
		assert.Equal(t, 4.05, first.BuyPrice)
		assert.Equal(t, 4.40, first.SellPrice)
		assert.Equal(t, 8.64, first.SpreadPct)
		assert.Equal(t, "bybit", first.BuyExchange)
		assert.Equal(t, "binance", first.SellExchange)
		assert.True(t, first.RecordedAt.Equal(now))

		require.Len(t, countArgs, 1)
		assert.Equal(t, pgtype.Text{String: "PLN", Valid: true}, countArgs[0])

		require.Len(t, queryArgs, 3)
		assert.Equal(t, pgtype.Text{String: "PLN", Valid: true}, queryArgs[0])
		assert.Equal(t, int32(2), queryArgs[1])
		assert.Equal(t, int64(1), queryArgs[2])
	})

	t.Run("default limit, no fiat filter", func(t *testing.T) {
		t.Parallel()

		var queryArgs []any

		db := &mockDB{
			queryRowFn: func(context.Context, string, ...any) pgx.Row {
				return &fakeRow{values: []any{int64(1)}}
			},
			queryFn: func(_ context.Context, _ string, args ...any) (pgx.Rows, error) {
				queryArgs = args

				return &fakeRows{}, nil
			},
		}

		_, err := NewStorage(db).Spreads(context.Background(), &types.SpreadQuery{})
		require.NoError(t, err)

		require.Len(t, queryArgs, 3)
		assert.Equal(t, pgtype.Text{}, queryArgs[0])
		assert.Equal(t, int32(storage.DefaultPageLimit), queryArgs[1])
	})

	t.Run("empty table skips the listing", func(t *testing.T) {
		t.Parallel()

		db := &mockDB{
			queryFn: func(context.Context, string, ...any) (pgx.Rows, error) {
				t.Fatal("unexpected listing query")

				return nil, nil
			},
		}

		page, err := NewStorage(db).Spreads(context.Background(), &types.SpreadQuery{})
		require.NoError(t, err)

		assert.Zero(t, page.Total)
		assert.Nil(t, page.Results)
	})

	t.Run("offset past the end", func(t *testing.T) {
		t.Parallel()

		db := &mockDB{
			queryRowFn: func(context.Context, string, ...any) pgx.Row {
				return &fakeRow{values: []any{int64(3)}}
			},
			queryFn: func(context.Context, string, ...any) (pgx.Rows, error) {
				t.Fatal("unexpected listing query")

				return nil, nil
			},
		}

		page, err := NewStorage(db).Spreads(context.Background(), &types.SpreadQuery{Offset: 3})
		require.NoError(t, err)

		assert.EqualValues(t, 3, page.Total)
		assert.Nil(t, page.Results)
	})

	t.Run("count error", func(t *testing.T) {
		t.Parallel()

		countErr := errors.New("relation does not exist")

		db := &mockDB{
			queryRowFn: func(context.Context, string, ...any) pgx.Row {
				return &fakeRow{err: countErr}
			},
		}

		_, err := NewStorage(db).Spreads(context.Background(), &types.SpreadQuery{})

		assert.ErrorIs(t, err, countErr)
	})

	t.Run("rows error", func(t *testing.T) {
		t.Parallel()

		rowsErr := errors.New("conn closed")

		db := &mockDB{
			queryRowFn: func(context.Context, string, ...any) pgx.Row {
				return &fakeRow{values: []any{int64(1)}}
			},
			queryFn: func(context.Context, string, ...any) (pgx.Rows, error) {
				return &fakeRows{err: rowsErr}, nil
			},
		}

		_, err := NewStorage(db).Spreads(context.Background(), &types.SpreadQuery{})

		assert.ErrorIs(t, err, rowsErr)
	})
}

func TestNumericConversion(t *testing.T) {
	t.Parallel()

	for _, v := range []float64{0, 4.05, 0.93, 65000.1, 8.64, -1.25} {
		assert.Equal(t, v, numericToFloat(floatToNumeric(v)))
	}

	assert.Zero(t, numericToFloat(pgtype.Numeric{}))
	assert.Equal(t, 1.5, numericToFloat(pgtype.Numeric{Int: big.NewInt(15), Exp: -1, Valid: true}))
}
