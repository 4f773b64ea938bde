package sql

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/sig-0/p2prates/storage"
	"github.com/sig-0/p2prates/storage/types"
)

// DBTX is the query surface shared by pgx.Conn, pgxpool.Pool and pgx.Tx
type DBTX interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Query(context.Context, string, ...any) (pgx.Rows, error)
	QueryRow(context.Context, string, ...any) pgx.Row
}

const saveSpread = `
INSERT INTO spread_snapshots (id, fiat, crypto, buy_price, sell_price, spread_pct, buy_exchange, sell_exchange, recorded_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (id) DO NOTHING
`

const countSpreads = `
SELECT COUNT(*)
FROM spread_snapshots
WHERE ($1::text IS NULL OR fiat = $1)
`

const listSpreads = `
SELECT id, fiat, crypto, buy_price, sell_price, spread_pct, buy_exchange, sell_exchange, recorded_at
FROM spread_snapshots
WHERE ($1::text IS NULL OR fiat = $1)
ORDER BY recorded_at DESC, id ASC
LIMIT $2 OFFSET $3
`

type Storage struct {
	db DBTX
}

func NewStorage(db DBTX) *Storage {
	return &Storage{
		db: db,
	}
}

func (s *Storage) SaveSpread(ctx context.Context, snapshot *types.SpreadSnapshot) error {
	_, err := s.db.Exec(
		ctx,
		saveSpread,
		snapshot.ID,
		snapshot.Fiat.String(),
		snapshot.Crypto.String(),
		floatToNumeric(snapshot.BuyPrice),
		floatToNumeric(snapshot.SellPrice),
		floatToNumeric(snapshot.SpreadPct),
		snapshot.BuyExchange,
		snapshot.SellExchange,
		timeToTimestampz(snapshot.RecordedAt),
	)
	if err != nil {
		return fmt.Errorf("unable to save spread snapshot: %w", err)
	}

	return nil
}

func (s *Storage) Spreads(
	ctx context.Context,
	query *types.SpreadQuery,
) (*types.Page[*types.SpreadSnapshot], error) {
	fiat := pgtype.Text{}
	if query.Fiat != nil {
		fiat = pgtype.Text{String: query.Fiat.String(), Valid: true}
	}

	var total int64
	if err := s.db.QueryRow(ctx, countSpreads, fiat).Scan(&total); err != nil {
		return nil, fmt.Errorf("unable to count spread snapshots: %w", err)
	}

	if total == 0 || query.Offset >= total {
		return &types.Page[*types.SpreadSnapshot]{
			Results: nil,
			Total:   total,
		}, nil // valid case
	}

	rows, err := s.db.Query(
		ctx,
		listSpreads,
		fiat,
		storage.PageLimit(query.Limit),
		max(query.Offset, 0),
	)
	if err != nil {
		return nil, fmt.Errorf("unable to fetch spread snapshots: %w", err)
	}
	defer rows.Close()

	items := make([]*types.SpreadSnapshot, 0)

	for rows.Next() {
		snapshot, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("unable to scan spread snapshot: %w", err)
		}

		items = append(items, snapshot)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("unable to fetch spread snapshots: %w", err)
	}

	return &types.Page[*types.SpreadSnapshot]{
		Results: items,
		Total:   total,
	}, nil
}

// scanSnapshot parses the postgres row to the common Go type
func scanSnapshot(row pgx.Row) (*types.SpreadSnapshot, error) {
	var (
		id, fiat, crypto          string
		buyExchange, sellExchange string
		buy, sell, pct            pgtype.Numeric
		recordedAt                pgtype.Timestamptz
	)

	if err := row.Scan(
		&id,
		&fiat,
		&crypto,
		&buy,
		&sell,
		&pct,
		&buyExchange,
		&sellExchange,
		&recordedAt,
	); err != nil {
		return nil, err
	}

	return &types.SpreadSnapshot{
		ID:         id,
		RecordedAt: timestampzToTime(recordedAt),
		SpreadResult: types.SpreadResult{
			Fiat:         types.Currency(fiat),
			Crypto:       types.Currency(crypto),
			BuyPrice:     numericToFloat(buy),
			SellPrice:    numericToFloat(sell),
			SpreadPct:    numericToFloat(pct),
			BuyExchange:  buyExchange,
			SellExchange: sellExchange,
		},
	}, nil
}

// floatToNumeric converts the float value to postgres numeric
func floatToNumeric(value float64) pgtype.Numeric {
	d := decimal.NewFromFloat(value)

	return pgtype.Numeric{
		Int:   d.Coefficient(),
		Exp:   d.Exponent(),
		Valid: true,
	}
}

// numericToFloat converts the postgres value to float
func numericToFloat(value pgtype.Numeric) float64 {
	if !value.Valid || value.Int == nil {
		return 0
	}

	return decimal.NewFromBigInt(value.Int, value.Exp).InexactFloat64()
}

// timeToTimestampz converts the time value to postgres timestamp
func timeToTimestampz(t time.Time) pgtype.Timestamptz {
	return pgtype.Timestamptz{
		Time:  t.UTC(),
		Valid: true,
	}
}

// timestampzToTime converts the postgres timestamp value to time
func timestampzToTime(ts pgtype.Timestamptz) time.Time {
	if !ts.Valid {
		return time.Time{}
	}

	return ts.Time.UTC()
}
