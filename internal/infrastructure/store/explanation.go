package store

import (
	"context"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/jmoiron/sqlx"

	"skincare-ingredients/internal/pkg/common"
)

const explanationTable = "explanation_cache"

// 可寫入說明快取的來源
var explanationSources = map[string]bool{
	"knowledge": true,
	"ai":        true,
	"fallback":  true,
}

// ExplanationRecord 快取的成分說明
type ExplanationRecord struct {
	Name      string
	Role      string
	Text      string
	Source    string
	UpdatedAt time.Time
}

type explanationRow struct {
	ID              string    `db:"id"`
	NormalizedName  string    `db:"normalized_name"`
	Role            string    `db:"role"`
	ExplanationText string    `db:"explanation_text"`
	Source          string    `db:"source"`
	UpdatedAt       time.Time `db:"updated_at"`
}

func (r explanationRow) toRecord() (ExplanationRecord, error) {
	if r.NormalizedName == "" {
		return ExplanationRecord{}, fmt.Errorf("%w: empty normalized_name", common.ErrMalformedRow)
	}
	if r.Role == "" {
		return ExplanationRecord{}, fmt.Errorf("%w: empty role", common.ErrMalformedRow)
	}
	if !explanationSources[r.Source] {
		return ExplanationRecord{}, fmt.Errorf("%w: unknown source %q", common.ErrMalformedRow, r.Source)
	}
	return ExplanationRecord{
		Name:      r.NormalizedName,
		Role:      r.Role,
		Text:      r.ExplanationText,
		Source:    r.Source,
		UpdatedAt: r.UpdatedAt,
	}, nil
}

// ExplanationCache explanation_cache 資料表
type ExplanationCache struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewExplanationCache 創建說明快取
func NewExplanationCache(db *sqlx.DB) *ExplanationCache {
	return &ExplanationCache{db: db, now: time.Now}
}

// GetMany 以單一 IN 查詢讀取多筆說明
func (c *ExplanationCache) GetMany(ctx context.Context, names []string) (map[string]ExplanationRecord, error) {
	out := make(map[string]ExplanationRecord, len(names))
	if len(names) == 0 {
		return out, nil
	}

	query, args, err := dialect.From(explanationTable).
		Select("id", "normalized_name", "role", "explanation_text", "source", "updated_at").
		Where(goqu.C("normalized_name").In(names)).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, &common.StoreError{Table: explanationTable, Op: "build select", Err: err}
	}

	var rows []explanationRow
	if err := c.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, &common.StoreError{Table: explanationTable, Op: "select", Err: err}
	}

	for _, row := range rows {
		rec, err := row.toRecord()
		if err != nil {
			return nil, &common.StoreError{Table: explanationTable, Op: "decode", Key: row.NormalizedName, Err: err}
		}
		out[rec.Name] = rec
	}
	return out, nil
}

// UpsertMany 以單一語句新增或更新多筆說明；同名記錄以最後一筆為準
func (c *ExplanationCache) UpsertMany(ctx context.Context, records []ExplanationRecord) error {
	if len(records) == 0 {
		return nil
	}

	now := c.now().UTC()
	index := make(map[string]int, len(records))
	rows := make([]interface{}, 0, len(records))
	for _, rec := range records {
		if rec.Name == "" || !explanationSources[rec.Source] {
			return &common.StoreError{
				Table: explanationTable,
				Op:    "upsert",
				Key:   rec.Name,
				Err:   fmt.Errorf("%w: name %q source %q", common.ErrMalformedRow, rec.Name, rec.Source),
			}
		}
		updatedAt := rec.UpdatedAt
		if updatedAt.IsZero() {
			updatedAt = now
		}
		row := explanationRow{
			ID:              common.GenerateUUID(),
			NormalizedName:  rec.Name,
			Role:            rec.Role,
			ExplanationText: rec.Text,
			Source:          rec.Source,
			UpdatedAt:       updatedAt,
		}
		if i, seen := index[rec.Name]; seen {
			rows[i] = row
			continue
		}
		index[rec.Name] = len(rows)
		rows = append(rows, row)
	}

	query, args, err := dialect.Insert(explanationTable).
		Rows(rows...).
		OnConflict(goqu.DoUpdate("normalized_name", goqu.Record{
			"role":             goqu.L("EXCLUDED.role"),
			"explanation_text": goqu.L("EXCLUDED.explanation_text"),
			"source":           goqu.L("EXCLUDED.source"),
			"updated_at":       goqu.L("EXCLUDED.updated_at"),
		})).
		Prepared(true).
		ToSQL()
	if err != nil {
		return &common.StoreError{Table: explanationTable, Op: "build upsert", Err: err}
	}

	if _, err := c.db.ExecContext(ctx, query, args...); err != nil {
		return &common.StoreError{Table: explanationTable, Op: "upsert", Err: err}
	}
	return nil
}
