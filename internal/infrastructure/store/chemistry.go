package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/jmoiron/sqlx"

	"skincare-ingredients/internal/pkg/common"
)

const chemistryTable = "chemistry_cache"

// ChemistryRecord 快取的化學識別資料
type ChemistryRecord struct {
	CanonicalName   string
	ExternalID      int64
	MolecularWeight float64
	Properties      map[string]any
	CachedAt        time.Time
}

type chemistryRow struct {
	ID              string    `db:"id"`
	CanonicalName   string    `db:"canonical_name"`
	ExternalID      int64     `db:"external_id"`
	MolecularWeight float64   `db:"molecular_weight"`
	RawProperties   []byte    `db:"raw_properties"`
	CachedAt        time.Time `db:"cached_at"`
}

func (r chemistryRow) toRecord() (ChemistryRecord, error) {
	if r.CanonicalName == "" {
		return ChemistryRecord{}, fmt.Errorf("%w: empty canonical_name", common.ErrMalformedRow)
	}
	if r.ExternalID <= 0 {
		return ChemistryRecord{}, fmt.Errorf("%w: invalid external_id %d", common.ErrMalformedRow, r.ExternalID)
	}
	props := map[string]any{}
	if len(r.RawProperties) > 0 {
		if err := json.Unmarshal(r.RawProperties, &props); err != nil {
			return ChemistryRecord{}, fmt.Errorf("%w: raw_properties: %v", common.ErrMalformedRow, err)
		}
	}
	return ChemistryRecord{
		CanonicalName:   r.CanonicalName,
		ExternalID:      r.ExternalID,
		MolecularWeight: r.MolecularWeight,
		Properties:      props,
		CachedAt:        r.CachedAt,
	}, nil
}

// ChemistryCache chemistry_cache 資料表
type ChemistryCache struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewChemistryCache 創建化學資料快取
func NewChemistryCache(db *sqlx.DB) *ChemistryCache {
	return &ChemistryCache{db: db, now: time.Now}
}

// GetMany 以單一 IN 查詢讀取多筆快取
func (c *ChemistryCache) GetMany(ctx context.Context, names []string) (map[string]ChemistryRecord, error) {
	out := make(map[string]ChemistryRecord, len(names))
	if len(names) == 0 {
		return out, nil
	}

	query, args, err := dialect.From(chemistryTable).
		Select("id", "canonical_name", "external_id", "molecular_weight", "raw_properties", "cached_at").
		Where(goqu.C("canonical_name").In(names)).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, &common.StoreError{Table: chemistryTable, Op: "build select", Err: err}
	}

	var rows []chemistryRow
	if err := c.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, &common.StoreError{Table: chemistryTable, Op: "select", Err: err}
	}

	for _, row := range rows {
		rec, err := row.toRecord()
		if err != nil {
			return nil, &common.StoreError{Table: chemistryTable, Op: "decode", Key: row.CanonicalName, Err: err}
		}
		out[rec.CanonicalName] = rec
	}
	return out, nil
}

// Upsert 新增或更新一筆快取
func (c *ChemistryCache) Upsert(ctx context.Context, rec ChemistryRecord) error {
	if rec.CanonicalName == "" {
		return &common.StoreError{Table: chemistryTable, Op: "upsert", Err: fmt.Errorf("%w: empty canonical_name", common.ErrMalformedRow)}
	}
	props := rec.Properties
	if props == nil {
		props = map[string]any{}
	}
	raw, err := json.Marshal(props)
	if err != nil {
		return &common.StoreError{Table: chemistryTable, Op: "upsert", Key: rec.CanonicalName, Err: err}
	}
	cachedAt := rec.CachedAt
	if cachedAt.IsZero() {
		cachedAt = c.now().UTC()
	}

	query := `
		INSERT INTO chemistry_cache
			(id, canonical_name, external_id, molecular_weight, raw_properties, cached_at)
		VALUES
			($1, $2, $3, $4, $5::jsonb, $6)
		ON CONFLICT (canonical_name)
		DO UPDATE SET
			external_id = EXCLUDED.external_id,
			molecular_weight = EXCLUDED.molecular_weight,
			raw_properties = EXCLUDED.raw_properties,
			cached_at = EXCLUDED.cached_at
	`

	_, err = c.db.ExecContext(ctx, query,
		common.GenerateUUID(),
		rec.CanonicalName,
		rec.ExternalID,
		rec.MolecularWeight,
		string(raw),
		cachedAt,
	)
	if err != nil {
		return &common.StoreError{Table: chemistryTable, Op: "upsert", Key: rec.CanonicalName, Err: err}
	}
	return nil
}
