package chemistry

import (
	"context"

	"skincare-ingredients/internal/infrastructure/pubchem"
	"skincare-ingredients/internal/infrastructure/store"
)

// Compound 化學識別資料
type Compound struct {
	ExternalID      int64          `json:"external_id"`
	MolecularWeight float64        `json:"molecular_weight"`
	Properties      map[string]any `json:"properties"`
}

// Result 單一輸入的解析結果
type Result struct {
	Name         string    `json:"name"`
	SearchedName string    `json:"searched_name"`
	Data         *Compound `json:"data"`
	Source       string    `json:"source"`
	Message      string    `json:"message,omitempty"`
}

// Store 化學資料快取
type Store interface {
	GetMany(ctx context.Context, names []string) (map[string]store.ChemistryRecord, error)
	Upsert(ctx context.Context, rec store.ChemistryRecord) error
}

// Client 外部化學資料庫
type Client interface {
	Lookup(ctx context.Context, name string) (*pubchem.Compound, error)
}

// Resolver 成分解析介面（說明流程以行程內呼叫取得分子資料）
type Resolver interface {
	Resolve(ctx context.Context, raws []string, forceExternal bool) ([]Result, error)
}

func fromRecord(rec store.ChemistryRecord) *Compound {
	return &Compound{
		ExternalID:      rec.ExternalID,
		MolecularWeight: rec.MolecularWeight,
		Properties:      rec.Properties,
	}
}

func fromPubChem(c *pubchem.Compound) *Compound {
	return &Compound{
		ExternalID:      c.CID,
		MolecularWeight: c.MolecularWeight,
		Properties:      c.Properties,
	}
}
