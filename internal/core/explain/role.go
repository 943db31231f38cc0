package explain

import (
	"strings"

	"skincare-ingredients/internal/core/ingredient"
)

// activeWeightLimit 分子量低於此值（Da）且無其他線索時視為活性成分
const activeWeightLimit = 500.0

// 關鍵字依序比對，先符合者優先
var roleKeywords = []struct {
	role     ingredient.Role
	keywords []string
}{
	{ingredient.RoleEmulsifier, []string{"polysorbate", "stearate", "peg-", "ceteareth", "lecithin", "polyglyceryl", "laureth"}},
	{ingredient.RolePreservative, []string{"paraben", "phenoxyethanol", "benzoate", "sorbate", "benzyl alcohol", "chlorphenesin", "isothiazolinone"}},
	{ingredient.RoleFragrance, []string{"fragrance", "parfum", "limonene", "linalool", "citral", "geraniol", "eugenol", "coumarin", "essential oil"}},
	{ingredient.RoleOcclusive, []string{"petrolatum", "dimethicone", "siloxane", "lanolin", "mineral oil", "paraffin", "beeswax", "wax"}},
	{ingredient.RoleHumectant, []string{"glycerin", "glycol", "hyaluron", "urea", "sorbitol", "panthenol", "betaine", "sodium pca", "honey", "aloe"}},
	{ingredient.RoleEmollient, []string{"squalane", "butter", "triglyceride", "ceramide", "cetyl", "stearyl", "cetearyl", "ester", "oil"}},
	{ingredient.RoleActive, []string{"acid", "retin", "niacinamide", "peptide", "vitamin", "tocopher", "ascorb", "bakuchiol", "zinc oxide", "titanium dioxide", "azelaic", "arbutin"}},
}

// ClassifyRole 決定成分角色：知識庫 > 名稱關鍵字 > 分子量 > supporting
func ClassifyRole(canonical string, kb *ingredient.KnowledgeBase, molecularWeight *float64) ingredient.Role {
	if entry, ok := kb.Lookup(canonical); ok {
		return entry.Role
	}
	name := strings.ToLower(canonical)
	for _, rk := range roleKeywords {
		for _, kw := range rk.keywords {
			if strings.Contains(name, kw) {
				return rk.role
			}
		}
	}
	if molecularWeight != nil {
		if *molecularWeight < activeWeightLimit {
			return ingredient.RoleActive
		}
		return ingredient.RoleSupporting
	}
	return ingredient.RoleSupporting
}
