package ingredient

// Input 原始輸入及其標準名稱
type Input struct {
	Index     int
	Raw       string
	Canonical string
}

// Batch 一次請求內去重後的成分集合
type Batch struct {
	Inputs []Input
	// Unique 依首次出現順序保存每個非空標準名稱一次
	Unique []string
}

// Group 正規化並去重
func Group(raws []string, n *Normalizer) *Batch {
	b := &Batch{
		Inputs: make([]Input, len(raws)),
		Unique: make([]string, 0, len(raws)),
	}
	seen := make(map[string]bool, len(raws))
	for i, raw := range raws {
		canonical := n.Normalize(raw)
		b.Inputs[i] = Input{Index: i, Raw: raw, Canonical: canonical}
		if canonical == "" || seen[canonical] {
			continue
		}
		seen[canonical] = true
		b.Unique = append(b.Unique, canonical)
	}
	return b
}

// Chunk 將名稱切成固定大小的批次
func Chunk(names []string, size int) [][]string {
	if size <= 0 {
		size = 1
	}
	chunks := make([][]string, 0, (len(names)+size-1)/size)
	for start := 0; start < len(names); start += size {
		end := start + size
		if end > len(names) {
			end = len(names)
		}
		chunks = append(chunks, names[start:end])
	}
	return chunks
}
