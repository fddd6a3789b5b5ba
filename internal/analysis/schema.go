package analysis

import "github.com/KaramelBytes/csvlens/internal/dataset"

// InferSchema maps every column to the physical dtype chosen at ingestion.
func InferSchema(ds *dataset.Dataset) map[string]string {
	out := make(map[string]string, len(ds.Columns()))
	for _, c := range ds.Columns() {
		dtype := c.DType
		if dtype == "" {
			dtype = dataset.DTypeObject
		}
		out[c.Name] = dtype
	}
	return out
}
