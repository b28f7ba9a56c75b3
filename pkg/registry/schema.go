// pkg/registry/schema.go
package registry

// AlgorithmRegistry is the on-disk catalogue of matching algorithm
// configurations. Exactly one algorithm should be active at a time.
type AlgorithmRegistry struct {
	Version     string      `json:"version"`
	LastUpdated string      `json:"lastUpdated"`
	Algorithms  []Algorithm `json:"algorithms"`
}

type Algorithm struct {
	Name            string            `json:"name"`
	DisplayName     string            `json:"displayName"`
	Description     string            `json:"description"`
	Type            string            `json:"type"`
	Version         string            `json:"version"`
	IsActive        bool              `json:"isActive"`
	VectorWeight    float64           `json:"vectorWeight"`
	BM25Weight      float64           `json:"bm25Weight"`
	StructuredBlend float64           `json:"structuredBlend"`
	Parameters      map[string]string `json:"parameters,omitempty"`
	Tags            []string          `json:"tags,omitempty"`
}

// algorithm types accepted by the schema.
const (
	TypeHybrid           = "hybrid"
	TypeVectorSimilarity = "vector_similarity"
	TypeBM25             = "bm25"
	TypeStructuredOnly   = "structured_only"
)

// registrySchema validates a registry document before any algorithm
// configuration is trusted.
var registrySchema = map[string]interface{}{
	"type":     "object",
	"required": []interface{}{"version", "algorithms"},
	"properties": map[string]interface{}{
		"version":     map[string]interface{}{"type": "string"},
		"lastUpdated": map[string]interface{}{"type": "string"},
		"algorithms": map[string]interface{}{
			"type": "array",
			"items": map[string]interface{}{
				"type":     "object",
				"required": []interface{}{"name", "type", "isActive"},
				"properties": map[string]interface{}{
					"name":        map[string]interface{}{"type": "string", "minLength": 1},
					"displayName": map[string]interface{}{"type": "string"},
					"description": map[string]interface{}{"type": "string"},
					"type": map[string]interface{}{
						"type": "string",
						"enum": []interface{}{TypeHybrid, TypeVectorSimilarity, TypeBM25, TypeStructuredOnly},
					},
					"version":  map[string]interface{}{"type": "string"},
					"isActive": map[string]interface{}{"type": "boolean"},
					"vectorWeight": map[string]interface{}{
						"type": "number", "minimum": 0, "maximum": 1,
					},
					"bm25Weight": map[string]interface{}{
						"type": "number", "minimum": 0, "maximum": 1,
					},
					"structuredBlend": map[string]interface{}{
						"type": "number", "minimum": 0, "maximum": 1,
					},
				},
			},
		},
	},
}
