package discovery

import (
	"encoding/json"
)

// ModelSummary is one entry returned when listing the models of a data source.
type ModelSummary struct {
	Type  string `json:"type"`
	Name  string `json:"name"`
	Owner string `json:"owner,omitempty"`
}

// ModelListOptions controls DiscoverModelDefinitions.
type ModelListOptions struct {
	Owner string
	Views bool
}

// SchemaOptions controls DiscoverSchemas.
type SchemaOptions struct {
	Owner string
	// Schema is the namespace holding the table, the Owner of its
	// ModelSummary. Empty means the connection's default schema.
	Schema string
	// Relations adds a belongsTo relation per foreign key.
	Relations bool
	// Associations also discovers the tables referenced by foreign keys and
	// returns them in the same response.
	Associations bool
}

// ModelDefinition is the discovered schema of one table or view.
type ModelDefinition struct {
	Name       string               `json:"name"`
	Base       string               `json:"base,omitempty"`
	Options    map[string]any       `json:"options"`
	Properties map[string]*Property `json:"properties"`
	Relations  map[string]*Relation `json:"relations,omitempty"`
}

// Property describes one column mapped onto a model property.
type Property struct {
	Type      string
	Required  bool
	Length    *int64
	Precision *int64
	Scale     *int64
	// ID is the 1-based position of the column in the primary key, 0 otherwise.
	ID int

	// Connector names the block holding the column mapping, e.g. "postgresql".
	Connector string
	Column    ColumnMapping
}

// ColumnMapping is the connector-specific view of a property.
type ColumnMapping struct {
	ColumnName    string `json:"columnName"`
	DataType      string `json:"dataType"`
	DataLength    *int64 `json:"dataLength"`
	DataPrecision *int64 `json:"dataPrecision"`
	DataScale     *int64 `json:"dataScale"`
	Nullable      string `json:"nullable"`
}

// MarshalJSON nests the column mapping under the connector name.
func (p *Property) MarshalJSON() ([]byte, error) {
	out := map[string]any{
		"type":      p.Type,
		"required":  p.Required,
		"length":    p.Length,
		"precision": p.Precision,
		"scale":     p.Scale,
	}
	if p.ID > 0 {
		out["id"] = p.ID
	}
	if p.Connector != "" {
		out[p.Connector] = p.Column
	}
	return json.Marshal(out)
}

// Relation is a relation between two discovered models.
type Relation struct {
	Model      string `json:"model"`
	Type       string `json:"type"`
	ForeignKey string `json:"foreignKey"`
}
