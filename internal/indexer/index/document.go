package index

// Document is one unit of ingestion: a natural key plus named text fields.
type Document struct {
	Key    string            `json:"key"`
	Fields map[string]string `json:"fields"`
}

// FieldStats summarises one field of the index.
type FieldStats struct {
	Field  string `json:"field"`
	Terms  int    `json:"terms"`
	Tokens int64  `json:"tokens"`
}
