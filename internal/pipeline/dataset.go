package pipeline

// Dataset is the named identity of a data artifact flowing through a
// pipeline. It is a label, not the data itself: two Dataset references with
// the same name address the same logical artifact. The actual value is
// materialized at run time by the executor, never stored here.
type Dataset struct {
	name     string
	storage  interface{}
	schema   interface{}
	metadata map[string]interface{}
}

// NewDataset creates a dataset identity with the given name.
func NewDataset(name string) *Dataset {
	return &Dataset{
		name:     name,
		metadata: make(map[string]interface{}),
	}
}

// Name returns the dataset name.
func (d *Dataset) Name() string {
	return d.name
}

// WithStorage attaches a storage descriptor. The descriptor is opaque to the
// graph engine and is only carried for downstream consumers.
func (d *Dataset) WithStorage(storage interface{}) *Dataset {
	d.storage = storage
	return d
}

// WithSchema attaches a schema descriptor, opaque to the graph engine.
func (d *Dataset) WithSchema(schema interface{}) *Dataset {
	d.schema = schema
	return d
}

// WithMetadata adds a free-form metadata entry.
func (d *Dataset) WithMetadata(key string, value interface{}) *Dataset {
	d.metadata[key] = value
	return d
}

// Storage returns the storage descriptor, if any.
func (d *Dataset) Storage() interface{} {
	return d.storage
}

// Schema returns the schema descriptor, if any.
func (d *Dataset) Schema() interface{} {
	return d.schema
}

// Metadata returns the metadata map.
func (d *Dataset) Metadata() map[string]interface{} {
	return d.metadata
}

// Equal reports whether two dataset references address the same logical
// artifact. Identity is by name only.
func (d *Dataset) Equal(other *Dataset) bool {
	if d == nil || other == nil {
		return d == other
	}
	return d.name == other.name
}
