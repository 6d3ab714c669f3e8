package generator

import "errors"

var (
	// ErrMissingDataSource indicates the generator was built without a data
	// source or without a name to bind models to.
	ErrMissingDataSource = errors.New("missing data source")

	// ErrModelConfig indicates the model configuration file could not be
	// read or is not a valid model configuration document.
	ErrModelConfig = errors.New("invalid model config")

	// ErrInvalidModelMeta indicates a model meta override that carries neither
	// skip nor skipCustom, or carries anything else.
	ErrInvalidModelMeta = errors.New("invalid model meta")

	// ErrNoSources indicates there are model definitions to write but
	// _meta.sources lists no directory to write them to.
	ErrNoSources = errors.New("no model source directory configured")
)
