package config

const (
	// DefaultMaxDepth bounds the decomposition tree (root = depth 0).
	DefaultMaxDepth = 6

	// MaxItemNameLength is the maximum length for a root item name.
	// Model-generated part names are not checked against it.
	MaxItemNameLength = 200

	// MaxItemDescriptionLength caps the optional root description.
	MaxItemDescriptionLength = 2000

	// MaxSessionTitleLength is the maximum length for saved session titles.
	// Limited to 255 to fit in PostgreSQL VARCHAR(255).
	MaxSessionTitleLength = 255

	// MaxCustomTemplateLength caps user supplied prompt templates.
	MaxCustomTemplateLength = 8000

	// MaxUploadBytes is the largest image accepted by identification.
	MaxUploadBytes = 10 << 20
)
