package analysis

// Detection thresholds. Changing any of these changes published profiles.
const (
	SemanticSampleSize     = 100
	PatternMatchRatio      = 0.8
	DatetimeParseRatio     = 0.9
	CategoricalUniqueRatio = 0.2
	CategoricalMaxUnique   = 50
	PhoneMinDigits         = 8

	TopValuesLimit    = 5
	SampleValuesLimit = 5

	CorrelationMinAbs = 0.8
	CandidateKeyRatio = 0.98
	ForeignKeyOverlap = 0.8

	HighMissingRatio     = 0.3
	LowVarianceRatio     = 0.01
	DominantCategoryRate = 0.9
	StrongCorrelationAbs = 0.9
)

// Semantic labels.
const (
	SemanticUnknown     = "unknown"
	SemanticEmail       = "email"
	SemanticURL         = "url"
	SemanticPhone       = "phone"
	SemanticPostalCode  = "postal_code"
	SemanticAddress     = "address"
	SemanticPersonName  = "person_name"
	SemanticDatetime    = "datetime"
	SemanticNumeric     = "numeric"
	SemanticBoolean     = "boolean"
	SemanticCategorical = "categorical"
	SemanticText        = "text"
)

// Relationship kinds.
const (
	RelationCorrelation = "correlation"
	RelationPotentialFK = "potential_fk"
)

// Insight severities.
const (
	SeverityInfo    = "info"
	SeverityWarning = "warning"
)
