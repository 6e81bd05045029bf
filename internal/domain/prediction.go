package domain

// Model kinds served by the API.
const (
	ModelKindElectricity = "electricity"
	ModelKindHousing     = "housing"
)

// PredictionRecord is an audit entry for a served prediction.
// Corresponds to predictions table in PostgreSQL.
type PredictionRecord struct {
	ID           string             // request id (uuid)
	ModelKind    string             // electricity | housing
	ModelName    string             // estimator name
	ModelVersion string             // estimator version
	QueryTimeMs  int64              // requested timestamp (ms), 0 for housing
	Value        float64            // predicted scalar
	FeatureHash  string             // sha256 fingerprint of the feature vector
	Features     map[string]float64 // sample of the features used
	CreatedAt    int64              // record creation timestamp (ms)
}
