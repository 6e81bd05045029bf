package domain

// PropertyQuery describes a residential sale to be priced.
type PropertyQuery struct {
	PropertyType string // Detached | Semi-Detached | Terraced | Flat | Other
	IsNewBuild   bool
	Tenure       string // Freehold | Leasehold
	County       string
	District     string
	TownCity     string
	Year         int
	Month        int
	Quarter      int
}

// Property types accepted by the housing model.
var PropertyTypes = []string{"Detached", "Semi-Detached", "Terraced", "Flat", "Other"}

// Tenures accepted by the housing model.
var Tenures = []string{"Freehold", "Leasehold"}
