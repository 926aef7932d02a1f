package domain

// Metadata keys stamped on checkout sessions and subscriptions at creation time.
const (
	MetadataTierKey     = "tier"
	MetadataPlanKeyKey  = "planKey"
	MetadataPlanNameKey = "planName"
	MetadataNameKey     = "name"
	MetadataTagKey      = "tag"
)

// Known plan keys.
const (
	PlanKeyIndividual = "firstflame_individual"
	PlanKeyPair       = "firstflame_pair"
)

// TierFirstFlame is the only tier currently sold.
const TierFirstFlame = "firstflame"

// Plan names shown to customers.
const (
	PlanNameIndividual = "First Flame: Individual"
	PlanNamePair       = "First Flame: Household Pair"
)

// Plan is a purchasable variant within a tier.
type Plan struct {
	// Tier is the coarse product category.
	Tier string
	// Key is the machine identifier of the plan variant.
	Key string
	// Name is the human-readable plan name.
	Name string
}

// IsZero reports whether no plan information is present.
func (p Plan) IsZero() bool {
	return p.Tier == "" && p.Key == "" && p.Name == ""
}

// PlanTable maps provider price identifiers to plans. The table is static
// configuration built once at startup from the configured price ids.
type PlanTable struct {
	byPriceID      map[string]Plan
	byPlanKey      map[string]Plan
	priceByPlanKey map[string]string
}

// NewPlanTable creates a PlanTable from the configured price ids. Price ids
// left unconfigured are omitted from the table.
func NewPlanTable(individualPriceID, pairPriceID string) *PlanTable {
	table := &PlanTable{
		byPriceID:      make(map[string]Plan),
		byPlanKey:      make(map[string]Plan),
		priceByPlanKey: make(map[string]string),
	}

	individual := Plan{Tier: TierFirstFlame, Key: PlanKeyIndividual, Name: PlanNameIndividual}
	pair := Plan{Tier: TierFirstFlame, Key: PlanKeyPair, Name: PlanNamePair}

	table.byPlanKey[PlanKeyIndividual] = individual
	table.byPlanKey[PlanKeyPair] = pair

	if individualPriceID != "" {
		table.byPriceID[individualPriceID] = individual
		table.priceByPlanKey[PlanKeyIndividual] = individualPriceID
	}
	if pairPriceID != "" {
		table.byPriceID[pairPriceID] = pair
		table.priceByPlanKey[PlanKeyPair] = pairPriceID
	}
	return table
}

// PriceIDByPlanKey returns the configured price id for a plan key, or an
// empty string when the price is not configured.
func (t *PlanTable) PriceIDByPlanKey(key string) string {
	return t.priceByPlanKey[key]
}

// Resolve maps a price id and transaction metadata to a plan. Metadata stamped
// at transaction-creation time is the authoritative signal; price-based lookup
// is the fallback for events lacking metadata (e.g. late subscription-state
// callbacks). Returns a zero Plan when neither source resolves.
func (t *PlanTable) Resolve(priceID string, metadata map[string]string) Plan {
	if plan := planFromMetadata(metadata); !plan.IsZero() {
		return plan
	}
	if priceID == "" {
		return Plan{}
	}
	return t.byPriceID[priceID]
}

// ByPlanKey returns the plan registered under key, or a zero Plan.
func (t *PlanTable) ByPlanKey(key string) Plan {
	return t.byPlanKey[key]
}

// planFromMetadata extracts a plan from transaction metadata. A plan is only
// returned when the tier and plan key are both present.
func planFromMetadata(metadata map[string]string) Plan {
	if metadata == nil {
		return Plan{}
	}
	plan := Plan{
		Tier: metadata[MetadataTierKey],
		Key:  metadata[MetadataPlanKeyKey],
		Name: metadata[MetadataPlanNameKey],
	}
	if plan.Tier == "" || plan.Key == "" {
		return Plan{}
	}
	return plan
}
