package upstream

// Auth styles for candidate endpoints.
const (
	AuthBearer = "bearer"  // Authorization: Bearer <key>
	AuthAPIKey = "api-key" // x-api-key: <key>
)

// Response shape hints.
const (
	ShapeDetail = "detail" // single product object
	ShapeSearch = "search" // results collection, needs best-match scoring
)

// Candidate describes one upstream endpoint strategy. Adding a vendor variant
// is a data change here, not a code fork.
type Candidate struct {
	Name    string
	Path    string // template relative to the base URL; {id} {query} {market}
	Auth    string
	Shape   string
	NeedsID bool // only usable when the caller supplied an opaque upstream id
}

// DefaultCandidates is the ordered list of endpoint strategies observed to
// work against the catalog API, most direct first. Direct-by-id lookups take
// priority over search when an id is available.
func DefaultCandidates() []Candidate {
	return []Candidate{
		{Name: "product-by-id", Path: "/v2/products/{id}?currency={market}", Auth: AuthBearer, Shape: ShapeDetail, NeedsID: true},
		{Name: "product-detail", Path: "/v1/products/{query}?market={market}", Auth: AuthBearer, Shape: ShapeDetail},
		{Name: "market-data", Path: "/v1/products/{query}/market?currency={market}", Auth: AuthBearer, Shape: ShapeDetail},
		{Name: "catalog-search", Path: "/v2/search?query={query}&market={market}", Auth: AuthBearer, Shape: ShapeSearch},
		{Name: "legacy-browse", Path: "/v1/browse?_search={query}", Auth: AuthAPIKey, Shape: ShapeSearch},
	}
}
