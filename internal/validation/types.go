package validation

// ProductQuery is the query-string contract for GET /product.
// At least one of SKU / ID must be present; ID wins when both are given.
type ProductQuery struct {
	SKU    string `form:"sku"`                                           // "/"-delimited compound identifier
	ID     string `form:"id"`                                            // opaque upstream identifier
	Market string `form:"market" validate:"omitempty,alpha,min=2,max=3"` // currency/region code, default US
}
