package cache

// Cache key categories. Keys are namespaced as <prefix>:<category>:<segments...>.
const (
	CategoryProduct  = "product"
	CategoryCategory = "category"
	CategoryBrand    = "brand"
	CategorySearch   = "search"
	CategoryFeatured = "featured"
	CategoryAdmin    = "admin"
	CategoryOrder    = "order"
)

// productNamespaces are the categories swept by InvalidateProductCache after
// any product mutation or stock-changing order commit. Coarse on purpose:
// precision is traded for correctness under concurrent mutation.
var productNamespaces = []string{
	CategoryProduct,
	CategoryFeatured,
	CategoryCategory,
	CategoryBrand,
}
