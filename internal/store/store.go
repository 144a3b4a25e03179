package store

// Collection keys. Each collection is persisted as one JSON blob and
// replaced wholesale on every write; there is no transaction spanning two
// keys, so a crash between two writes can leave them mutually inconsistent.
const (
	KeyCart        = "cart"
	KeyUsers       = "users"
	KeyCurrentUser = "currentUser"
	KeyReviews     = "reviews"
	KeyOrders      = "orders"
)

// Store defines the interface for whole-collection blob access.
type Store interface {
	// Load unmarshals the blob stored under key into out. A missing or
	// malformed blob leaves out untouched, so callers fall back to their
	// zero-value collection.
	Load(key string, out interface{}) error
	// Save marshals v and replaces the blob stored under key.
	Save(key string, v interface{}) error
	// Delete removes the blob stored under key. Deleting a missing key is
	// not an error.
	Delete(key string) error
}
