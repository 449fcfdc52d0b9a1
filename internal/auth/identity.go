package auth

// Identity is the caller's verified identity, built once at the HTTP
// boundary from the token claims and passed by value into the services.
type Identity struct {
	UserID string
	Email  string
}
