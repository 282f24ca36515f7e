package store

// User is the identity anchor. The password hash is opaque to the store; the
// auth layer owns the verification algorithm.
type User struct {
	ID           int32
	Username     string
	Email        string
	Nickname     string
	PasswordHash string
	Age          int32
	BirthDate    string
	CreatedTs    int64
}

type FindUser struct {
	ID       *int32
	Username *string
	Email    *string
}
