package domain

import "strconv"

// CustomerID is the numeric identity of a customer (owning organization).
type CustomerID int

// String returns the decimal form.
func (c CustomerID) String() string { return strconv.Itoa(int(c)) }

// Customer owns projects. Its name doubles as the log-index tenant name.
type Customer struct {
	ID   CustomerID
	Name string
}

// GroupMember is a platform user whose access to a project's identity group
// is managed on their behalf. Username is the identity-service login (email).
type GroupMember struct {
	UserID   int
	Username string
}
