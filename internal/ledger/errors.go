package ledger

import "errors"

// Sentinel errors returned by ledger operations. They are wrapped with
// context, so match them with errors.Is.
var (
	// ErrUnauthorized indicates a role, ownership or administrator check failed.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInvalidState indicates the item is not in the status that directly
	// precedes the requested transition.
	ErrInvalidState = errors.New("invalid state")

	// ErrDuplicateItem indicates the UPC is already in use.
	ErrDuplicateItem = errors.New("duplicate item")

	// ErrNotFound indicates the item or account does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidPrice indicates a non-positive listing price.
	ErrInvalidPrice = errors.New("invalid price")

	// ErrInsufficientPayment indicates the tendered amount differs from the
	// listed price.
	ErrInsufficientPayment = errors.New("insufficient payment")

	// ErrInsufficientFunds indicates the payer's balance cannot cover the
	// tendered amount.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrInvalidAmount indicates a non-positive funding amount, or a credit
	// (funding or payment) the receiving balance cannot hold.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrInvalidArgument indicates a malformed input such as an undeclared
	// role or a negative UPC.
	ErrInvalidArgument = errors.New("invalid argument")
)

var kinds = []struct {
	err  error
	name string
}{
	{ErrUnauthorized, "Unauthorized"},
	{ErrInvalidState, "InvalidState"},
	{ErrDuplicateItem, "DuplicateItem"},
	{ErrNotFound, "NotFound"},
	{ErrInvalidPrice, "InvalidPrice"},
	{ErrInsufficientPayment, "InsufficientPayment"},
	{ErrInsufficientFunds, "InsufficientFunds"},
	{ErrInvalidAmount, "InvalidAmount"},
	{ErrInvalidArgument, "InvalidArgument"},
}

// Kind returns the taxonomy name of a ledger error, or "Internal" for
// anything else. A nil error has no kind.
func Kind(err error) string {
	if err == nil {
		return ""
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.name
		}
	}
	return "Internal"
}
