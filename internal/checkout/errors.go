package checkout

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrEmptyCart            = errors.New("cart is empty, nothing to checkout")
	ErrSubmissionInProgress = errors.New("an order submission is already in progress")
)

// IncompleteSelectionError lists cart lines whose variable product is missing
// an attribute choice.
type IncompleteSelectionError struct {
	Items []string
}

func (e *IncompleteSelectionError) Error() string {
	return fmt.Sprintf("incomplete options for: %s", strings.Join(e.Items, ", "))
}
