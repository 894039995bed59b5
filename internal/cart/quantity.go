package cart

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseQuantity validates a quantity typed by the shopper.
func ParseQuantity(text string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a whole number", ErrInvalidQuantity, text)
	}
	if err := validQuantity(n); err != nil {
		return 0, err
	}
	return n, nil
}

func validQuantity(n int) error {
	if n < 1 || n > MaxQuantity {
		return fmt.Errorf("%w: got %d", ErrInvalidQuantity, n)
	}
	return nil
}
