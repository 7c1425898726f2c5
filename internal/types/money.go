// README: Common money value object used across modules.
package types

import "fmt"

type Money struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// String renders whole-unit amounts, e.g. "4500 CDF".
func (m Money) String() string {
	if m.Currency == "" {
		return fmt.Sprintf("%d", m.Amount)
	}
	return fmt.Sprintf("%d %s", m.Amount, m.Currency)
}
