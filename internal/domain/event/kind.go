// Package event is the catalog of business events the ledger understands:
// their payloads, validation rules and balance-effect functions.
package event

import "fmt"

// Kind is the event type tag
type Kind string

const (
	KindSale         Kind = "SALE"
	KindReturn       Kind = "RETURN"
	KindTransfer     Kind = "TRANSFER"
	KindDeposit      Kind = "DEPOSIT"
	KindExpenditure  Kind = "EXPENDITURE"
	KindAgentPayment Kind = "AGENT_PAYMENT"
	KindAcquisition  Kind = "ACQUISITION"
)

// Kinds lists every event kind
func Kinds() []Kind {
	return []Kind{KindSale, KindReturn, KindTransfer, KindDeposit, KindExpenditure, KindAgentPayment, KindAcquisition}
}

func (k Kind) IsValid() bool {
	for _, known := range Kinds() {
		if k == known {
			return true
		}
	}
	return false
}

// ParseKind validates an event kind name
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if !k.IsValid() {
		return "", fmt.Errorf("unknown event kind %q", s)
	}
	return k, nil
}
