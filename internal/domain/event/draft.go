package event

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/ticket-backoffice-ledger/internal/domain/ledger"
	"github.com/ticket-backoffice-ledger/internal/domain/money"
)

// Draft is an uncommitted event. Exactly one payload field, the one matching
// Kind, must be set.
type Draft struct {
	Kind           Kind      `json:"kind"`
	IdempotencyKey string    `json:"idempotency_key,omitempty"`
	Note           string    `json:"note,omitempty"`
	OccurredAt     time.Time `json:"occurred_at"`

	Sale         *Sale         `json:"sale,omitempty"`
	Return       *Return       `json:"return,omitempty"`
	Transfer     *Transfer     `json:"transfer,omitempty"`
	Deposit      *Deposit      `json:"deposit,omitempty"`
	Expenditure  *Expenditure  `json:"expenditure,omitempty"`
	AgentPayment *AgentPayment `json:"agent_payment,omitempty"`
	Acquisition  *Acquisition  `json:"acquisition,omitempty"`
}

// Buyer is either a credit-carrying agent or a walk-in client
type Buyer struct {
	AgentID     *uuid.UUID `json:"agent_id,omitempty"`
	ClientName  string     `json:"client_name,omitempty"`
	ClientPhone string     `json:"client_phone,omitempty"`
}

func (b Buyer) IsAgent() bool { return b.AgentID != nil }

type Sale struct {
	BatchID         uuid.UUID   `json:"batch_id"`
	Quantity        int64       `json:"quantity"`
	UnitPrice       money.Money `json:"unit_price"`
	Buyer           Buyer       `json:"buyer"`
	PaidToAccountID *uuid.UUID  `json:"paid_to_account_id,omitempty"`
}

// Total is unit price times quantity
func (s *Sale) Total() money.Money {
	return s.UnitPrice.Times(s.Quantity)
}

func (s *Sale) Currency() money.Currency {
	return s.UnitPrice.Currency()
}

type Return struct {
	SaleID              uuid.UUID    `json:"sale_id"`
	QuantityReturned    int64        `json:"quantity_returned"`
	Fine                *money.Money `json:"fine,omitempty"`
	SupplierFine        *money.Money `json:"supplier_fine,omitempty"`
	FinePaidToAccountID *uuid.UUID   `json:"fine_paid_to_account_id,omitempty"`
}

type Transfer struct {
	FromAccountID   uuid.UUID        `json:"from_account_id"`
	ToAccountID     uuid.UUID        `json:"to_account_id"`
	Amount          money.Money      `json:"amount"`
	Rate            *decimal.Decimal `json:"rate,omitempty"`
	ConvertedAmount *money.Money     `json:"converted_amount,omitempty"`
}

type Deposit struct {
	ToAccountID uuid.UUID   `json:"to_account_id"`
	Amount      money.Money `json:"amount"`
}

type Expenditure struct {
	FromAccountID uuid.UUID   `json:"from_account_id"`
	Amount        money.Money `json:"amount"`
	Category      string      `json:"category,omitempty"`
}

// AgentPayment settles agent debt in exactly one currency
type AgentPayment struct {
	AgentID     uuid.UUID       `json:"agent_id"`
	AmountUZS   decimal.Decimal `json:"amount_uzs"`
	AmountUSD   decimal.Decimal `json:"amount_usd"`
	ToAccountID uuid.UUID       `json:"to_account_id"`
	SaleID      *uuid.UUID      `json:"sale_id,omitempty"`
}

// Amount returns the single positive amount as Money
func (p *AgentPayment) Amount() (money.Money, error) {
	uzs, usd := p.AmountUZS, p.AmountUSD
	switch {
	case uzs.IsPositive() && usd.IsZero():
		return money.New(uzs, money.UZS)
	case usd.IsPositive() && uzs.IsZero():
		return money.New(usd, money.USD)
	}
	return money.Money{}, ledger.Newf(ledger.ErrInvalidAmount,
		"agent payment needs exactly one positive currency amount, got uzs=%s usd=%s", uzs, usd)
}

// Acquisition buys a batch of tickets from a supplier. The batch takes the
// acquisition event's id.
type Acquisition struct {
	SupplierID        uuid.UUID    `json:"supplier_id"`
	Title             string       `json:"title"`
	Details           string       `json:"details,omitempty"`
	Quantity          int64        `json:"quantity"`
	UnitCost          money.Money  `json:"unit_cost"`
	TotalCost         *money.Money `json:"total_cost,omitempty"`
	PaidFromAccountID *uuid.UUID   `json:"paid_from_account_id,omitempty"`
}

// Cost is the stated total cost, or unit cost times quantity when none was given
func (a *Acquisition) Cost() money.Money {
	if a.TotalCost != nil {
		return *a.TotalCost
	}
	return a.UnitCost.Times(a.Quantity)
}

// Validate checks the draft's shape and field-level rules. Rules that need
// other entities (currencies of linked accounts, stock) are checked by the
// engine.
func (d *Draft) Validate() error {
	if !d.Kind.IsValid() {
		return ledger.Newf(ledger.ErrInvalidEvent, "unknown event kind %q", d.Kind)
	}
	if n := d.payloadCount(); n != 1 {
		return ledger.Newf(ledger.ErrInvalidEvent, "expected exactly one payload, got %d", n)
	}
	switch d.Kind {
	case KindSale:
		if d.Sale == nil {
			return missingPayload(d.Kind)
		}
		return d.Sale.validate()
	case KindReturn:
		if d.Return == nil {
			return missingPayload(d.Kind)
		}
		return d.Return.validate()
	case KindTransfer:
		if d.Transfer == nil {
			return missingPayload(d.Kind)
		}
		return d.Transfer.validate()
	case KindDeposit:
		if d.Deposit == nil {
			return missingPayload(d.Kind)
		}
		return requireAccount("to_account_id", d.Deposit.ToAccountID, positive("amount", d.Deposit.Amount))
	case KindExpenditure:
		if d.Expenditure == nil {
			return missingPayload(d.Kind)
		}
		return requireAccount("from_account_id", d.Expenditure.FromAccountID, positive("amount", d.Expenditure.Amount))
	case KindAgentPayment:
		if d.AgentPayment == nil {
			return missingPayload(d.Kind)
		}
		return d.AgentPayment.validate()
	case KindAcquisition:
		if d.Acquisition == nil {
			return missingPayload(d.Kind)
		}
		return d.Acquisition.validate()
	}
	return nil
}

func (d *Draft) payloadCount() int {
	n := 0
	for _, set := range []bool{
		d.Sale != nil, d.Return != nil, d.Transfer != nil, d.Deposit != nil,
		d.Expenditure != nil, d.AgentPayment != nil, d.Acquisition != nil,
	} {
		if set {
			n++
		}
	}
	return n
}

func (s *Sale) validate() error {
	if s.BatchID == uuid.Nil {
		return ledger.Newf(ledger.ErrInvalidEvent, "sale requires batch_id")
	}
	if s.Quantity <= 0 {
		return ledger.Newf(ledger.ErrInvalidAmount, "sale quantity must be positive, got %d", s.Quantity)
	}
	if err := positive("unit_price", s.UnitPrice); err != nil {
		return err
	}
	hasClient := strings.TrimSpace(s.Buyer.ClientName) != ""
	switch {
	case s.Buyer.IsAgent() && hasClient:
		return ledger.Newf(ledger.ErrInvalidEvent, "sale buyer is either an agent or a client, not both")
	case s.Buyer.IsAgent():
		if *s.Buyer.AgentID == uuid.Nil {
			return ledger.Newf(ledger.ErrInvalidEvent, "sale buyer agent_id is empty")
		}
	case hasClient:
		if s.PaidToAccountID == nil {
			return ledger.Newf(ledger.ErrInvalidEvent, "client sale must be paid to an account")
		}
	default:
		return ledger.Newf(ledger.ErrInvalidEvent, "sale requires a buyer")
	}
	if s.PaidToAccountID != nil && *s.PaidToAccountID == uuid.Nil {
		return ledger.Newf(ledger.ErrInvalidEvent, "sale paid_to_account_id is empty")
	}
	return nil
}

func (r *Return) validate() error {
	if r.SaleID == uuid.Nil {
		return ledger.Newf(ledger.ErrInvalidEvent, "return requires sale_id")
	}
	if r.QuantityReturned <= 0 {
		return ledger.Newf(ledger.ErrInvalidAmount, "quantity_returned must be positive, got %d", r.QuantityReturned)
	}
	if r.Fine != nil && r.Fine.IsNegative() {
		return ledger.Newf(ledger.ErrInvalidAmount, "fine cannot be negative")
	}
	if r.SupplierFine != nil && r.SupplierFine.IsNegative() {
		return ledger.Newf(ledger.ErrInvalidAmount, "supplier_fine cannot be negative")
	}
	if r.FinePaidToAccountID != nil && (r.Fine == nil || r.Fine.IsZero()) {
		return ledger.Newf(ledger.ErrInvalidEvent, "fine_paid_to_account_id given without a fine")
	}
	return nil
}

func (t *Transfer) validate() error {
	if err := requireAccount("from_account_id", t.FromAccountID, nil); err != nil {
		return err
	}
	if err := requireAccount("to_account_id", t.ToAccountID, nil); err != nil {
		return err
	}
	if t.FromAccountID == t.ToAccountID {
		return ledger.Newf(ledger.ErrInvalidEvent, "transfer source and destination are the same account")
	}
	if err := positive("amount", t.Amount); err != nil {
		return err
	}
	if t.Rate != nil && !t.Rate.IsPositive() {
		return ledger.Newf(ledger.ErrInvalidAmount, "conversion rate must be positive, got %s", t.Rate)
	}
	if t.ConvertedAmount != nil {
		return positive("converted_amount", *t.ConvertedAmount)
	}
	return nil
}

// ToAmount is the amount credited to the destination account
func (t *Transfer) ToAmount(to money.Currency) (money.Money, error) {
	if to == t.Amount.Currency() {
		if t.ConvertedAmount != nil && !t.ConvertedAmount.Equal(t.Amount) {
			return money.Money{}, ledger.Newf(ledger.ErrInvalidAmount, "same-currency transfer cannot change the amount")
		}
		return t.Amount, nil
	}
	if t.Rate == nil {
		return money.Money{}, ledger.Newf(ledger.ErrInvalidAmount, "cross-currency transfer requires a positive rate")
	}
	converted, err := t.Amount.Convert(to, *t.Rate)
	if err != nil {
		return money.Money{}, ledger.Wrap(ledger.ErrInvalidAmount, err, "transfer conversion")
	}
	// converted_amount is a cross-check of the rate, never an override
	if t.ConvertedAmount != nil {
		if t.ConvertedAmount.Currency() != to {
			return money.Money{}, ledger.Newf(ledger.ErrCurrencyMismatch,
				"converted_amount is %s, destination account holds %s", t.ConvertedAmount.Currency(), to)
		}
		if !t.ConvertedAmount.Equal(converted) {
			return money.Money{}, ledger.Newf(ledger.ErrInvalidAmount,
				"converted_amount %s does not match %s at rate %s (%s)", t.ConvertedAmount, t.Amount, t.Rate, converted)
		}
	}
	return converted, nil
}

func (p *AgentPayment) validate() error {
	if p.AgentID == uuid.Nil {
		return ledger.Newf(ledger.ErrInvalidEvent, "agent payment requires agent_id")
	}
	if err := requireAccount("to_account_id", p.ToAccountID, nil); err != nil {
		return err
	}
	if p.SaleID != nil && *p.SaleID == uuid.Nil {
		return ledger.Newf(ledger.ErrInvalidEvent, "agent payment sale_id is empty")
	}
	_, err := p.Amount()
	return err
}

func (a *Acquisition) validate() error {
	if a.SupplierID == uuid.Nil {
		return ledger.Newf(ledger.ErrInvalidEvent, "acquisition requires supplier_id")
	}
	if strings.TrimSpace(a.Title) == "" {
		return ledger.Newf(ledger.ErrInvalidEvent, "acquisition requires a title")
	}
	if a.Quantity <= 0 {
		return ledger.Newf(ledger.ErrInvalidAmount, "acquisition quantity must be positive, got %d", a.Quantity)
	}
	if err := positive("unit_cost", a.UnitCost); err != nil {
		return err
	}
	if a.TotalCost != nil {
		if a.TotalCost.Currency() != a.UnitCost.Currency() {
			return ledger.Newf(ledger.ErrCurrencyMismatch, "total_cost is %s, unit_cost is %s",
				a.TotalCost.Currency(), a.UnitCost.Currency())
		}
		if err := positive("total_cost", *a.TotalCost); err != nil {
			return err
		}
	}
	if a.PaidFromAccountID != nil && *a.PaidFromAccountID == uuid.Nil {
		return ledger.Newf(ledger.ErrInvalidEvent, "acquisition paid_from_account_id is empty")
	}
	return nil
}

func missingPayload(k Kind) error {
	return ledger.Newf(ledger.ErrInvalidEvent, "%s event is missing its payload", k)
}

func positive(field string, m money.Money) error {
	if !m.Currency().IsValid() {
		return ledger.Newf(ledger.ErrCurrencyMismatch, "%s has invalid currency %q", field, m.Currency())
	}
	if !m.IsPositive() {
		return ledger.Newf(ledger.ErrInvalidAmount, "%s must be positive, got %s", field, m)
	}
	return nil
}

func requireAccount(field string, id uuid.UUID, next error) error {
	if id == uuid.Nil {
		return ledger.Newf(ledger.ErrInvalidEvent, "%s is required", field)
	}
	return next
}
