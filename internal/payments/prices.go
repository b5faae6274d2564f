package payments

// PriceOption is one purchasable credit pack. The table is static,
// process-wide, and read-only; the client supplies the opaque ID.
type PriceOption struct {
	ID          string
	AmountCents int64
	Credits     int
	DisplayName string
}

// PriceTable resolves client-supplied price selectors. Construct once at
// startup; never mutated afterwards.
type PriceTable struct {
	options map[string]PriceOption
	order   []string
}

// DefaultPriceID names the single-pack option whose amount is configurable
// via PRICE_AMOUNT.
const DefaultPriceID = "price_default"

// NewPriceTable builds the static credit-pack table. defaultAmountCents
// prices the legacy single pack.
func NewPriceTable(defaultAmountCents int64) *PriceTable {
	table := &PriceTable{options: map[string]PriceOption{}}
	for _, opt := range []PriceOption{
		{ID: "price_1", AmountCents: 199, Credits: 2, DisplayName: "Mini Pack"},
		{ID: "price_2", AmountCents: 499, Credits: 5, DisplayName: "Standard Pack"},
		{ID: "price_3", AmountCents: 899, Credits: 10, DisplayName: "Value Pack"},
		{ID: DefaultPriceID, AmountCents: defaultAmountCents, Credits: 5, DisplayName: "Photo Credits Pack"},
	} {
		table.options[opt.ID] = opt
		table.order = append(table.order, opt.ID)
	}
	return table
}

// Lookup resolves a selector to its price option.
func (t *PriceTable) Lookup(id string) (PriceOption, bool) {
	opt, ok := t.options[id]
	return opt, ok
}

// IDs returns the selectors in declaration order.
func (t *PriceTable) IDs() []string {
	out := make([]string, len(t.order))
	copy(out, t.order)
	return out
}
