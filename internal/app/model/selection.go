package model

import "github.com/shopspring/decimal"

// SelectedOption is the client's choice for one layer. Fee is filled in
// from the catalog when the selection is frozen on an RFQ.
type SelectedOption struct {
	Name  string           `json:"name"`
	Value string           `json:"value"`
	Fee   *decimal.Decimal `json:"fee,omitempty"`
}

// Selection maps layer id to the chosen option.
type Selection map[uint]SelectedOption

// Configuration is the client payload for validation, preview and RFQ submit.
type Configuration struct {
	Layers   Selection `json:"layers"`
	Size     string    `json:"size,omitempty"`
	Quantity *int      `json:"quantity,omitempty"`
}

// ConfirmedSelection is a selection that matched a catalog option, with
// its value parsed.
type ConfirmedSelection struct {
	Layer  Layer
	Option Option
	Value  OptionValue
}
