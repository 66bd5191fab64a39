package controller

import (
	"sort"
	"time"

	"github.com/ikkim/configurator-backend/internal/app/model"
	"github.com/ikkim/configurator-backend/internal/app/service"
	"github.com/shopspring/decimal"
)

// Money leaves the API as strings rounded to cents.
func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func optionalMoney(d *decimal.Decimal) *string {
	if d == nil {
		return nil
	}
	s := money(*d)
	return &s
}

type OptionView struct {
	Name  string  `json:"name"`
	Value string  `json:"value"`
	Fee   *string `json:"fee,omitempty"`
}

type LayerView struct {
	ID       uint            `json:"id"`
	Name     string          `json:"name"`
	Type     model.LayerType `json:"type"`
	Position int             `json:"position"`
	MaskURL  string          `json:"mask_url,omitempty"`
	Options  []OptionView    `json:"options"`
}

type ProductView struct {
	ID           uint              `json:"id"`
	Name         string            `json:"name"`
	Description  string            `json:"description"`
	BasePrice    string            `json:"base_price"`
	SizeFees     map[string]string `json:"size_fees"`
	MinQuantity  int               `json:"min_quantity"`
	LeadTimeDays int               `json:"lead_time_days"`
	BaseImageKey string            `json:"base_image_key,omitempty"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

type ConfigurationView struct {
	ProductID    uint              `json:"product_id"`
	Name         string            `json:"name"`
	Description  string            `json:"description"`
	BasePrice    string            `json:"base_price"`
	BaseImageURL string            `json:"base_image_url,omitempty"`
	SizeFees     map[string]string `json:"size_fees"`
	Sizes        []string          `json:"sizes"`
	MinQuantity  int               `json:"min_quantity"`
	LeadTimeDays int               `json:"lead_time_days"`
	Layers       []LayerView       `json:"layers"`
}

type AdditionalCostView struct {
	Description string `json:"description"`
	Amount      string `json:"amount"`
}

type PricingView struct {
	BasePrice            string               `json:"base_price"`
	SizeFee              string               `json:"size_fee"`
	OptionFees           string               `json:"option_fees"`
	UnitPrice            string               `json:"unit_price"`
	Quantity             int                  `json:"quantity"`
	LineTotal            string               `json:"line_total"`
	AdditionalCosts      []AdditionalCostView `json:"additional_costs"`
	AdditionalCostsTotal string               `json:"additional_costs_total"`
	GrandTotal           string               `json:"grand_total"`
}

type SelectionView struct {
	Name  string  `json:"name"`
	Value string  `json:"value"`
	Fee   *string `json:"fee,omitempty"`
}

type RFQView struct {
	ID          uint                   `json:"id"`
	ProductID   uint                   `json:"product_id"`
	ProductName string                 `json:"product_name"`
	Layers      map[uint]SelectionView `json:"layers"`
	Size        string                 `json:"size"`
	Quantity    int                    `json:"quantity"`
	Customer    model.CustomerInfo     `json:"customer_info"`
	Status      model.RFQStatus        `json:"status"`
	Pricing     PricingView            `json:"pricing"`
	Version     int                    `json:"version"`
	PreviewURL  string                 `json:"preview_url,omitempty"`
	AccessToken string                 `json:"access_token,omitempty"`
	CreatedAt   time.Time              `json:"created_at"`
	UpdatedAt   time.Time              `json:"updated_at"`
}

func optionViews(options []model.Option) []OptionView {
	views := make([]OptionView, 0, len(options))
	for _, o := range options {
		views = append(views, OptionView{Name: o.Name, Value: o.Value, Fee: optionalMoney(o.Fee)})
	}
	return views
}

func layerViews(layers []model.Layer, maskURLs map[uint]string) []LayerView {
	views := make([]LayerView, 0, len(layers))
	for _, l := range layers {
		views = append(views, LayerView{
			ID:       l.ID,
			Name:     l.Name,
			Type:     l.Type,
			Position: l.Position,
			MaskURL:  maskURLs[l.ID],
			Options:  optionViews(l.Options.Data()),
		})
	}
	return views
}

func moneyTable(fees map[string]decimal.Decimal) map[string]string {
	out := make(map[string]string, len(fees))
	for size, fee := range fees {
		out[size] = money(fee)
	}
	return out
}

func newProductView(p *model.Product) ProductView {
	return ProductView{
		ID:           p.ID,
		Name:         p.Name,
		Description:  p.Description,
		BasePrice:    money(p.BasePrice),
		SizeFees:     moneyTable(p.SizeTable()),
		MinQuantity:  p.MinQuantity,
		LeadTimeDays: p.LeadTimeDays,
		BaseImageKey: p.BaseImageKey,
		UpdatedAt:    p.UpdatedAt,
	}
}

// sortedSizes lists sizes cheapest first, then by name.
func sortedSizes(fees map[string]decimal.Decimal) []string {
	sizes := make([]string, 0, len(fees))
	for size := range fees {
		sizes = append(sizes, size)
	}
	sort.Slice(sizes, func(i, j int) bool {
		if c := fees[sizes[i]].Cmp(fees[sizes[j]]); c != 0 {
			return c < 0
		}
		return sizes[i] < sizes[j]
	})
	return sizes
}

func newConfigurationView(cfg *service.ProductConfiguration) ConfigurationView {
	return ConfigurationView{
		ProductID:    cfg.Product.ID,
		Name:         cfg.Product.Name,
		Description:  cfg.Product.Description,
		BasePrice:    money(cfg.Product.BasePrice),
		BaseImageURL: cfg.BaseImageURL,
		SizeFees:     moneyTable(cfg.SizeFees),
		Sizes:        sortedSizes(cfg.SizeFees),
		MinQuantity:  cfg.MinQuantity,
		LeadTimeDays: cfg.LeadTimeDays,
		Layers:       layerViews(cfg.Layers, cfg.MaskURLs),
	}
}

func newPricingView(p model.PricingSnapshot, quantity int) PricingView {
	costs := p.AdditionalCosts.Data()
	views := make([]AdditionalCostView, 0, len(costs))
	for _, c := range costs {
		views = append(views, AdditionalCostView{Description: c.Description, Amount: money(c.Amount)})
	}
	return PricingView{
		BasePrice:            money(p.BasePrice),
		SizeFee:              money(p.SizeFee),
		OptionFees:           money(p.OptionFees),
		UnitPrice:            money(p.UnitPrice),
		Quantity:             quantity,
		LineTotal:            money(p.LineTotal),
		AdditionalCosts:      views,
		AdditionalCostsTotal: money(p.AdditionalCostsTotal),
		GrandTotal:           money(p.GrandTotal),
	}
}

func selectionViews(sel model.Selection) map[uint]SelectionView {
	out := make(map[uint]SelectionView, len(sel))
	for layerID, s := range sel {
		out[layerID] = SelectionView{Name: s.Name, Value: s.Value, Fee: optionalMoney(s.Fee)}
	}
	return out
}

// newRFQView renders rfq. The access token is only included for the
// submitter's own response.
func newRFQView(rfq *model.RFQ, withToken bool) RFQView {
	view := RFQView{
		ID:          rfq.ID,
		ProductID:   rfq.ProductID,
		ProductName: rfq.ProductName,
		Layers:      selectionViews(rfq.Selections.Data()),
		Size:        rfq.Size,
		Quantity:    rfq.Quantity,
		Customer:    rfq.Customer,
		Status:      rfq.Status,
		Pricing:     newPricingView(rfq.Pricing, rfq.Quantity),
		Version:     rfq.Version,
		PreviewURL:  rfq.PreviewURL,
		CreatedAt:   rfq.CreatedAt,
		UpdatedAt:   rfq.UpdatedAt,
	}
	if withToken {
		view.AccessToken = rfq.AccessToken
	}
	return view
}

func newRFQViews(rfqs []model.RFQ) []RFQView {
	views := make([]RFQView, 0, len(rfqs))
	for i := range rfqs {
		views = append(views, newRFQView(&rfqs[i], false))
	}
	return views
}
