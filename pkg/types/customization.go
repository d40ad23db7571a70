package types

import "github.com/merchforge/merchforge-backend/pkg/pricing"

// Customization is the per-line customer choice carried from cart to order.
// Color and size are descriptive only and never priced.
type Customization struct {
	SelectedColor    *ColorChoice              `json:"selected_color,omitempty"`
	SelectedSize     *SizeChoice               `json:"selected_size,omitempty"`
	DesignSelections []pricing.DesignSelection `json:"design_selections,omitempty"`
}

type ColorChoice struct {
	Name    string `json:"name"`
	HexCode string `json:"hex_code"`
}

type SizeChoice struct {
	Name string `json:"name"`
}
