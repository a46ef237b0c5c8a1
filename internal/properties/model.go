package properties

import "time"

// Property is a subject property or investor deal.
type Property struct {
	ID                 string    `json:"id"`
	Address            string    `json:"address"`
	City               string    `json:"city,omitempty"`
	State              string    `json:"state,omitempty"`
	Zip                string    `json:"zip,omitempty"`
	Price              float64   `json:"price"`
	Beds               int       `json:"beds"`
	Baths              float64   `json:"baths"`
	Sqft               int       `json:"sqft"`
	ImageURL           string    `json:"image_url,omitempty"`
	Description        string    `json:"description,omitempty"`
	ARVEstimate        float64   `json:"arv_estimate"`
	MarketRentEstimate float64   `json:"market_rent_estimate"`
	CreatedAt          time.Time `json:"created_at"`
}

// Patch carries mutable property fields; nil means unchanged.
type Patch struct {
	Address            *string  `json:"address"`
	City               *string  `json:"city"`
	State              *string  `json:"state"`
	Zip                *string  `json:"zip"`
	Price              *float64 `json:"price"`
	Beds               *int     `json:"beds"`
	Baths              *float64 `json:"baths"`
	Sqft               *int     `json:"sqft"`
	ImageURL           *string  `json:"image_url"`
	Description        *string  `json:"description"`
	ARVEstimate        *float64 `json:"arv_estimate"`
	MarketRentEstimate *float64 `json:"market_rent_estimate"`
}

func (patch Patch) apply(p *Property) {
	if patch.Address != nil {
		p.Address = *patch.Address
	}
	if patch.City != nil {
		p.City = *patch.City
	}
	if patch.State != nil {
		p.State = *patch.State
	}
	if patch.Zip != nil {
		p.Zip = *patch.Zip
	}
	if patch.Price != nil {
		p.Price = *patch.Price
	}
	if patch.Beds != nil {
		p.Beds = *patch.Beds
	}
	if patch.Baths != nil {
		p.Baths = *patch.Baths
	}
	if patch.Sqft != nil {
		p.Sqft = *patch.Sqft
	}
	if patch.ImageURL != nil {
		p.ImageURL = *patch.ImageURL
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	if patch.ARVEstimate != nil {
		p.ARVEstimate = *patch.ARVEstimate
	}
	if patch.MarketRentEstimate != nil {
		p.MarketRentEstimate = *patch.MarketRentEstimate
	}
}
