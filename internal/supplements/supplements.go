package supplements

import "time"

// Plan is a supplement protocol prescribed to an athlete. At most one
// plan per athlete is active at a time.
type Plan struct {
	ID        int    `json:"id"`
	AthleteID int    `json:"athlete_id"`
	Name      string `json:"name"`

	Description  *string `json:"description,omitempty"`
	GeneralNotes *string `json:"general_notes,omitempty"`

	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Items []Item `json:"items,omitempty"`
}

// Item is one supplement in a plan. SupplementID points at the catalog
// when set, otherwise CustomName carries a free-form product name.
type Item struct {
	ID           int  `json:"id"`
	PlanID       int  `json:"plan_id"`
	SupplementID *int `json:"supplement_id,omitempty"`
	Order        int  `json:"order"`

	CustomName   *string `json:"custom_name,omitempty"`
	Dose         *string `json:"dose,omitempty"`
	Timing       *string `json:"timing,omitempty"`
	Instructions *string `json:"instructions,omitempty"`
	Notes        *string `json:"notes,omitempty"`
}
