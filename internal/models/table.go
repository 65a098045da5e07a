package models

// Sector groups tables into a named dining area.
type Sector struct {
	ID        string `json:"id" yaml:"id"`
	Name      string `json:"name" yaml:"name"`
	Color     string `json:"color" yaml:"color"`
	SortOrder int    `json:"sort_order" yaml:"sort_order"`
}

// Table is reference data for the duration of a session; the core never
// creates tables individually, they are loaded wholesale.
type Table struct {
	ID          string `json:"id" yaml:"id"`
	SectorID    string `json:"sector_id" yaml:"sector_id"`
	Name        string `json:"name" yaml:"name"`
	MinCapacity int    `json:"min_capacity" yaml:"min_capacity"`
	MaxCapacity int    `json:"max_capacity" yaml:"max_capacity"`
	SortOrder   int    `json:"sort_order" yaml:"sort_order"`
}
