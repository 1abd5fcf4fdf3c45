package model

import "github.com/shopspring/decimal"

// DriverStanding is one row of the drivers championship
type DriverStanding struct {
	Position int             `json:"position"`
	Points   decimal.Decimal `json:"points"`
	DriverID string          `json:"driver"`
	Code     string          `json:"code"`
	Name     string          `json:"name"`
	Team     string          `json:"team"`
}

// ConstructorStanding is one row of the constructors championship
type ConstructorStanding struct {
	Position int             `json:"position"`
	Points   decimal.Decimal `json:"points"`
	Team     string          `json:"team"`
	ID       string          `json:"id"`
}

type Standings struct {
	Drivers      []DriverStanding      `json:"wdc"`
	Constructors []ConstructorStanding `json:"wcc"`
}

func (s *Standings) IsEmpty() bool {
	return s == nil || (len(s.Drivers) == 0 && len(s.Constructors) == 0)
}
