package models

import "transitmap.onebusaway.org/internal/dataset"

type Route struct {
	ID        string `json:"id"`
	AgencyID  string `json:"agencyId"`
	ShortName string `json:"shortName"`
	LongName  string `json:"longName"`
	Color     string `json:"color"`
	TextColor string `json:"textColor"`
	// Label is the name shown in stop popups.
	Label string `json:"label"`
}

func NewRoute(r *dataset.Route) Route {
	return Route{
		ID:        r.ID,
		AgencyID:  r.AgencyID,
		ShortName: r.ShortName,
		LongName:  r.LongName,
		Color:     r.Color,
		TextColor: r.TextColor,
		Label:     r.Label(),
	}
}
