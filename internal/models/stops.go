package models

import "transitmap.onebusaway.org/internal/dataset"

type Stop struct {
	Code string  `json:"code"`
	ID   string  `json:"id"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
	Name string  `json:"name"`
}

func NewStop(s *dataset.Stop) Stop {
	return Stop{
		Code: s.Code,
		ID:   s.ID,
		Lat:  s.Lat,
		Lon:  s.Lon,
		Name: s.Name,
	}
}
