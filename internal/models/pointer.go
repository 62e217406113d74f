package models

type PointerEvent struct {
	Type string  `json:"type" binding:"required,oneof=down move up leave"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

type ScaleRequest struct {
	Scale float64 `json:"scale" binding:"required,gt=0"`
}
