package locator

import (
	"property-scraper/internal/config"
	"property-scraper/internal/entity"
)

// PixelOffsetLocator assumes the marker is drawn at the center of the map
// canvas, shifted vertically by a fixed number of pixels (the pin head sits
// above the coordinate it marks).
type PixelOffsetLocator struct {
	OffsetY float64
}

func NewPixelOffsetLocator(cfg *config.Config) *PixelOffsetLocator {
	return &PixelOffsetLocator{OffsetY: cfg.TimeoutsConfig.MarkerOffsetY}
}

func (l *PixelOffsetLocator) ClickTarget(anchor entity.BoundingBox) entity.Point {
	center := anchor.Center()

	return entity.Point{X: center.X, Y: center.Y + l.OffsetY}
}
