package types

import "image"

// FaceBox is a detected face in source-pixel coordinates
type FaceBox struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

// Valid reports whether the box has a positive area
func (b FaceBox) Valid() bool {
	return b.W > 0 && b.H > 0
}

func (b FaceBox) TopLeft() image.Point     { return image.Pt(b.X, b.Y) }
func (b FaceBox) TopRight() image.Point    { return image.Pt(b.X+b.W, b.Y) }
func (b FaceBox) BottomLeft() image.Point  { return image.Pt(b.X, b.Y+b.H) }
func (b FaceBox) BottomRight() image.Point { return image.Pt(b.X+b.W, b.Y+b.H) }

// Rect returns the box as an image rectangle
func (b FaceBox) Rect() image.Rectangle {
	return image.Rect(b.X, b.Y, b.X+b.W, b.Y+b.H)
}

// CropWindow is the top-left corner and size of a crop inside an image
type CropWindow struct {
	X1   int `json:"x1"`
	Y1   int `json:"y1"`
	OutW int `json:"out_w"`
	OutH int `json:"out_h"`
}

// Rect returns the window as an image rectangle
func (w CropWindow) Rect() image.Rectangle {
	return image.Rect(w.X1, w.Y1, w.X1+w.OutW, w.Y1+w.OutH)
}

// Size is a width/height pair
type Size struct {
	W int `json:"width" mapstructure:"width"`
	H int `json:"height" mapstructure:"height"`
}

// Zone is the horizontal band a face falls in
type Zone string

const (
	ZoneLeft   Zone = "left"
	ZoneMiddle Zone = "middle"
	ZoneRight  Zone = "right"
)

// Position is the side an image should show its face on
type Position string

const (
	PositionLeft  Position = "left"
	PositionRight Position = "right"
)

// Kind classifies prepared images into collage pools
type Kind string

const (
	KindHorizontal Kind = "horizontal"
	KindVertical   Kind = "vertical"
	KindHero       Kind = "hero"
)

// Preset is a justified layout target
type Preset struct {
	Width     int `json:"width" mapstructure:"width"`
	RowHeight int `json:"row_height" mapstructure:"row_height"`
}

// Box is a bounding box normalized to the [0,1] range
type Box struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// FaceAnalysis is what a vision model reports about faces in an image
type FaceAnalysis struct {
	Faces       []Box  `json:"faces"`
	Description string `json:"description"`
}
