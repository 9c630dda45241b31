package types

// Box represents a normalized bounding box with coordinates in [0,1] range
type Box struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Empty reports whether the box covers no area
func (b Box) Empty() bool {
	return b.W <= 0 || b.H <= 0
}

// Face is the face located by a vision model
type Face struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
	Box        Box     `json:"box"`
}

// LocateResult contains the complete answer of the face locator
type LocateResult struct {
	Faces       []Face `json:"faces"`
	Description string `json:"description"`
}

// Primary returns the most confident face, or false when none was found
func (r LocateResult) Primary() (Face, bool) {
	best := -1
	for i, f := range r.Faces {
		if f.Box.Empty() {
			continue
		}
		if best < 0 || f.Confidence > r.Faces[best].Confidence {
			best = i
		}
	}
	if best < 0 {
		return Face{}, false
	}
	return r.Faces[best], true
}

// LocateOptions contains options for preparing the image sent to a backend
type LocateOptions struct {
	Model      string
	SendFormat string
	SendSize   int
	SendQ      int
}
