package ai

// ImageAnalysis is the result of analyzing one manual image.
type ImageAnalysis struct {
	// Description is a short, technician-oriented account of what the
	// figure shows.
	Description string

	// Tags classify the figure. Each tag must match one of ImageTags.
	Tags []string

	// Confidence is the model's self-reported certainty in [0,1].
	Confidence float32
}

// ImageTags defines the valid categories for analyzed manual figures.
var ImageTags = []string{
	"assembly_drawing",
	"chart",
	"circuit_diagram",
	"connector_pinout",
	"control_panel",
	"exploded_view",
	"flowchart",
	"lubrication_points",
	"paper_path",
	"parts_diagram",
	"photo",
	"schematic",
	"screenshot",
	"table",
	"wiring_diagram",
}
