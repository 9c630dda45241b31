// Package snapfx provides Snap-style image nodes for batch image pipelines.
//
// The package wires four stateless nodes behind one facade:
//
//  1. Face Avoid (pkg/faceavoid): picks a vertical text position clear of a face mask
//  2. Snap Basic Filters (pkg/filters): applies a preset color filter with strength
//  3. Snap Text (pkg/textoverlay): draws wrapped text on a translucent bar
//  4. Low Quality Digital Look (pkg/degrade): simulates a cheap phone camera
//
// Basic usage:
//
//	package main
//
//	import (
//		"log"
//
//		"github.com/menta2k/snapfx"
//		"github.com/menta2k/snapfx/pkg/filters"
//		"github.com/menta2k/snapfx/pkg/tensor"
//	)
//
//	func main() {
//		fx := snapfx.New()
//
//		batch, err := tensor.FromImages(frames)
//		if err != nil {
//			log.Fatal(err)
//		}
//
//		p := filters.DefaultParams()
//		p.Filter = filters.Warmer
//		out, report, err := fx.Filter(batch, p)
//		if err != nil {
//			log.Fatal(err)
//		}
//		log.Printf("%d frames, %d fell back", out.N, report.Fallbacks())
//	}
//
// Every node is a synchronous function of its inputs. Batches use the
// (batch, height, width, channels) layout of pkg/tensor with samples in [0,1].
// Per-frame failures never abort a batch: the frame is passed through and
// flagged in the returned node.Report.
package snapfx

import (
	"image/color"

	"github.com/charmbracelet/log"

	"github.com/menta2k/snapfx/pkg/degrade"
	"github.com/menta2k/snapfx/pkg/faceavoid"
	"github.com/menta2k/snapfx/pkg/filters"
	"github.com/menta2k/snapfx/pkg/hexcolor"
	"github.com/menta2k/snapfx/pkg/node"
	"github.com/menta2k/snapfx/pkg/tensor"
	"github.com/menta2k/snapfx/pkg/textoverlay"
)

// Version of the snapfx library
const Version = "1.0.0"

// Config customizes the nodes built by NewWithConfig.
type Config struct {
	// Logger receives the node warnings. Nil means log.Default().
	Logger *log.Logger
	// Codec replaces the JPEG round trip of the degradation node.
	Codec degrade.Codec
}

// FX holds one instance of every node
type FX struct {
	avoid   *faceavoid.Randomizer
	filter  *filters.Applier
	text    *textoverlay.Renderer
	degrade *degrade.Simulator
}

// New creates an FX with default configuration
func New() *FX {
	return NewWithConfig(Config{})
}

// NewWithConfig creates an FX whose nodes share cfg.Logger
func NewWithConfig(cfg Config) *FX {
	fx := &FX{
		avoid:   faceavoid.New(),
		filter:  filters.New(),
		text:    textoverlay.New(),
		degrade: degrade.New(),
	}
	if cfg.Codec != nil {
		fx.degrade = degrade.NewWithCodec(cfg.Codec)
	}
	if cfg.Logger != nil {
		fx.avoid.SetLogger(cfg.Logger)
		fx.filter.SetLogger(cfg.Logger)
		fx.text.SetLogger(cfg.Logger)
		fx.degrade.SetLogger(cfg.Logger)
	}
	return fx
}

// FaceAvoid runs the placement randomizer on the first mask of the batch
func (fx *FX) FaceAvoid(masks *tensor.Masks, p faceavoid.Params) (faceavoid.Result, error) {
	return fx.avoid.Execute(masks, p)
}

// Filter applies a color filter to every frame
func (fx *FX) Filter(images *tensor.Images, p filters.Params) (*tensor.Images, node.Report, error) {
	return fx.filter.Execute(images, p)
}

// TextOverlay draws the text bar on every frame
func (fx *FX) TextOverlay(images *tensor.Images, p textoverlay.Params) (*tensor.Images, node.Report, error) {
	return fx.text.Execute(images, p)
}

// Degrade applies the low quality digital look to every frame
func (fx *FX) Degrade(images *tensor.Images, p degrade.Params) (*tensor.Images, node.Report, error) {
	return fx.degrade.Execute(images, p)
}

// Nodes lists the nodes in display order
func (fx *FX) Nodes() []node.Describer {
	return []node.Describer{fx.avoid, fx.filter, fx.text, fx.degrade}
}

// Schemas returns the declarations of all nodes in display order
func (fx *FX) Schemas() []node.Schema {
	nodes := fx.Nodes()
	out := make([]node.Schema, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.Schema())
	}
	return out
}

// Schema finds a node declaration by its name or display name
func (fx *FX) Schema(name string) (node.Schema, bool) {
	for _, s := range fx.Schemas() {
		if s.Name == name || s.DisplayName == name {
			return s, true
		}
	}
	return node.Schema{}, false
}

// HexToRGB converts "#RGB" or "#RRGGBB" to an opaque color. Anything else is white.
func HexToRGB(s string) color.RGBA {
	return hexcolor.ToRGB(s)
}

// GetVersion returns the library version
func GetVersion() string {
	return Version
}
