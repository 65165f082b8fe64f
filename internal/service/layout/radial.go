// Package layout turns a decomposition tree into radial canvas positions.
//
// The root sits at a fixed center and fans its children around a full
// circle. Every other expanded node fans its children through a forward
// sector centered on the direction from its parent, so subtrees grow
// outward. Distance from the parent grows logarithmically with depth and
// node size shrinks with depth down to a floor. User drag overrides win
// over computed positions, and children fan out from the overridden spot.
//
// Compute is a pure function of (tree, overrides, options).
package layout

import (
	"fmt"
	"math"

	models "breakdown/internal/domain/models/decomposition"
)

type Options struct {
	CenterX    float64
	CenterY    float64
	RadiusStep float64
	// LogDamping scales ln(depth) in the radius growth factor.
	LogDamping float64
	// ChildSpan is the angular sector (radians) used by non-root nodes.
	ChildSpan  float64
	NodeWidth  float64
	NodeHeight float64
	ScaleStep  float64
	MinScale   float64
}

func DefaultOptions() Options {
	return Options{
		CenterX:    600,
		CenterY:    400,
		RadiusStep: 280,
		LogDamping: 0.35,
		ChildSpan:  math.Pi / 2,
		NodeWidth:  200,
		NodeHeight: 150,
		ScaleStep:  0.1,
		MinScale:   0.6,
	}
}

// Scale returns the node size factor at depth.
func (o Options) Scale(depth int) float64 {
	return math.Max(o.MinScale, 1-o.ScaleStep*float64(depth))
}

// Distance returns the parent-to-child distance for a child at depth >= 1.
func (o Options) Distance(depth int) float64 {
	if depth < 1 {
		depth = 1
	}
	return o.RadiusStep * (1 + o.LogDamping*math.Log(float64(depth)))
}

type point struct{ x, y float64 }

// Compute lays out every visible node. Children of nodes that are not
// Expanded are hidden.
func Compute(root *models.Node, overrides map[string]models.Position, opts Options) *models.Layout {
	return compute(root, overrides, opts, false)
}

func compute(root *models.Node, overrides map[string]models.Position, opts Options, includeHidden bool) *models.Layout {
	out := &models.Layout{}
	if root == nil {
		return out
	}

	var place func(n *models.Node, center point, parent *point, depth int)
	place = func(n *models.Node, center point, parent *point, depth int) {
		scale := opts.Scale(depth)
		w, h := opts.NodeWidth*scale, opts.NodeHeight*scale

		pos := models.Position{X: center.x - w/2, Y: center.y - h/2}
		ov, overridden := overrides[n.ID]
		if overridden {
			pos = ov
			center = point{ov.X + w/2, ov.Y + h/2}
		}

		out.Nodes = append(out.Nodes, models.LayoutNode{
			NodeID:        n.ID,
			X:             pos.X,
			Y:             pos.Y,
			CenterX:       center.x,
			CenterY:       center.y,
			Level:         depth,
			Scale:         scale,
			Width:         w,
			Height:        h,
			Overridden:    overridden,
			Name:          n.Name,
			Description:   n.Description,
			Icon:          n.Icon,
			ImageURL:      n.ImageURL,
			ThumbnailURL:  n.ThumbnailURL,
			IsRawMaterial: n.IsRawMaterial(),
			IsExpanded:    n.IsExpanded(),
			IsLoading:     n.IsLoading(),
			HasChildren:   n.HasChildren(),
			DepthCapped:   n.State == models.StateTerminal && n.DepthCapped,
		})

		if len(n.Children) == 0 || (!n.IsExpanded() && !includeHidden) {
			return
		}

		var dir, span float64
		if parent == nil {
			span = 2 * math.Pi
		} else {
			dir = math.Atan2(center.y-parent.y, center.x-parent.x)
			span = opts.ChildSpan
		}

		count := float64(len(n.Children))
		dist := opts.Distance(depth + 1)
		for i, child := range n.Children {
			angle := dir - span/2 + span*(float64(i)+0.5)/count
			cc := point{
				x: center.x + dist*math.Cos(angle),
				y: center.y + dist*math.Sin(angle),
			}
			out.Edges = append(out.Edges, models.Edge{
				ID:          EdgeID(n.ID, child.ID),
				From:        n.ID,
				To:          child.ID,
				RawMaterial: child.IsRawMaterial(),
			})
			c := center
			place(child, cc, &c, depth+1)
		}
	}

	place(root, point{opts.CenterX, opts.CenterY}, nil, 0)
	return out
}

// EdgeID is the stable connector id for a parent/child pair.
func EdgeID(parentID, childID string) string {
	return fmt.Sprintf("%s-%s", parentID, childID)
}

// Drag moves nodeID and all of its descendants by (dx, dy) as a rigid
// body and returns the new override map. Hidden descendants are pinned at
// their would-be positions so they stay in formation when revealed.
// Nodes outside the subtree keep their overrides. The input map is not
// modified.
func Drag(root *models.Node, overrides map[string]models.Position, nodeID string, dx, dy float64, opts Options) (map[string]models.Position, error) {
	if models.FindByID(root, nodeID) == nil {
		return nil, fmt.Errorf("node %s not in tree", nodeID)
	}

	full := compute(root, overrides, opts, true).Positions()

	out := make(map[string]models.Position, len(overrides)+1)
	for id, p := range overrides {
		out[id] = p
	}

	ids := append([]string{nodeID}, models.CollectDescendantIDs(root, nodeID)...)
	for _, id := range ids {
		p, ok := full[id]
		if !ok {
			continue
		}
		out[id] = models.Position{X: p.X + dx, Y: p.Y + dy}
	}
	return out, nil
}
