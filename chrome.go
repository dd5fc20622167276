package dompdf

import (
	"context"
	"fmt"

	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"github.com/go-json-experiment/json"
)

// DOM node types as reported by Node.nodeType.
const (
	domElementNode = 1
	domTextNode    = 3
	domCommentNode = 8
)

func kindOf(nodeType int) NodeKind {
	switch nodeType {
	case domElementNode:
		return KindElement
	case domTextNode:
		return KindText
	case domCommentNode:
		return KindComment
	default:
		return KindOther
	}
}

// chromeNode is a live DOM node in a session's tab, held as a remote object.
type chromeNode struct {
	s        *Session
	objectID runtime.RemoteObjectID
	kind     NodeKind
	name     string
}

var _ Element = (*chromeNode)(nil)

func (n *chromeNode) Kind() NodeKind { return n.kind }
func (n *chromeNode) Name() string   { return n.name }

// describe builds a chromeNode for a remote object.
func describe(ctx context.Context, s *Session, id runtime.RemoteObjectID) (*chromeNode, error) {
	node, err := dom.DescribeNode().WithObjectID(id).Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("describing node: %w", err)
	}
	return &chromeNode{
		s:        s,
		objectID: id,
		kind:     kindOf(int(node.NodeType)),
		name:     node.NodeName,
	}, nil
}

// listChildrenJS reports the type and name of every child node. Text nodes
// that only hold whitespace between tags are flagged as blank.
const listChildrenJS = `function() {
	return Array.from(this.childNodes, (n) => ({
		type: n.nodeType,
		name: n.nodeName,
		blank: n.nodeType === Node.TEXT_NODE && n.textContent.trim() === "",
	}));
}`

type childInfo struct {
	Type  int    `json:"type"`
	Name  string `json:"name"`
	Blank bool   `json:"blank"`
}

// Children lists the direct child nodes in document order. Whitespace-only
// text nodes are source formatting, not content, and are left out.
func (n *chromeNode) Children(ctx context.Context) ([]Node, error) {
	var children []Node
	err := n.s.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		var infos []childInfo
		if err := callJSON(ctx, n.objectID, listChildrenJS, &infos); err != nil {
			return err
		}
		for i, info := range infos {
			if info.Blank {
				continue
			}
			fn := fmt.Sprintf("function() { return this.childNodes[%d]; }", i)
			obj, exc, err := runtime.CallFunctionOn(fn).
				WithObjectID(n.objectID).
				WithObjectGroup(childGroup).
				Do(ctx)
			if err != nil {
				return err
			}
			if exc != nil {
				return fmt.Errorf("child %d: %s", i, exc.Text)
			}
			children = append(children, &chromeNode{
				s:        n.s,
				objectID: obj.ObjectID,
				kind:     kindOf(info.Type),
				name:     info.Name,
			})
		}
		return nil
	}))
	if err != nil {
		return nil, fmt.Errorf("listing children of %s: %w", n.name, err)
	}
	return children, nil
}

// callJSON calls fn with this bound to the remote object and decodes the
// returned value into out.
func callJSON(ctx context.Context, id runtime.RemoteObjectID, fn string, out any) error {
	res, exc, err := runtime.CallFunctionOn(fn).
		WithObjectID(id).
		WithReturnByValue(true).
		Do(ctx)
	if err != nil {
		return err
	}
	if exc != nil {
		return fmt.Errorf("script error: %s", exc.Text)
	}
	return json.Unmarshal(res.Value, out)
}

// boxJS returns the page-relative bounding box of an element, or of the
// rendered text of a text node.
const boxJS = `function() {
	let r;
	if (this.nodeType === Node.TEXT_NODE) {
		const range = document.createRange();
		range.selectNodeContents(this);
		r = range.getBoundingClientRect();
	} else {
		r = this.getBoundingClientRect();
	}
	return {
		x: r.left + window.scrollX,
		y: r.top + window.scrollY,
		width: r.width,
		height: r.height,
	};
}`

type box struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// chromeRasterizer captures nodes with a clipped screenshot of their box.
type chromeRasterizer struct {
	s *Session
}

var _ Rasterizer = (*chromeRasterizer)(nil)

func (r *chromeRasterizer) Rasterize(ctx context.Context, node Node, settings CaptureSettings) (*PageRaster, error) {
	cn, ok := node.(*chromeNode)
	if !ok || cn.s != r.s {
		return nil, fmt.Errorf("dompdf: node %s does not belong to this session", node.Name())
	}

	var raster *PageRaster
	err := r.s.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		if settings.UseCORS {
			if err := page.SetBypassCSP(true).Do(ctx); err != nil {
				return fmt.Errorf("enabling cross-origin capture: %w", err)
			}
		}

		var b box
		if err := callJSON(ctx, cn.objectID, boxJS, &b); err != nil {
			return fmt.Errorf("measuring %s: %w", cn.name, err)
		}
		if settings.Logging {
			r.s.conv.logger.Info("capturing node", "node", cn.name,
				"x", b.X, "y", b.Y, "width", b.Width, "height", b.Height, "scale", settings.Scale)
		}
		if b.Width <= 0 || b.Height <= 0 {
			return nil
		}

		params := page.CaptureScreenshot().
			WithClip(&page.Viewport{X: b.X, Y: b.Y, Width: b.Width, Height: b.Height, Scale: settings.Scale}).
			WithCaptureBeyondViewport(true).
			WithFromSurface(true)
		if settings.Format == FormatPNG {
			params = params.WithFormat(page.CaptureScreenshotFormatPng)
		} else {
			params = params.WithFormat(page.CaptureScreenshotFormatJpeg).
				WithQuality(int64(settings.Quality))
		}
		buf, err := params.Do(ctx)
		if err != nil {
			return fmt.Errorf("capturing %s: %w", cn.name, err)
		}
		raster = &PageRaster{Data: buf, Format: settings.Format, Scale: settings.Scale}
		return nil
	}))
	if err != nil {
		return nil, err
	}
	return raster, nil
}
