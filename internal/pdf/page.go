package pdf

// PageInfo holds metadata about a single page.
type PageInfo struct {
	// Width and Height in points.
	Width    float64
	Height   float64
	Rotation int

	// Images lists the resource names of the image XObjects the page draws,
	// in drawing order.
	Images []string
}

// PageInfo extracts dimensions, rotation and drawn images for a page.
func (doc *Document) PageInfo(page Dict) (PageInfo, error) {
	var info PageInfo

	if mb := doc.Resolve(page["MediaBox"]); mb.Kind == Array && len(mb.Array) >= 4 {
		x0, _ := doc.Resolve(mb.Array[0]).Number()
		y0, _ := doc.Resolve(mb.Array[1]).Number()
		x1, _ := doc.Resolve(mb.Array[2]).Number()
		y1, _ := doc.Resolve(mb.Array[3]).Number()
		info.Width = x1 - x0
		info.Height = y1 - y0
	}
	if rot := doc.Resolve(page["Rotate"]); rot.Kind == Int {
		info.Rotation = int(rot.Int)
	}

	content, err := doc.Content(page)
	if err != nil {
		return info, err
	}
	xobjects := doc.dict(doc.dict(page["Resources"])["XObject"])
	for _, name := range drawnXObjects(content) {
		x := doc.dict(xobjects[name])
		if subtype, _ := x.Name("Subtype"); subtype == "Image" {
			info.Images = append(info.Images, name)
		}
	}
	return info, nil
}

// drawnXObjects scans a content stream for "/Name Do" operations.
func drawnXObjects(content []byte) []string {
	var names []string
	p := newParser(content, 0)
	last := ""
	for {
		p.skipSpace()
		if p.pos >= len(p.data) {
			return names
		}
		switch c := p.data[p.pos]; {
		case c == '/':
			last = p.name().Name
		case isDelim(c):
			if _, err := p.object(); err != nil {
				return names
			}
			last = ""
		default:
			if p.token() == "Do" && last != "" {
				names = append(names, last)
			}
			last = ""
		}
	}
}
