// Package dompdf captures a rendered region of a web page into a multi-page
// PDF document, one page per direct child of a target element.
//
// The pipeline resolves a target element, lists its children in document
// order, rasterizes every element and text child, wraps each raster into one
// fixed A4 portrait page and hands the finished [Document] to an output sink:
// return it ([MethodBuild]), open it in a viewer ([MethodOpen]) or persist it
// ([MethodSave], the default).
//
// # Browser-backed conversion
//
// A [Converter] owns a headless Chrome process. Load content into a [Session]
// and convert the children of any element:
//
//	c, err := dompdf.NewConverter(dompdf.WithOutputDir("out"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer c.Close()
//
//	s, err := c.OpenHTML(ctx, html)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer s.Close()
//
//	res, err := s.GeneratePDF(ctx, s.Selector("#invoice"), &dompdf.ConversionOptions{
//	    Resolution: 2,
//	    Method:     dompdf.MethodBuild,
//	})
//
// For one-off conversions use the package-level helpers:
//
//	res, err := dompdf.ConvertHTML(ctx, html, "#invoice", nil)
//
// # Stable handles
//
// [Session.UsePDF] returns a [PDFHandle]: attach its TargetRef to the
// container once and call ToPDF whenever a fresh export is needed.
//
//	h := s.UsePDF(nil)
//	if err := s.Attach(ctx, h.TargetRef, ".report"); err != nil {
//	    log.Fatal(err)
//	}
//	res, err := h.ToPDF(ctx, nil)
//
// # Custom backends
//
// [Pipeline] runs the same capture loop over any [Rasterizer], [Environment]
// and [Writer] implementation, which is how the package is tested without a
// browser.
//
// # Diagnostics
//
// Non-fatal conditions (missing target, unsupported child nodes, failed
// captures, a viewer that refused to open) never abort the conversion; they
// are collected as [Warning] values in the [Result] and logged at warn level.
package dompdf
