package pdf

import (
	"bytes"
	"compress/zlib"
	"strconv"
	"strings"
	"testing"
)

// testPage describes one page of a generated test PDF.
type testPage struct {
	content  []byte
	compress bool
	mediaBox string // empty inherits from the page tree
}

// buildTestPDF creates a minimal PDF. All pages share one resource
// dictionary holding a single image XObject named /Im1, the layout fpdf
// uses.
func buildTestPDF(pages []testPage) []byte {
	var buf bytes.Buffer
	offsets := map[int]int{}
	obj := func(id int, body string) {
		offsets[id] = buf.Len()
		buf.WriteString(strconv.Itoa(id) + " 0 obj\n" + body + "\nendobj\n")
	}

	buf.WriteString("%PDF-1.3\n")

	n := len(pages)
	kids := make([]string, n)
	for i := range pages {
		kids[i] = strconv.Itoa(5+i*2) + " 0 R"
	}
	obj(1, "<< /Type /Catalog /Pages 2 0 R >>")
	obj(2, "<< /Type /Pages /Kids ["+strings.Join(kids, " ")+"] /Count "+strconv.Itoa(n)+
		" /MediaBox [0 0 595.28 841.89] >>")
	obj(3, "<< /ProcSet [/PDF /ImageC] /XObject << /Im1 4 0 R >> >>")

	offsets[4] = buf.Len()
	buf.WriteString("4 0 obj\n<< /Type /XObject /Subtype /Image /Width 1 /Height 1 /Length 3 >>\nstream\n\x00\x00\x00\nendstream\nendobj\n")

	for i, pg := range pages {
		pageID, contentID := 5+i*2, 6+i*2
		box := ""
		if pg.mediaBox != "" {
			box = " /MediaBox " + pg.mediaBox
		}
		obj(pageID, "<< /Type /Page /Parent 2 0 R /Resources 3 0 R /Contents "+
			strconv.Itoa(contentID)+" 0 R"+box+" >>")

		data, filter := pg.content, ""
		if pg.compress {
			var z bytes.Buffer
			w := zlib.NewWriter(&z)
			w.Write(pg.content)
			w.Close()
			data, filter = z.Bytes(), " /Filter /FlateDecode"
		}
		offsets[contentID] = buf.Len()
		buf.WriteString(strconv.Itoa(contentID) + " 0 obj\n<< /Length " + strconv.Itoa(len(data)) + filter + " >>\nstream\n")
		buf.Write(data)
		buf.WriteString("\nendstream\nendobj\n")
	}

	size := 5 + n*2
	xref := buf.Len()
	buf.WriteString("xref\n0 " + strconv.Itoa(size) + "\n0000000000 65535 f \n")
	for id := 1; id < size; id++ {
		buf.WriteString(padLeft(strconv.Itoa(offsets[id]), 10) + " 00000 n \n")
	}
	buf.WriteString("trailer\n<< /Size " + strconv.Itoa(size) + " /Root 1 0 R >>\n")
	buf.WriteString("startxref\n" + strconv.Itoa(xref) + "\n%%EOF\n")
	return buf.Bytes()
}

func padLeft(s string, width int) string {
	for len(s) < width {
		s = "0" + s
	}
	return s
}

func TestLoad_NotPDF(t *testing.T) {
	if _, err := Load([]byte("hello")); err == nil {
		t.Fatal("expected error for non-PDF input")
	}
}

func TestLoad_MissingStartXRef(t *testing.T) {
	if _, err := Load([]byte("%PDF-1.4\n1 0 obj\n<<>>\nendobj\n")); err == nil {
		t.Fatal("expected error without startxref")
	}
}

func TestVersion(t *testing.T) {
	doc, err := Load(buildTestPDF([]testPage{{content: []byte("q Q")}}))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := doc.Version(); got != "1.3" {
		t.Errorf("Version() = %q, want 1.3", got)
	}
}

func TestPages_CountAndInheritedMediaBox(t *testing.T) {
	data := buildTestPDF([]testPage{
		{content: []byte("q 510 0 0 510 0 331 cm /Im1 Do Q")},
		{content: []byte("q Q")},
		{content: []byte("/Im1 Do"), mediaBox: "[0 0 612 792]"},
	})
	doc, err := Load(data)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	pages, err := doc.Pages()
	if err != nil {
		t.Fatalf("Pages: %v", err)
	}
	if len(pages) != 3 {
		t.Fatalf("len(pages) = %d, want 3", len(pages))
	}

	tests := []struct {
		w, h   float64
		images int
	}{
		{595.28, 841.89, 1},
		{595.28, 841.89, 0},
		{612, 792, 1},
	}
	for i, tt := range tests {
		info, err := doc.PageInfo(pages[i])
		if err != nil {
			t.Fatalf("PageInfo(%d): %v", i, err)
		}
		if info.Width != tt.w || info.Height != tt.h {
			t.Errorf("page %d size = %vx%v, want %vx%v", i, info.Width, info.Height, tt.w, tt.h)
		}
		if len(info.Images) != tt.images {
			t.Errorf("page %d images = %v, want %d", i, info.Images, tt.images)
		}
	}
}

func TestPageInfo_CompressedContent(t *testing.T) {
	data := buildTestPDF([]testPage{{
		content:  []byte("q 510.24 0 0 510.24 0.00 331.65 cm /Im1 Do Q\nq /Im1 Do Q"),
		compress: true,
	}})
	doc, err := Load(data)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	pages, err := doc.Pages()
	if err != nil {
		t.Fatalf("Pages: %v", err)
	}
	info, err := doc.PageInfo(pages[0])
	if err != nil {
		t.Fatalf("PageInfo: %v", err)
	}
	if len(info.Images) != 2 || info.Images[0] != "Im1" {
		t.Errorf("Images = %v, want [Im1 Im1]", info.Images)
	}
}

func TestDrawnXObjects_IgnoresOperandsOfOtherOperators(t *testing.T) {
	content := []byte("BT /F1 12 Tf (Do not count) Tj ET /Fm1 Do [/Im2] TJ /Im3 Do")
	got := drawnXObjects(content)
	want := []string{"Fm1", "Im3"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("drawnXObjects = %v, want %v", got, want)
	}
}

func TestParser_Objects(t *testing.T) {
	tests := []struct {
		in   string
		kind Kind
	}{
		{"null", Null},
		{"true", Bool},
		{"42", Int},
		{"-3.5", Real},
		{"(a (nested) string)", String},
		{"<48656c6c6f>", String},
		{"/Name#20Esc", Name},
		{"[1 2 3]", Array},
		{"<< /A 1 >>", Dictionary},
		{"12 0 R", Ref},
	}
	for _, tt := range tests {
		obj, err := newParser([]byte(tt.in), 0).object()
		if err != nil {
			t.Fatalf("object(%q): %v", tt.in, err)
		}
		if obj.Kind != tt.kind {
			t.Errorf("object(%q).Kind = %v, want %v", tt.in, obj.Kind, tt.kind)
		}
	}
}

func TestParser_StringValues(t *testing.T) {
	obj, _ := newParser([]byte("<48656c6c6f>"), 0).object()
	if string(obj.Str) != "Hello" {
		t.Errorf("hex string = %q, want Hello", obj.Str)
	}
	obj, _ = newParser([]byte("/Name#20Esc"), 0).object()
	if obj.Name != "Name Esc" {
		t.Errorf("name = %q, want %q", obj.Name, "Name Esc")
	}
	obj, _ = newParser([]byte("(a (b) c)"), 0).object()
	if string(obj.Str) != "a (b) c" {
		t.Errorf("literal = %q, want %q", obj.Str, "a (b) c")
	}
}
