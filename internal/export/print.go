package export

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"doc-rectifier/internal/rectify"
	"doc-rectifier/internal/status"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const printStyle = `
body { margin: 0; padding: 20px; display: flex; flex-direction: column; align-items: center; font-family: Arial, sans-serif; }
h1 { margin-bottom: 10px; color: #333; font-size: 18px; }
.image-info { margin-bottom: 20px; color: #666; font-size: 14px; }
img { max-width: 100%; height: auto; box-shadow: 0 2px 10px rgba(0,0,0,0.1); }
@media print {
  body { padding: 0; }
  h1, .image-info { display: none; }
  img { box-shadow: none; }
}
`

const autoPrintScript = `
window.onload = function() {
  setTimeout(function() {
    window.print();
    setTimeout(function() { window.close(); }, 100);
  }, 250);
};
`

// PrintOptions controls the generated print page.
type PrintOptions struct {
	Title string
	// AutoPrint adds a script opening the browser's print dialog on load.
	AutoPrint bool
}

// DefaultPrintOptions returns the options used by Print.
func DefaultPrintOptions() PrintOptions {
	return PrintOptions{Title: "Corrected Document - Print", AutoPrint: true}
}

// PrintDocument writes a standalone HTML page showing the result with the PNG
// inlined as a data URL.
func PrintDocument(w io.Writer, res *rectify.Result, opts PrintOptions) error {
	var buf bytes.Buffer
	if err := WritePNG(&buf, res); err != nil {
		return err
	}
	dataURL := "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())

	head := element(atom.Head, nil,
		element(atom.Meta, []html.Attribute{{Key: "charset", Val: "utf-8"}}),
		element(atom.Title, nil, text(opts.Title)),
		element(atom.Style, nil, text(printStyle)),
	)
	body := element(atom.Body, nil,
		element(atom.H1, nil, text("Corrected Document")),
		element(atom.Div, []html.Attribute{{Key: "class", Val: "image-info"}},
			text(fmt.Sprintf("Resolution: %d×%dpx", res.Width, res.Height))),
		element(atom.Img, []html.Attribute{
			{Key: "src", Val: dataURL},
			{Key: "alt", Val: "Corrected Document"},
		}),
	)
	if opts.AutoPrint {
		body.AppendChild(element(atom.Script, nil, text(autoPrintScript)))
	}

	doc := &html.Node{Type: html.DocumentNode}
	doc.AppendChild(&html.Node{Type: html.DoctypeNode, Data: "html"})
	doc.AppendChild(element(atom.Html, nil, head, body))

	if err := html.Render(w, doc); err != nil {
		return fmt.Errorf("failed to render print page: %w", err)
	}
	return nil
}

// Print writes the print page to w and reports the outcome to sink.
func Print(w io.Writer, res *rectify.Result, sink status.Sink) error {
	err := PrintDocument(w, res, DefaultPrintOptions())
	switch {
	case errors.Is(err, ErrNoResult):
		sink.Report(status.Error, "No corrected image available. Please apply perspective correction first.")
	case err != nil:
		sink.Report(status.Error, "Print failed: "+err.Error())
	default:
		sink.Report(status.Success,
			fmt.Sprintf("Print page created for corrected image (%d×%dpx)", res.Width, res.Height))
	}
	return err
}

func element(a atom.Atom, attrs []html.Attribute, children ...*html.Node) *html.Node {
	n := &html.Node{Type: html.ElementNode, Data: a.String(), DataAtom: a, Attr: attrs}
	for _, c := range children {
		n.AppendChild(c)
	}
	return n
}

func text(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}
