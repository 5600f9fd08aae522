package handler

import (
	"bytes"
	"fmt"
	"html/template"
)

const appTitle = "pdfpages"

// pageTemplate is the mobile-first wrapper around a rendered page image.
// Inline styles only; the page image is the only external asset.
var pageTemplate = template.Must(template.New("page").Parse(`<!doctype html>
<html lang="en">
<head>
  <meta charset="utf-8" />
  <meta name="viewport" content="width=device-width,initial-scale=1" />
  <title>{{.Title}} · {{.DocID}} · p{{.Page}}</title>
  <style>
    body { margin: 0; font-family: system-ui, -apple-system, Segoe UI, Roboto, sans-serif; background:#0b0b0f; color:#eee; }
    .top { position: sticky; top: 0; background: rgba(11,11,15,.92); padding: 10px 12px; border-bottom: 1px solid rgba(255,255,255,.08); }
    .top b { font-size: 14px; }
    .wrap { padding: 10px; }
    img { width: 100%; height: auto; display:block; border-radius: 10px; background:#111; }
    .hint { opacity:.75; font-size: 12px; margin-top: 8px; }
  </style>
</head>
<body>
  <div class="top"><b>{{.DocID}}</b> · page {{.Page}}</div>
  <div class="wrap">
    <img src="{{.ImgURL}}" alt="page {{.Page}}" />
    <div class="hint">Rendered on demand. Cache: enabled.</div>
  </div>
</body>
</html>`))

type pageView struct {
	Title  string
	DocID  string
	Page   int
	ImgURL string
}

// mobileHTML renders the viewer page for a document page. The image URL points
// back at the raw PNG endpoint so the browser fetches the cached file.
func mobileHTML(docID string, page int) (string, error) {
	var buf bytes.Buffer
	err := pageTemplate.Execute(&buf, pageView{
		Title:  appTitle,
		DocID:  docID,
		Page:   page,
		ImgURL: fmt.Sprintf("/v1/docs/%s/pages/%d.png", docID, page),
	})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}
