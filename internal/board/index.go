package board

import (
	"bytes"
	"context"
	"html/template"
	"os"
	"path/filepath"

	"github.com/mesh-intelligence/pins/internal/meta"
	"github.com/mesh-intelligence/pins/pkg/types"
)

// ProtocolRSC names content-management boards that serve each version
// directory as a web page.
const ProtocolRSC = "rsc"

// IndexFile is the browsable page written into rsc versions.
const IndexFile = "index.html"

var indexTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Name}}: {{.Title}}</title>
</head>
<body>
<h1>{{.Title}}</h1>
{{with .Description}}<p>{{.}}</p>
{{end}}<dl>
<dt>Pin</dt><dd>{{.Name}}</dd>
<dt>Type</dt><dd>{{.Type}}</dd>
<dt>Created</dt><dd>{{.Created}}</dd>
<dt>Size</dt><dd>{{.FileSize}} bytes</dd>
<dt>Hash</dt><dd><code>{{.PinHash}}</code></dd>
{{with .Tags}}<dt>Tags</dt><dd>{{range $i, $t := .}}{{if $i}}, {{end}}{{$t}}{{end}}</dd>
{{end}}</dl>
<p><a href="{{.File}}">Download {{.File}}</a> &middot; <a href="` + types.ManifestFile + `">Metadata</a></p>
</body>
</html>
`))

type indexPage struct {
	types.Manifest
	Created string
}

// writeIndex renders index.html for m into the staged directory.
func writeIndex(_ context.Context, dir string, m types.Manifest) error {
	var buf bytes.Buffer
	page := indexPage{Manifest: m, Created: m.Created.UTC().Format(meta.TimeFormat)}
	if err := indexTemplate.Execute(&buf, page); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, IndexFile), buf.Bytes(), 0o644)
}
