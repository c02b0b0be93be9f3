package swagger

import (
	"bytes"
	"html/template"
)

const swaggerUiVersion string = "5.17.14"

var explorerTemplate = template.Must(template.New("explorer").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8" />
  <title>{{.Title}}</title>
  <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@{{.UiVersion}}/swagger-ui.css" />
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://unpkg.com/swagger-ui-dist@{{.UiVersion}}/swagger-ui-bundle.js" crossorigin></script>
  <script>
    window.onload = () => {
      window.ui = SwaggerUIBundle({
        url: "{{.DocumentUrl}}",
        dom_id: "#swagger-ui",
      });
    };
  </script>
</body>
</html>
`))

// Explorer renders the swagger-ui page that browses the document at
// documentUrl
func Explorer(documentUrl string) ([]byte, error) {
	buffer := &bytes.Buffer{}
	if err := explorerTemplate.Execute(buffer, struct {
		Title       string
		UiVersion   string
		DocumentUrl string
	}{
		Title:       Title + " " + Version,
		UiVersion:   swaggerUiVersion,
		DocumentUrl: documentUrl,
	}); err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}
