package server

import (
	"html/template"
	"net/http"

	"go.uber.org/zap"
)

const swaggerUIVersion = "5.17.14"

var uiTemplate = template.Must(template.New("ui").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <title>{{.Title}}</title>
  <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@{{.Version}}/swagger-ui.css">
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://unpkg.com/swagger-ui-dist@{{.Version}}/swagger-ui-bundle.js"></script>
  <script>
    window.ui = SwaggerUIBundle({url: {{.DocPath}}, dom_id: "#swagger-ui"});
  </script>
</body>
</html>
`))

// serveUI renders a Swagger UI page reading the /doc description.
func (s *Server) serveUI(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err := uiTemplate.Execute(w, struct {
		Title   string
		Version string
		DocPath string
	}{
		Title:   apiTitle,
		Version: swaggerUIVersion,
		DocPath: docPath,
	})
	if err != nil {
		s.logger.Debug("render ui", zap.Error(err))
	}
}
