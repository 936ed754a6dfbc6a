package handler

// console.go serves the GraphiQL console, allowing queries to be entered in a web browser

import (
	"html/template"
	"log"
	"net/http"
)

var consoleTemplate = template.Must(template.New("console").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <title>{{.Title}}</title>
  <style>body { height: 100%; margin: 0; width: 100%; overflow: hidden; } #graphiql { height: 100vh; }</style>
  <link rel="stylesheet" href="https://unpkg.com/graphiql@2.4.7/graphiql.min.css" />
</head>
<body>
  <div id="graphiql">Loading...</div>
  <script crossorigin src="https://unpkg.com/react@18/umd/react.production.min.js"></script>
  <script crossorigin src="https://unpkg.com/react-dom@18/umd/react-dom.production.min.js"></script>
  <script crossorigin src="https://unpkg.com/graphiql@2.4.7/graphiql.min.js"></script>
  <script>
    const url = new URL({{.Path}}, window.location.href);
    const subscriptionUrl = url.href.replace(/^http/, 'ws');
    const fetcher = GraphiQL.createFetcher({ url: url.href, subscriptionUrl: subscriptionUrl });
    const root = ReactDOM.createRoot(document.getElementById('graphiql'));
    root.render(React.createElement(GraphiQL, { fetcher: fetcher, defaultEditorToolsVisibility: true }));
  </script>
</body>
</html>
`))

// serveConsole sends the GraphiQL HTML page which sends its queries back to the same URL
func (h *Handler) serveConsole(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err := consoleTemplate.Execute(w, struct{ Title, Path string }{
		Title: "GraphiQL",
		Path:  r.URL.Path,
	})
	if err != nil {
		log.Println("handler: error writing console:", err)
	}
}
