package api

import "net/http"

const landingHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>DocQA</title>
<style>
  *, *::before, *::after { box-sizing: border-box; margin: 0; padding: 0; }
  body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, Helvetica, Arial, sans-serif; background: #f8fafc; color: #0f172a; min-height: 100vh; display: flex; align-items: center; justify-content: center; }
  main { max-width: 640px; width: 92%; background: #fff; border: 1px solid #e2e8f0; border-radius: 10px; padding: 2rem; }
  h1 { font-size: 1.5rem; margin-bottom: 0.25rem; }
  p.lead { color: #475569; margin-bottom: 1.5rem; }
  h2 { font-size: 0.75rem; text-transform: uppercase; letter-spacing: 0.08em; color: #64748b; margin: 1.25rem 0 0.5rem; }
  li { list-style: none; margin: 0.35rem 0; }
  code { font-family: "SF Mono", Menlo, monospace; font-size: 0.85rem; }
  .ep { color: #4f46e5; }
  pre { background: #0f172a; color: #e2e8f0; border-radius: 8px; padding: 0.9rem; overflow-x: auto; font-size: 0.8rem; }
</style>
</head>
<body>
<main>
  <h1>DocQA</h1>
  <p class="lead">Upload documents, then ask questions answered with the most similar passages.</p>

  <h2>Endpoints</h2>
  <ul>
    <li><code class="ep">POST /upload</code> multipart <code>file</code> (pdf, docx, csv, txt, md)</li>
    <li><code class="ep">POST /ask</code> JSON <code>{"question": "...", "top_k": 3}</code></li>
    <li><code class="ep">POST /import_cms</code> form <code>content</code>, <code>source</code></li>
    <li><code class="ep">GET /health</code> vector store status</li>
    <li><code class="ep">/mcp</code> MCP Streamable HTTP</li>
  </ul>

  <h2>Example</h2>
  <pre><code>curl -F file=@handbook.pdf localhost:8080/upload
curl -d '{"question":"What is the refund policy?"}' localhost:8080/ask</code></pre>
</main>
</body>
</html>`

// NewLandingHandler returns an HTTP handler that serves the landing page at /.
func NewLandingHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", "GET, HEAD")
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(landingHTML))
	}
}
