package webui

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/kayz/modprompt/internal/host"
)

type Server struct {
	adapter   *host.Adapter
	startedAt time.Time
}

func NewServer(adapter *host.Adapter) *Server {
	return &Server{
		adapter:   adapter,
		startedAt: time.Now().UTC(),
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/api/status", s.handleStatus)
	mux.HandleFunc("/api/libraries", s.handleLibraries)
	mux.HandleFunc("/api/inputs", s.handleInputs)
	mux.HandleFunc("/api/options", s.handleOptions)
	mux.HandleFunc("/api/compose", s.handleCompose)
	mux.HandleFunc("/api/negative", s.handleNegative)
	return mux
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(defaultIndexHTML))
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":         true,
		"started_at": s.startedAt.Format(time.RFC3339),
		"uptime_sec": int(time.Since(s.startedAt).Seconds()),
	})
}

func (s *Server) handleLibraries(w http.ResponseWriter, r *http.Request) {
	if !s.ready(w) || !allowMethod(w, r, http.MethodGet) {
		return
	}
	in := s.adapter.Inputs("")
	writeJSON(w, http.StatusOK, map[string]any{
		"libraries": in.Libraries,
		"models":    in.Models,
	})
}

func (s *Server) handleInputs(w http.ResponseWriter, r *http.Request) {
	if !s.ready(w) || !allowMethod(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, http.StatusOK, s.adapter.Inputs(strings.TrimSpace(r.URL.Query().Get("library"))))
}

func (s *Server) handleOptions(w http.ResponseWriter, r *http.Request) {
	if !s.ready(w) || !allowMethod(w, r, http.MethodGet) {
		return
	}
	q := r.URL.Query()
	block := strings.TrimSpace(q.Get("block"))
	if block == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "block is required"})
		return
	}
	strict := q.Get("strict") == "1" || q.Get("strict") == "true"

	opts, err := s.adapter.Options(strings.TrimSpace(q.Get("library")), block, strict)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, host.ErrUnknownLibrary) {
			status = http.StatusNotFound
		}
		writeJSON(w, status, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"block": block, "options": opts})
}

func (s *Server) handleCompose(w http.ResponseWriter, r *http.Request) {
	if !s.ready(w) || !allowMethod(w, r, http.MethodPost) {
		return
	}

	var req host.PromptInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json body"})
		return
	}
	req.Library = strings.TrimSpace(req.Library)
	req.Model = strings.TrimSpace(req.Model)

	writeJSON(w, http.StatusOK, s.adapter.ComposePrompt(r.Context(), req))
}

type negativeResponse struct {
	Negative string `json:"negative"`
}

func (s *Server) handleNegative(w http.ResponseWriter, r *http.Request) {
	if !s.ready(w) || !allowMethod(w, r, http.MethodPost) {
		return
	}

	var req host.NegativeInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json body"})
		return
	}
	writeJSON(w, http.StatusOK, negativeResponse{Negative: s.adapter.ComposeNegative(req)})
}

func (s *Server) ready(w http.ResponseWriter) bool {
	if s.adapter == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "composer is not initialized"})
		return false
	}
	return true
}

func allowMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

const defaultIndexHTML = `<!doctype html>
<html>
<head>
  <meta charset="utf-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>modprompt</title>
  <style>
    body { font-family: "Segoe UI", sans-serif; margin: 0; background: linear-gradient(145deg,#f7fafc,#e9eef7); color: #1f2937; }
    .wrap { max-width: 900px; margin: 0 auto; padding: 20px; }
    .panel { background: #fff; border-radius: 12px; box-shadow: 0 8px 30px rgba(15,23,42,.08); padding: 16px; }
    label { display: block; margin-top: 8px; font-size: 13px; color: #475569; }
    select, input, textarea { width: 100%; padding: 8px; border: 1px solid #cbd5e1; border-radius: 8px; box-sizing: border-box; }
    #out { margin-top: 12px; white-space: pre-wrap; border: 1px solid #d1d5db; border-radius: 8px; padding: 12px; background: #f9fafb; min-height: 60px; }
    button { margin-top: 12px; padding: 10px 16px; border: 0; border-radius: 8px; background: #0f766e; color: #fff; cursor: pointer; }
    button:hover { background: #0d9488; }
  </style>
</head>
<body>
  <div class="wrap">
    <div class="panel">
      <h2>modprompt</h2>
      <label>Library <select id="library"></select></label>
      <label>Model <select id="model"></select></label>
      <div id="blocks"></div>
      <label>Custom <textarea id="custom" rows="2"></textarea></label>
      <button id="compose">Compose</button>
      <div id="out"></div>
    </div>
  </div>
  <script>
    const $ = (id) => document.getElementById(id);
    const fill = (sel, items) => { sel.innerHTML = ''; items.forEach(v => { const o = document.createElement('option'); o.value = o.textContent = v; sel.appendChild(o); }); };
    async function load(library) {
      const resp = await fetch('/api/inputs' + (library ? '?library=' + encodeURIComponent(library) : ''));
      const data = await resp.json();
      fill($('library'), data.libraries); $('library').value = data.library;
      fill($('model'), data.models);
      const blocks = $('blocks'); blocks.innerHTML = '';
      data.blocks.forEach(b => {
        const label = document.createElement('label'); label.textContent = b.name;
        const sel = document.createElement('select'); sel.dataset.block = b.name; fill(sel, b.options);
        label.appendChild(sel);
        if (b.addon_enabled) { const add = document.createElement('input'); add.dataset.addon = b.name; add.placeholder = 'addon'; label.appendChild(add); }
        blocks.appendChild(label);
      });
    }
    async function compose() {
      const selections = {}, addons = {};
      document.querySelectorAll('[data-block]').forEach(s => selections[s.dataset.block] = s.value);
      document.querySelectorAll('[data-addon]').forEach(a => { if (a.value.trim()) addons[a.dataset.addon] = a.value; });
      const resp = await fetch('/api/compose', { method: 'POST', headers: {'Content-Type': 'application/json'},
        body: JSON.stringify({ library: $('library').value, model: $('model').value, selections, addons, custom: $('custom').value }) });
      const data = await resp.json();
      $('out').textContent = data.prompt || data.error || '(empty)';
    }
    $('library').addEventListener('change', (e) => load(e.target.value));
    $('compose').addEventListener('click', compose);
    load('');
  </script>
</body>
</html>`
