package http

import (
	"html/template"
	"net/http"

	"go.uber.org/zap"
)

var indexTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>{{.Title}}</title>
    <style>
        body { font-family: system-ui, sans-serif; max-width: 720px; margin: 2rem auto; color: #1d2b36; }
        #messages { min-height: 300px; border: 1px solid #d5dde3; border-radius: 8px; padding: 1rem; overflow-y: auto; }
        .message { margin: .5rem 0; white-space: pre-wrap; }
        .user { text-align: right; color: #0b5394; }
        .followup { font-size: .85rem; color: #6b7b88; }
        .error { color: #b00020; }
        form { display: flex; gap: .5rem; margin-top: 1rem; }
        input[type=text] { flex: 1; padding: .5rem; }
    </style>
</head>
<body>
    <h1>{{.Title}}</h1>
    <div id="messages"></div>
    <form id="query-form" onsubmit="sendQuery(event)">
        <input type="text" id="query-input" placeholder="Ask about your pension..." autocomplete="off" required>
        <button type="submit">Send</button>
    </form>
    <script>
        let sessionId = null;
        const messages = document.getElementById('messages');

        function add(cls, text) {
            const div = document.createElement('div');
            div.className = 'message ' + cls;
            div.textContent = text;
            messages.appendChild(div);
            messages.scrollTop = messages.scrollHeight;
            return div;
        }

        fetch('/api/session', {method: 'POST'})
            .then(r => r.json())
            .then(s => { sessionId = s.session_id; add('assistant', s.greeting); });

        function sendQuery(e) {
            e.preventDefault();
            const input = document.getElementById('query-input');
            const query = input.value.trim();
            if (!query || !sessionId) return;
            input.value = '';
            add('user', query);

            const el = add('assistant', '');
            let text = '';
            const url = '/api/chat/stream?session=' + encodeURIComponent(sessionId) + '&q=' + encodeURIComponent(query);
            const source = new EventSource(url);
            source.onmessage = function(event) {
                const data = JSON.parse(event.data);
                if (data.content) {
                    text += data.content;
                    el.textContent = text;
                }
                if (data.error) {
                    el.className = 'message error';
                    el.textContent = text || data.error;
                }
                if (data.done) {
                    source.close();
                    if (data.followup) add('followup', 'Related: ' + data.followup);
                }
            };
            source.onerror = function() {
                source.close();
                if (!text) { el.className = 'message error'; el.textContent = 'Connection error'; }
            };
        }
    </script>
</body>
</html>`))

// handleIndex renders the chat page.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTemplate.Execute(w, struct{ Title string }{"Member Help Center"}); err != nil {
		s.logger.Error("render index", zap.Error(err))
	}
}
