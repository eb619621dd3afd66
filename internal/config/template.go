package config

// DefaultTemplate is written by "itemdesk config init".
const DefaultTemplate = `# itemdesk configuration

backend:
  # Origin of the item API. ITEMDESK_BACKEND_URL overrides this value.
  base_url: "http://localhost:8000"
  timeout_ms: 10000

cookies:
  session_name: "sessionid"
  csrf_name: "csrftoken"
  csrf_header: "X-CSRFToken"

server:
  listen: "127.0.0.1:3000"
  enable_http2: true
  # Login attempts per client address. 0 disables the limit.
  login_rate_limit:
    per_minute: 10
    burst: 5

client:
  # Where "itemdesk login" keeps the session cookies.
  # session_file: "~/.config/itemdesk/session.json"

logging:
  # Reloaded while "itemdesk serve" runs.
  level: "info"
  format: "console"
  output: "stderr"
  pretty: true

health:
  circuit_breaker:
    failure_threshold: 5
    open_duration_ms: 30000
    half_open_requests: 3

# Keeps the user of a session for a short time so pages render
# without a backend call for the navigation bar.
cache:
  enabled: true
  ttl_ms: 30000
  max_entries: 10000

# Backend request spans, exported as JSON lines.
tracing:
  enabled: false
  output: "stderr"
  sample_ratio: 1.0
`
