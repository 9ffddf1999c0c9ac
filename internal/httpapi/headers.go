package httpapi

import "net/http"

// Control headers addressed to semcache; these are always stripped
// before forwarding upstream, alongside the standard hop-by-hop set.
// PromptPathHeader overrides the prompt path per request; UpstreamHeader
// is not read by the proxy.
const (
	UpstreamHeader   = "X-Semcache-Upstream"
	PromptPathHeader = "X-Semcache-Prompt-Path"
)

// hopHeaders must never be forwarded through a proxy; RFC 7230 §6.1 plus
// the two semcache carries over from the original's header_utils.rs.
var hopHeaders = []string{
	"Connection",
	"TE",
	"Trailer",
	"Keep-Alive",
	"Proxy-Connection",
	"Proxy-Authenticate",
	"Proxy-Authorization",
	"Transfer-Encoding",
	"Upgrade",
	"Content-Length",
}

// removeHopHeaders strips hop-by-hop headers from h in place.
func removeHopHeaders(h http.Header) {
	for _, name := range hopHeaders {
		h.Del(name)
	}
}

// prepareUpstreamHeaders clones the inbound headers, strips hop-by-hop
// and semcache's own control headers, and sets Host to the provider's
// expected value.
func prepareUpstreamHeaders(inbound http.Header, hostHeader string) http.Header {
	upstream := inbound.Clone()
	removeHopHeaders(upstream)
	upstream.Del(UpstreamHeader)
	upstream.Del(PromptPathHeader)
	if hostHeader != "" {
		upstream.Set("Host", hostHeader)
	}
	return upstream
}
