package service

import "net/http"

// Gateway identity values injected into forwarded traffic.
const (
	ForwardedBy = "API-Gateway"
)

// hopByHopHeaders must not be relayed upstream. Host is included because
// the outbound transport derives it from the upstream URL.
var hopByHopHeaders = []string{
	"Connection",
	"Keep-Alive",
	"Proxy-Authenticate",
	"Proxy-Authorization",
	"Te",
	"Trailers",
	"Transfer-Encoding",
	"Upgrade",
	"Host",
}

// responseStripHeaders are removed from upstream responses before they are
// returned to the client. The transport already decoded the body, so a
// surviving Content-Encoding would mislabel it.
var responseStripHeaders = []string{
	"Connection",
	"Transfer-Encoding",
	"Content-Encoding",
}

// requestStripHeaders extends the hop-by-hop set with Accept-Encoding: the
// outbound transport negotiates its own content encoding and transparently
// decodes the upstream body, so the client's preference must not leak
// through and suppress that decoding.
var requestStripHeaders = append([]string{"Accept-Encoding"}, hopByHopHeaders...)

var requestStripSet = headerSet(requestStripHeaders)
var responseStripSet = headerSet(responseStripHeaders)

func headerSet(keys []string) map[string]bool {
	set := make(map[string]bool, len(keys))
	for _, k := range keys {
		set[http.CanonicalHeaderKey(k)] = true
	}
	return set
}

// ToUpstream builds the outbound header set: hop-by-hop headers and
// Accept-Encoding removed in any casing, gateway identity injected.
// X-Forwarded-For preserves a client-supplied value; X-Real-IP is
// gateway-authoritative and always overwritten with the client address.
// Pure and total: unexpected header shapes pass through untouched.
func ToUpstream(src http.Header, clientAddr, gatewayVersion string) http.Header {
	dst := make(http.Header, len(src)+4)
	for key, vals := range src {
		if requestStripSet[http.CanonicalHeaderKey(key)] {
			continue
		}
		dst[http.CanonicalHeaderKey(key)] = append([]string(nil), vals...)
	}

	dst.Set("X-Forwarded-By", ForwardedBy)
	dst.Set("X-Gateway-Version", gatewayVersion)
	if dst.Get("X-Forwarded-For") == "" {
		dst.Set("X-Forwarded-For", clientAddr)
	}
	dst.Set("X-Real-IP", clientAddr)

	return dst
}

// FromDownstream builds the client-facing response header set, removing
// transport-leg headers the gateway does not preserve.
func FromDownstream(src http.Header) http.Header {
	dst := make(http.Header, len(src))
	for key, vals := range src {
		if responseStripSet[http.CanonicalHeaderKey(key)] {
			continue
		}
		dst[http.CanonicalHeaderKey(key)] = append([]string(nil), vals...)
	}
	return dst
}
