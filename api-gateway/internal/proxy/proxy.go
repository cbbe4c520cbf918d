package proxy

import (
	"net/http"
	"net/http/httputil"
	"net/url"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// NewServiceProxy returns a gin handler that forwards the request to the
// given upstream, preserving path and query. httputil.ReverseProxy handles
// WebSocket upgrade requests transparently, so the same handler serves both
// REST prefixes and the realtime upgrade path.
func NewServiceProxy(target string, log *zap.Logger) (gin.HandlerFunc, error) {
	upstream, err := url.Parse(target)
	if err != nil {
		return nil, err
	}

	p := httputil.NewSingleHostReverseProxy(upstream)
	p.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		log.Warn("Upstream unreachable",
			zap.String("upstream", upstream.Host),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(`{"success":false,"error":"Upstream service unavailable"}`))
	}

	return func(c *gin.Context) {
		p.ServeHTTP(c.Writer, c.Request)
	}, nil
}
