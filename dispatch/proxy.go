package dispatch

import (
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"
	"sync"

	"github.com/to404hanga/online_judge_compiler/errs"
	"github.com/to404hanga/pkg404/logger"
	loggerv2 "github.com/to404hanga/pkg404/logger/v2"
)

// proxies forwards requests verbatim to remote peers, one reverse proxy
// per peer address.
type proxies struct {
	log       loggerv2.Logger
	transport http.RoundTripper
	byRemote  sync.Map
}

func (p *proxies) get(remote string) (*httputil.ReverseProxy, error) {
	if rp, ok := p.byRemote.Load(remote); ok {
		return rp.(*httputil.ReverseProxy), nil
	}
	target, err := url.Parse(remote)
	if err != nil || target.Host == "" {
		return nil, fmt.Errorf("invalid remote address %q", remote)
	}
	rp := &httputil.ReverseProxy{
		Transport: p.transport,
		Rewrite: func(pr *httputil.ProxyRequest) {
			orig := OriginalURL(pr.In)
			pr.Out.URL.Scheme = target.Scheme
			pr.Out.URL.Host = target.Host
			pr.Out.URL.Path = orig.Path
			pr.Out.URL.RawPath = orig.RawPath
			pr.Out.URL.RawQuery = orig.RawQuery
			pr.Out.Host = ""
			pr.SetXForwarded()
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			derr := errs.Delegation(remote, err)
			requestsTotal.WithLabelValues(outcomeDelegation).Inc()
			p.log.ErrorContext(r.Context(), "Failed to proxy compile request", logger.String("remote", remote), logger.Error(derr))
			http.Error(w, derr.Error(), http.StatusBadGateway)
		},
	}
	actual, _ := p.byRemote.LoadOrStore(remote, rp)
	return actual.(*httputil.ReverseProxy), nil
}
