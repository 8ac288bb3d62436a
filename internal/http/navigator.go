package http

import "net/http"

// redirectNavigator maps orchestrator navigation onto an HTTP redirect
// against the site base URL. It remembers whether it fired so handlers
// know the response has already been written.
type redirectNavigator struct {
	w       http.ResponseWriter
	r       *http.Request
	siteURL string
	fired   bool
}

func newRedirectNavigator(w http.ResponseWriter, r *http.Request, siteURL string) *redirectNavigator {
	return &redirectNavigator{w: w, r: r, siteURL: siteURL}
}

// Navigate issues a redirect to the given site path. Absolute paths are
// resolved against the site base URL; only the first navigation wins.
func (n *redirectNavigator) Navigate(path string) {
	if n.fired {
		return
	}
	n.fired = true
	http.Redirect(n.w, n.r, n.siteURL+path, http.StatusSeeOther)
}
