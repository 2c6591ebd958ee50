package identity

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// callbackPath is where the wallet login page redirects with the id token.
const callbackPath = "/callback"

const callbackHTML = `<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>think-waste</title></head>
<body style="font-family: sans-serif; text-align: center; padding-top: 4em;">
<h2>Wallet connected</h2>
<p>You can close this tab and return to the terminal.</p>
</body>
</html>`

// callbackResult is what the callback handler hands back to Connect.
type callbackResult struct {
	token string
	err   error
}

// newCallbackRouter builds the loopback router that receives the login
// redirect. Only the first result is delivered on results. Requests with
// a foreign state are rejected without ending the login.
func newCallbackRouter(expectedState string, results chan<- callbackResult) http.Handler {
	deliver := func(res callbackResult) {
		select {
		case results <- res:
		default:
		}
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get(callbackPath, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		// Verify CSRF state.
		if q.Get("state") != expectedState {
			http.Error(w, "invalid state", http.StatusForbidden)
			return
		}
		if msg := q.Get("error"); msg != "" {
			http.Error(w, "login failed", http.StatusBadRequest)
			deliver(callbackResult{err: fmt.Errorf("wallet login failed: %s", msg)})
			return
		}
		token := q.Get("id_token")
		if token == "" {
			http.Error(w, "missing id_token", http.StatusBadRequest)
			deliver(callbackResult{err: fmt.Errorf("callback received without id_token")})
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, callbackHTML) //nolint:errcheck
		deliver(callbackResult{token: token})
	})

	return r
}
