// Command fakenode is a minimal backing-node stub: it answers GET /health
// with 200 OK and nothing else. It exists so the facade's watchdog and the
// integration tests have a real process to probe without depending on a
// full data-path node implementation, which is explicitly out of scope for
// this repository (see SPEC_FULL.md §1).
package main

import (
	"fmt"
	"net/http"
	"os"
)

func main() {
	addr := ":8500"
	if len(os.Args) > 1 {
		addr = os.Args[1]
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	fmt.Fprintf(os.Stderr, "fakenode listening on %s\n", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
