package server

import (
	"net"
	"net/http"
)

// ListenAndServe binds srv.Addr, closes ready once the listener is open and
// then serves until the server is shut down. Bind errors are returned
// before ready is closed.
func ListenAndServe(srv *http.Server, ready chan<- struct{}) error {
	addr := srv.Addr
	if addr == "" {
		addr = ":http"
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	if ready != nil {
		close(ready)
	}
	return srv.Serve(ln)
}
