package handler

import (
	"net/http"

	"listinghub-backend/bootstrap"
)

var serve http.Handler

func init() {
	var err error
	serve, err = bootstrap.Handler()
	if err != nil {
		panic("app create: " + err.Error())
	}
}

// Handler is the serverless entry point. All requests are rewritten here.
func Handler(w http.ResponseWriter, r *http.Request) {
	r.RequestURI = r.URL.String()
	serve.ServeHTTP(w, r)
}
