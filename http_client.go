package main

import (
	"net/http"
	"time"
)

func newHTTPClient(cfg Config) *http.Client {
	return &http.Client{
		Timeout: time.Duration(cfg.HTTPTimeoutSeconds) * time.Second,
	}
}
