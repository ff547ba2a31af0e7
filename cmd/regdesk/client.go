package main

import (
	"regdesk/internal/client/api"
	"regdesk/internal/platform/config"
)

func newAPIClient(cfg config.Client) *api.Client {
	return api.New(cfg.ServerURL, cfg.Timeout)
}
