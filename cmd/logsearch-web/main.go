package main

import (
	"os"

	"github.com/MuchTitan/go-log-search/internal/web"
	"github.com/sirupsen/logrus"
)

func main() {
	addr := os.Getenv("LOGSEARCH_WEB_ADDR")
	if addr == "" {
		addr = ":8000"
	}

	srv, err := web.New("./results", "./uploads")
	if err != nil {
		logrus.WithError(err).Fatal("could not set up server")
	}

	logrus.WithField("addr", addr).Info("Starting log search web UI")
	if err := srv.Listen(addr); err != nil {
		logrus.WithError(err).Fatal("server stopped")
	}
}
