package main

import (
	"os"

	log "github.com/sirupsen/logrus"
)

func main() {
	if err := NewRoot().Execute(); err != nil {
		log.Debugf("command failed: %v", err)
		os.Exit(1)
	}
}
