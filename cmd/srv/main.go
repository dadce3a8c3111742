package main

import (
	"context"
	"log"
	"os"
)

var server srv

func main() {
	server.ctx = context.Background()
	server.loadApp()

	if err := server.app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
