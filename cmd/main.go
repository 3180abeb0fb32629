package main

import (
	"os"

	"github.com/soundprediction/go-graphkeeper/cmd/graphkeeper"
)

func main() {
	os.Exit(graphkeeper.Execute())
}
