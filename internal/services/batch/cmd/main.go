package main

import (
	"os"

	"github.com/LeonardoBeccarini/sensor_classifier/internal/services/batch"
)

func main() {
	os.Exit(batch.Run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}
