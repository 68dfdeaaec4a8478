package main

import (
	"os"

	"github.com/keepsake-ai/keepsake/keepsakeservice"
)

func main() {
	if err := keepsakeservice.Run(); err != nil {
		os.Exit(1)
	}
}
