package main

import (
	"context"
	"log"

	"github.com/Apurer/equipment-checkout/internal/app/api"
)

func main() {
	if err := api.Run(context.Background()); err != nil {
		log.Fatalf("equipment checkout api: %v", err)
	}
}
