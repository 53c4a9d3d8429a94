// Package main serves the WebSocket $disconnect route.
package main

import (
	"context"
	"log"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/FedericoTs/LinkedinAnalytics/infrastructure/config"
	"github.com/FedericoTs/LinkedinAnalytics/infrastructure/di"
)

var container *di.Container

func init() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	cfg.IsLambda = true

	container, _, err = di.InitializeContainer(context.Background(), cfg)
	if err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}
}

func main() {
	lambda.Start(container.WebSocket.Disconnect)
}
