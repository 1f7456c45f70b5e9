package main

// Build the Lambda handler binary:
//   GOOS=linux GOARCH=arm64 CGO_ENABLED=0 go build -o bootstrap ./cmd/lambda-http

import (
	"context"
	"log"
	"net/http"
	"sync"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"
	"github.com/gin-gonic/gin"

	"box3-backend/internal/bootstrap"
	"box3-backend/internal/shared/config"
)

var (
	initOnce  sync.Once
	initErr   error
	ginLambda *ginadapter.GinLambdaV2
)

func initApp() {
	cfg := config.Load()
	app, err := bootstrap.Build(cfg)
	if err != nil {
		initErr = err
		return
	}
	ginLambda = newProxy(app.Router)
}

func newProxy(router *gin.Engine) *ginadapter.GinLambdaV2 {
	if router == nil {
		return nil
	}
	return ginadapter.NewV2(router)
}

func handler(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	initOnce.Do(initApp)
	if initErr != nil {
		log.Printf("bootstrap error: %v", initErr)
		return errorResponse("bootstrap_failed", "service failed to start"), initErr
	}
	return proxy(ctx, ginLambda, req)
}

func proxy(ctx context.Context, adapter *ginadapter.GinLambdaV2, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	if adapter == nil {
		return errorResponse("router_unavailable", "router not initialized"), nil
	}
	return adapter.ProxyWithContext(ctx, req)
}

// errorResponse mirrors the API error envelope for failures outside the router.
func errorResponse(code, message string) events.APIGatewayV2HTTPResponse {
	return events.APIGatewayV2HTTPResponse{
		StatusCode: http.StatusInternalServerError,
		Body:       `{"error":{"code":"` + code + `","message":"` + message + `"}}`,
		Headers:    map[string]string{"Content-Type": "application/json"},
	}
}

func main() {
	lambda.Start(handler)
}
