package main

import (
	"context"
	"time"

	"github.com/shandysiswandi/authvault/internal/app"
)

// @title           AuthVault API
// @version         1.0
// @description     AuthVault stores OTP accounts and generates HOTP/TOTP passcodes.
// @license.name    MIT
// @license.url     https://mit-license.org/
// @server          http://localhost:8080
// @securityDefinitions.apikey  ApiKeyAuth
// @in header
// @name X-API-Key
// @description Static API key, also accepted as "Bearer <key>" in Authorization.
func main() {
	application := app.New()    // Initialize the application
	wait := application.Start() // Start the application and wait for the termination signal
	<-wait                      // Wait for the application to receive a termination signal
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	application.Stop(ctx) // Stop the application gracefully
}
