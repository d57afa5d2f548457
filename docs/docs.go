// Package docs registers the OpenAPI description served at /swagger/doc.json.
package docs

import "github.com/swaggo/swag/v2"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "{{.Title}}",
        "description": "{{escape .Description}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "schemes": {{ marshal .Schemes }},
    "securityDefinitions": {
        "ApiKeyAuth": {"type": "apiKey", "in": "header", "name": "X-API-Key"}
    },
    "security": [{"ApiKeyAuth": []}],
    "paths": {
        "/health": {
            "get": {"tags": ["Health"], "summary": "Health check", "security": [], "responses": {"200": {"description": "OK"}, "503": {"description": "Store unreachable"}}}
        },
        "/api/v1/authenticator/accounts": {
            "get": {"tags": ["Accounts"], "summary": "List accounts", "parameters": [{"name": "google", "in": "query", "type": "boolean"}], "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["Accounts"], "summary": "Add account", "responses": {"201": {"description": "Created"}, "409": {"description": "Too many accounts with the same name"}, "422": {"description": "Validation error"}}},
            "patch": {"tags": ["Accounts"], "summary": "Update account", "responses": {"200": {"description": "OK"}, "404": {"description": "Account not found"}}},
            "delete": {"tags": ["Accounts"], "summary": "Delete account", "parameters": [{"name": "name", "in": "query", "type": "string", "required": true}, {"name": "issuer", "in": "query", "type": "string"}], "responses": {"204": {"description": "Deleted"}, "404": {"description": "Account not found"}}}
        },
        "/api/v1/authenticator/accounts/uri": {
            "post": {"tags": ["Accounts"], "summary": "Add account from otpauth URI", "responses": {"201": {"description": "Created"}, "422": {"description": "Validation error"}}}
        },
        "/api/v1/authenticator/accounts/overwrite-check": {
            "post": {"tags": ["Accounts"], "summary": "Check overwrite", "responses": {"200": {"description": "OK"}}}
        },
        "/api/v1/authenticator/accounts/rename": {
            "put": {"tags": ["Accounts"], "summary": "Rename account", "responses": {"200": {"description": "OK"}, "403": {"description": "Account cannot be renamed"}, "404": {"description": "Account not found"}, "409": {"description": "Name already taken"}}}
        },
        "/api/v1/authenticator/accounts/swap": {
            "post": {"tags": ["Accounts"], "summary": "Swap accounts", "responses": {"200": {"description": "OK"}, "404": {"description": "Account not found"}}}
        },
        "/api/v1/authenticator/codes": {
            "post": {"tags": ["Codes"], "summary": "Generate code", "responses": {"200": {"description": "OK"}, "404": {"description": "Account not found"}, "429": {"description": "Account is busy"}}}
        },
        "/api/v1/authenticator/codes/verify": {
            "post": {"tags": ["Codes"], "summary": "Verify code", "responses": {"200": {"description": "OK"}, "404": {"description": "Account not found"}}}
        },
        "/api/v1/authenticator/countdown": {
            "get": {"tags": ["Codes"], "summary": "Countdown stream", "produces": ["text/event-stream"], "responses": {"200": {"description": "Event stream"}}}
        },
        "/api/v1/authenticator/google-account": {
            "get": {"tags": ["Google"], "summary": "Find Google account", "parameters": [{"name": "device_account", "in": "query", "type": "string", "required": true}], "responses": {"200": {"description": "OK"}, "404": {"description": "No matching account"}}}
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{"http", "https"},
	Title:            "AuthVault API",
	Description:      "AuthVault stores OTP credentials and computes HOTP/TOTP passcodes.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
