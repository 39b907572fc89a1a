// Package docs registers the OpenAPI description served at /swagger.
// Regenerate with: swag init -g cmd/main.go
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/health": {
            "get": {"produces": ["application/json"], "tags": ["system"], "summary": "Health check", "responses": {"200": {"description": "OK"}}}
        },
        "/auth/sign-up": {
            "post": {"consumes": ["application/json"], "produces": ["application/json"], "tags": ["auth"], "summary": "Sign up",
                "parameters": [{"description": "Credentials", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.authCredentials"}}],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}}
        },
        "/auth/sign-in": {
            "post": {"consumes": ["application/json"], "produces": ["application/json"], "tags": ["auth"], "summary": "Sign in",
                "parameters": [{"description": "Credentials", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.authCredentials"}}],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}, "401": {"description": "Unauthorized"}}}
        },
        "/api/v1/state": {
            "get": {"security": [{"BearerAuth": []}], "produces": ["application/json"], "tags": ["state"], "summary": "Get generator state",
                "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized"}, "500": {"description": "Internal Server Error"}}}
        },
        "/api/v1/state/correct": {
            "post": {"security": [{"BearerAuth": []}], "consumes": ["application/json"], "produces": ["application/json"], "tags": ["state"], "summary": "Correct state",
                "description": "Sets fuel, engine hours or the hours of the last oil and spark plug change. Values must be within 0..100000. Refused with 409 while a shift is running.",
                "parameters": [{"description": "Values to set", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.CorrectionRequest"}}],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}, "401": {"description": "Unauthorized"}, "409": {"description": "Conflict"}, "500": {"description": "Internal Server Error"}}}
        },
        "/api/v1/shifts/start": {
            "post": {"security": [{"BearerAuth": []}], "consumes": ["application/json"], "produces": ["application/json"], "tags": ["shifts"], "summary": "Start shift",
                "parameters": [{"description": "Shift payload", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.ShiftRequest"}}],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}, "401": {"description": "Unauthorized"}, "409": {"description": "Conflict"}, "500": {"description": "Internal Server Error"}}}
        },
        "/api/v1/shifts/stop": {
            "post": {"security": [{"BearerAuth": []}], "consumes": ["application/json"], "produces": ["application/json"], "tags": ["shifts"], "summary": "Stop shift",
                "parameters": [{"description": "Shift payload", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.ShiftRequest"}}],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}, "401": {"description": "Unauthorized"}, "409": {"description": "Conflict"}, "500": {"description": "Internal Server Error"}}}
        },
        "/api/v1/fuel/refuel": {
            "post": {"security": [{"BearerAuth": []}], "consumes": ["application/json"], "produces": ["application/json"], "tags": ["fuel"], "summary": "Record refill",
                "parameters": [{"description": "Refill payload", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.RefuelRequest"}}],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}, "401": {"description": "Unauthorized"}, "500": {"description": "Internal Server Error"}}}
        },
        "/api/v1/fuel/check": {
            "post": {"security": [{"BearerAuth": []}], "produces": ["application/json"], "tags": ["fuel"], "summary": "Check fuel level",
                "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized"}, "500": {"description": "Internal Server Error"}}}
        },
        "/api/v1/maintenance": {
            "get": {"security": [{"BearerAuth": []}], "produces": ["application/json"], "tags": ["maintenance"], "summary": "Maintenance status",
                "parameters": [{"type": "integer", "default": 50, "description": "History length", "name": "limit", "in": "query"}],
                "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized"}, "500": {"description": "Internal Server Error"}}},
            "post": {"security": [{"BearerAuth": []}], "consumes": ["application/json"], "produces": ["application/json"], "tags": ["maintenance"], "summary": "Record maintenance",
                "parameters": [{"description": "Service payload", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.MaintenanceRequest"}}],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}, "401": {"description": "Unauthorized"}, "500": {"description": "Internal Server Error"}}}
        },
        "/api/v1/sync/offline": {
            "post": {"security": [{"BearerAuth": []}], "produces": ["application/json"], "tags": ["sync"], "summary": "Force offline",
                "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized"}, "500": {"description": "Internal Server Error"}}}
        },
        "/api/v1/sync/online": {
            "post": {"security": [{"BearerAuth": []}], "produces": ["application/json"], "tags": ["sync"], "summary": "Force online",
                "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized"}, "500": {"description": "Internal Server Error"}}}
        },
        "/api/v1/sync/run": {
            "post": {"security": [{"BearerAuth": []}], "produces": ["application/json"], "tags": ["sync"], "summary": "Run reconciliation",
                "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized"}, "502": {"description": "Bad Gateway"}}}
        },
        "/api/v1/sync/health": {
            "get": {"security": [{"BearerAuth": []}], "produces": ["application/json"], "tags": ["sync"], "summary": "Ledger health",
                "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized"}, "500": {"description": "Internal Server Error"}}}
        },
        "/api/v1/reference/drivers": {
            "get": {"security": [{"BearerAuth": []}], "produces": ["application/json"], "tags": ["reference"], "summary": "Drivers list",
                "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized"}, "500": {"description": "Internal Server Error"}}}
        },
        "/api/v1/reference/personnel": {
            "get": {"security": [{"BearerAuth": []}], "produces": ["application/json"], "tags": ["reference"], "summary": "Personnel list",
                "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized"}, "500": {"description": "Internal Server Error"}}}
        },
        "/api/v1/reference/personnel/bindings/{user_id}": {
            "put": {"security": [{"BearerAuth": []}], "consumes": ["application/json"], "produces": ["application/json"], "tags": ["reference"], "summary": "Bind user to personnel",
                "description": "Actions of the user without an explicit actor are then logged under this personnel name.",
                "parameters": [
                    {"type": "integer", "description": "User ID", "name": "user_id", "in": "path", "required": true},
                    {"description": "Personnel name", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.PersonnelBindingRequest"}}
                ],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}, "401": {"description": "Unauthorized"}, "500": {"description": "Internal Server Error"}}}
        },
        "/api/v1/scheduler/open-shift": {
            "get": {"security": [{"BearerAuth": []}], "produces": ["application/json"], "tags": ["scheduler"], "summary": "Open shift past work hours",
                "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized"}, "500": {"description": "Internal Server Error"}}}
        },
        "/api/v1/scheduler/auto-close": {
            "post": {"security": [{"BearerAuth": []}], "produces": ["application/json"], "tags": ["scheduler"], "summary": "Auto-close",
                "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized"}, "500": {"description": "Internal Server Error"}}}
        },
        "/api/v1/logs": {
            "get": {"security": [{"BearerAuth": []}], "produces": ["application/json"], "tags": ["logs"], "summary": "List logs",
                "parameters": [
                    {"type": "string", "description": "Start of range", "name": "from", "in": "query"},
                    {"type": "string", "description": "End of range. Date-only treated as end of day.", "name": "to", "in": "query"},
                    {"type": "string", "description": "Event kind", "name": "kind", "in": "query"},
                    {"type": "boolean", "description": "Only events not yet written to the ledger", "name": "unsynced", "in": "query"},
                    {"type": "integer", "description": "Maximum number of events", "name": "limit", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}, "401": {"description": "Unauthorized"}, "500": {"description": "Internal Server Error"}}}
        }
    },
    "definitions": {
        "handlers.authCredentials": {"type": "object", "required": ["password", "username"], "properties": {"password": {"type": "string"}, "username": {"type": "string"}}},
        "handlers.ShiftRequest": {"type": "object", "required": ["shift"], "properties": {"actor": {"type": "string", "example": "Olena"}, "shift": {"type": "string", "example": "shift1"}}},
        "handlers.RefuelRequest": {"type": "object", "required": ["liters"], "properties": {"actor": {"type": "string"}, "driver": {"type": "string", "example": "Petro"}, "liters": {"type": "number", "example": 20}, "receipt": {"type": "string", "example": "A-1"}}},
        "handlers.MaintenanceRequest": {"type": "object", "required": ["kind"], "properties": {"actor": {"type": "string"}, "kind": {"type": "string", "example": "oil"}}},
        "handlers.CorrectionRequest": {"type": "object", "properties": {"actor": {"type": "string", "example": "Olena"}, "engine_hours": {"type": "number", "example": 1200.5}, "fuel": {"type": "number", "example": 171}, "last_oil": {"type": "number", "example": 1100}, "last_spark": {"type": "number", "example": 1000}}},
        "handlers.PersonnelBindingRequest": {"type": "object", "properties": {"name": {"type": "string", "example": "Коваленко О."}}}
    },
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Generator Ledger API",
	Description:      "Standby generator shifts, fuel and maintenance, reconciled with the spreadsheet ledger.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
