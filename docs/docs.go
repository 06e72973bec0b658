// Package docs holds the OpenAPI description served under /swagger.
// Regenerate with: swag init -g cmd/api/main.go
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/health": {
            "get": {"tags": ["health"], "summary": "Database connectivity check", "responses": {"200": {"description": "OK"}, "503": {"description": "Service Unavailable"}}}
        },
        "/healthz": {
            "get": {"tags": ["health"], "summary": "Liveness probe", "responses": {"200": {"description": "OK"}}}
        },
        "/intake/policy": {
            "get": {
                "tags": ["intake"],
                "summary": "Accepted media types and size limit",
                "produces": ["application/json"],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/intake.Policy"}}}
            }
        },
        "/documents/validate": {
            "post": {
                "tags": ["intake"],
                "summary": "Check a document against the intake policy without uploading it",
                "description": "The media type is checked first, then the size. When content_type is empty it is derived from filename.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [{"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.validateRequest"}}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.validateResponse"}}, "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.errorPayload"}}}
            }
        },
        "/documents": {
            "get": {
                "tags": ["documents"],
                "summary": "List documents",
                "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "description": "only documents of this media type", "name": "content_type", "in": "query"},
                    {"type": "integer", "default": 10, "name": "limit", "in": "query"},
                    {"type": "integer", "default": 0, "name": "offset", "in": "query"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/service.DocumentListResult"}}}
            },
            "post": {
                "tags": ["documents"],
                "summary": "Upload a patent document",
                "description": "Accepts PDF, DOC, DOCX or TXT files up to the configured size limit.",
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "parameters": [{"type": "file", "name": "file", "in": "formData", "required": true}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/model.Document"}},
                    "413": {"description": "Request Entity Too Large", "schema": {"$ref": "#/definitions/handler.errorPayload"}},
                    "415": {"description": "Unsupported Media Type", "schema": {"$ref": "#/definitions/handler.errorPayload"}}
                }
            }
        },
        "/documents/{id}": {
            "get": {
                "tags": ["documents"],
                "summary": "Get a document",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/model.Document"}}, "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.errorPayload"}}}
            },
            "delete": {
                "tags": ["documents"],
                "summary": "Delete a document and its analyses",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"204": {"description": "No Content"}}
            }
        },
        "/documents/{id}/download": {
            "get": {
                "tags": ["documents"],
                "summary": "Download the stored file",
                "description": "Redirects to a short-lived presigned URL on object storage.",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"302": {"description": "Found"}, "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handler.errorPayload"}}}
            }
        },
        "/documents/{id}/analyses": {
            "post": {
                "tags": ["analyses"],
                "summary": "Analyse a stored document",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"202": {"description": "Accepted", "schema": {"$ref": "#/definitions/model.Analysis"}}, "429": {"description": "Too Many Requests", "schema": {"$ref": "#/definitions/handler.errorPayload"}}, "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/handler.errorPayload"}}}
            }
        },
        "/analyses": {
            "get": {
                "tags": ["analyses"],
                "summary": "List analyses",
                "parameters": [
                    {"type": "string", "name": "document_id", "in": "query"},
                    {"type": "integer", "default": 10, "name": "limit", "in": "query"},
                    {"type": "integer", "default": 0, "name": "offset", "in": "query"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/service.AnalysisListResult"}}}
            },
            "post": {
                "tags": ["analyses"],
                "summary": "Analyse pasted text",
                "consumes": ["application/json"],
                "parameters": [{"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.startTextRequest"}}],
                "responses": {"202": {"description": "Accepted", "schema": {"$ref": "#/definitions/model.Analysis"}}}
            }
        },
        "/analyses/{id}": {
            "get": {
                "tags": ["analyses"],
                "summary": "Get an analysis and its report",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/model.Analysis"}}}
            }
        },
        "/analyses/{id}/cancel": {
            "post": {
                "tags": ["analyses"],
                "summary": "Cancel a pending or running analysis",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/model.Analysis"}}, "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/handler.errorPayload"}}}
            }
        },
        "/analyses/{id}/export": {
            "get": {
                "tags": ["analyses"],
                "summary": "Download the report of a completed analysis",
                "produces": ["application/json", "application/yaml"],
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true},
                    {"type": "string", "default": "json", "name": "format", "in": "query"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"type": "file"}}}
            }
        }
    },
    "definitions": {
        "handler.errorEnvelope": {
            "type": "object",
            "properties": {"code": {"type": "string"}, "message": {"type": "string"}}
        },
        "handler.errorPayload": {
            "type": "object",
            "properties": {"request_id": {"type": "string"}, "error": {"$ref": "#/definitions/handler.errorEnvelope"}}
        },
        "handler.validateRequest": {
            "type": "object",
            "properties": {"filename": {"type": "string"}, "content_type": {"type": "string"}, "size": {"type": "integer"}}
        },
        "handler.validateResponse": {
            "type": "object",
            "properties": {
                "accepted": {"type": "boolean"},
                "reason": {"type": "string", "enum": ["unsupported_type", "too_large"]},
                "message": {"type": "string"},
                "content_type": {"type": "string"},
                "size": {"type": "integer"},
                "limit": {"type": "integer"}
            }
        },
        "handler.startTextRequest": {
            "type": "object",
            "properties": {"text": {"type": "string"}}
        },
        "intake.Policy": {
            "type": "object",
            "properties": {
                "allowed_types": {"type": "array", "items": {"type": "string"}},
                "extensions": {"type": "array", "items": {"type": "string"}},
                "max_size": {"type": "integer"}
            }
        },
        "model.Document": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "filename": {"type": "string"},
                "original_name": {"type": "string"},
                "storage_path": {"type": "string"},
                "size": {"type": "integer"},
                "content_type": {"type": "string"},
                "created_at": {"type": "string"}
            }
        },
        "model.Analysis": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "source": {"type": "string", "enum": ["document", "text"]},
                "document_id": {"type": "string"},
                "status": {"type": "string", "enum": ["pending", "running", "completed", "failed", "cancelled"]},
                "report": {"type": "object"},
                "error": {"type": "string"},
                "created_at": {"type": "string"},
                "started_at": {"type": "string"},
                "completed_at": {"type": "string"}
            }
        },
        "service.DocumentListResult": {
            "type": "object",
            "properties": {"data": {"type": "array", "items": {"$ref": "#/definitions/model.Document"}}, "total": {"type": "integer"}}
        },
        "service.AnalysisListResult": {
            "type": "object",
            "properties": {"data": {"type": "array", "items": {"$ref": "#/definitions/model.Analysis"}}, "total": {"type": "integer"}}
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Patent Check API",
	Description:      "Upload intake and analysis of patent documents.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
