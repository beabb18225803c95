package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "University Portal API",
        "description": "Backend for the university student portal",
        "version": "1.0.0"
    },
    "basePath": "/api",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Authentication", "description": "Login and current user"},
        {"name": "Student Requests", "description": "Paid document request workflow"},
        {"name": "Admin Requests", "description": "Request review surface"},
        {"name": "Request Types", "description": "Priced request catalog"},
        {"name": "Notifications", "description": "In-app feed"},
        {"name": "News", "description": "News publishing"},
        {"name": "Events", "description": "Campus events"},
        {"name": "Chatbot", "description": "FAQ question list"},
        {"name": "Graduates", "description": "Alumni directory"},
        {"name": "Users", "description": "Account administration"},
        {"name": "Profile", "description": "Authenticated profile"},
        {"name": "Dashboard", "description": "Admin dashboard and student home"}
    ],
    "paths": {
        "/health": {
            "get": {
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Authenticate user",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/student-requests": {
            "get": {
                "tags": ["Student Requests"],
                "summary": "List own requests",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Student Requests"],
                "summary": "Submit a request",
                "consumes": ["multipart/form-data"],
                "parameters": [
                    {"name": "X-From", "in": "header", "required": true, "type": "string"},
                    {"name": "request_id", "in": "formData", "required": true, "type": "integer"},
                    {"name": "count", "in": "formData", "required": true, "type": "integer"},
                    {"name": "student_id", "in": "formData", "required": true, "type": "string"},
                    {"name": "student_name_en", "in": "formData", "required": true, "type": "string"},
                    {"name": "student_name_ar", "in": "formData", "required": true, "type": "string"},
                    {"name": "department", "in": "formData", "required": true, "type": "string"},
                    {"name": "receipt_image", "in": "formData", "required": true, "type": "file"}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Forbidden"},
                    "409": {"description": "Duplicate pending request"},
                    "422": {"description": "Validation failed"}
                }
            }
        },
        "/admin/student-requests/{status}": {
            "get": {
                "tags": ["Admin Requests"],
                "summary": "List requests by status",
                "parameters": [
                    {"name": "status", "in": "path", "required": true, "type": "string", "enum": ["pending", "accepted", "rejected"]}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"},
                "fields": {"type": "object"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
