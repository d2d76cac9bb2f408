package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Edu Ops API",
        "description": "Teacher rostering and make-up class assignment for a language centre",
        "version": "1.0.0"
    },
    "basePath": "/api",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "security": [{"BearerAuth": []}],
    "tags": [
        {"name": "Authentication", "description": "Login and current user"},
        {"name": "Users", "description": "Admin user management"},
        {"name": "Teachers", "description": "Teacher profiles, qualified levels and daily commitments"},
        {"name": "Subjects", "description": "Subjects and their levels"},
        {"name": "Classes", "description": "Courses run for a subject level"},
        {"name": "Schedules", "description": "Fixed weekly class slots"},
        {"name": "Roster", "description": "Shifts, work shifts, availability and weekly free slots"},
        {"name": "Make-up classes", "description": "Offset, supplementary and test sessions with teacher assignment"},
        {"name": "Notifications", "description": "Dashboard notification feed and live socket"},
        {"name": "Google Sheets", "description": "Spreadsheet inbox import"}
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Authenticate user",
                "security": [],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/auth/me": {
            "get": {
                "tags": ["Authentication"],
                "summary": "Current user",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/auth/change-password": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Change password",
                "responses": {"204": {"description": "Changed"}}
            }
        },
        "/users": {
            "get": {"tags": ["Users"], "summary": "List users", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}},
            "post": {"tags": ["Users"], "summary": "Create user", "responses": {"201": {"description": "Created"}, "409": {"description": "Email already exists"}}}
        },
        "/users/{id}": {
            "get": {"tags": ["Users"], "summary": "Get user", "parameters": [{"$ref": "#/parameters/id"}], "responses": {"200": {"description": "OK"}}},
            "put": {"tags": ["Users"], "summary": "Update user", "parameters": [{"$ref": "#/parameters/id"}], "responses": {"200": {"description": "OK"}, "409": {"description": "Last active admin"}}},
            "delete": {"tags": ["Users"], "summary": "Delete user", "parameters": [{"$ref": "#/parameters/id"}], "responses": {"204": {"description": "Deleted"}}}
        },
        "/teachers": {
            "get": {
                "tags": ["Teachers"],
                "summary": "List teachers",
                "parameters": [
                    {"name": "status", "in": "query", "type": "string", "enum": ["active", "inactive"]},
                    {"name": "search", "in": "query", "type": "string"},
                    {"$ref": "#/parameters/page"},
                    {"$ref": "#/parameters/limit"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {"tags": ["Teachers"], "summary": "Create teacher", "responses": {"201": {"description": "Created"}}}
        },
        "/teachers/{id}": {
            "get": {"tags": ["Teachers"], "summary": "Get teacher", "parameters": [{"$ref": "#/parameters/id"}], "responses": {"200": {"description": "OK"}}},
            "put": {"tags": ["Teachers"], "summary": "Update teacher", "parameters": [{"$ref": "#/parameters/id"}], "responses": {"200": {"description": "OK"}}},
            "delete": {"tags": ["Teachers"], "summary": "Deactivate teacher", "parameters": [{"$ref": "#/parameters/id"}], "responses": {"204": {"description": "Deactivated"}}}
        },
        "/teachers/{id}/levels": {
            "get": {"tags": ["Teachers"], "summary": "Levels the teacher may teach", "parameters": [{"$ref": "#/parameters/id"}], "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["Teachers"], "summary": "Qualify teacher for a level", "parameters": [{"$ref": "#/parameters/id"}], "responses": {"201": {"description": "Created"}, "409": {"description": "Already qualified"}}}
        },
        "/teachers/{id}/commitments": {
            "get": {
                "tags": ["Teachers"],
                "summary": "Everything the teacher is booked for on a date",
                "parameters": [{"$ref": "#/parameters/id"}, {"name": "date", "in": "query", "type": "string", "format": "date"}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/subjects": {
            "get": {"tags": ["Subjects"], "summary": "List subjects", "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["Subjects"], "summary": "Create subject", "responses": {"201": {"description": "Created"}}}
        },
        "/subjects/{id}/levels": {
            "get": {"tags": ["Subjects"], "summary": "List levels", "parameters": [{"$ref": "#/parameters/id"}], "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["Subjects"], "summary": "Add level", "parameters": [{"$ref": "#/parameters/id"}], "responses": {"201": {"description": "Created"}}}
        },
        "/classes": {
            "get": {"tags": ["Classes"], "summary": "List classes", "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["Classes"], "summary": "Create class", "responses": {"201": {"description": "Created"}}}
        },
        "/schedules": {
            "get": {"tags": ["Schedules"], "summary": "List class schedules", "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["Schedules"], "summary": "Create schedule", "responses": {"201": {"description": "Created"}, "409": {"description": "Teacher double booked"}}}
        },
        "/schedule/shifts": {
            "get": {"tags": ["Roster"], "summary": "List shifts", "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["Roster"], "summary": "Create shift", "responses": {"201": {"description": "Created"}}}
        },
        "/schedule/work-shifts": {
            "get": {"tags": ["Roster"], "summary": "List work shifts", "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["Roster"], "summary": "Roster a teacher on a shift", "responses": {"201": {"description": "Created"}, "409": {"description": "Already rostered"}}}
        },
        "/schedule/work-shifts/bulk": {
            "post": {"tags": ["Roster"], "summary": "Roster many teachers on many dates and shifts", "responses": {"201": {"description": "Created with duplicates reported"}}}
        },
        "/schedule/work-shifts/availability": {
            "get": {
                "tags": ["Roster"],
                "summary": "Teachers available for a window",
                "parameters": [
                    {"name": "date", "in": "query", "type": "string", "format": "date", "required": true},
                    {"name": "startTime", "in": "query", "type": "string", "required": true},
                    {"name": "endTime", "in": "query", "type": "string", "required": true},
                    {"name": "subjectLevelId", "in": "query", "type": "string"}
                ],
                "responses": {"200": {"description": "OK; meta.cache_hit reports a cached answer"}}
            }
        },
        "/schedule/free-schedules": {
            "get": {"tags": ["Roster"], "summary": "List weekly free slots", "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["Roster"], "summary": "Declare a weekly free slot", "responses": {"201": {"description": "Created"}, "409": {"description": "Overlaps an existing slot"}}}
        },
        "/{kind}": {
            "get": {
                "tags": ["Make-up classes"],
                "summary": "List sessions of a kind",
                "parameters": [
                    {"$ref": "#/parameters/kind"},
                    {"name": "status", "in": "query", "type": "string", "enum": ["pending", "assigned", "completed", "cancelled"]},
                    {"name": "teacherId", "in": "query", "type": "string"},
                    {"name": "dateFrom", "in": "query", "type": "string", "format": "date"},
                    {"name": "dateTo", "in": "query", "type": "string", "format": "date"},
                    {"$ref": "#/parameters/page"},
                    {"$ref": "#/parameters/limit"}
                ],
                "responses": {"200": {"description": "OK"}}
            },
            "post": {"tags": ["Make-up classes"], "summary": "Create session", "parameters": [{"$ref": "#/parameters/kind"}], "responses": {"201": {"description": "Created"}}}
        },
        "/{kind}/auto-assign": {
            "post": {"tags": ["Make-up classes"], "summary": "Auto-assign pending sessions", "parameters": [{"$ref": "#/parameters/kind"}], "responses": {"200": {"description": "Per-session outcomes"}}}
        },
        "/{kind}/export": {
            "get": {
                "tags": ["Make-up classes"],
                "summary": "Export as CSV or PDF",
                "produces": ["text/csv", "application/pdf"],
                "parameters": [{"$ref": "#/parameters/kind"}, {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}],
                "responses": {"200": {"description": "File"}}
            }
        },
        "/{kind}/{id}/assign": {
            "post": {"tags": ["Make-up classes"], "summary": "Assign a teacher manually", "parameters": [{"$ref": "#/parameters/kind"}, {"$ref": "#/parameters/id"}], "responses": {"200": {"description": "OK"}, "409": {"description": "Teacher not eligible"}}}
        },
        "/{kind}/{id}/reallocate": {
            "post": {"tags": ["Make-up classes"], "summary": "Move to another teacher", "parameters": [{"$ref": "#/parameters/kind"}, {"$ref": "#/parameters/id"}], "responses": {"200": {"description": "OK"}, "409": {"description": "NO_CANDIDATE"}}}
        },
        "/{kind}/{id}/candidates": {
            "get": {"tags": ["Make-up classes"], "summary": "Ranked teachers with exclusion reasons", "parameters": [{"$ref": "#/parameters/kind"}, {"$ref": "#/parameters/id"}], "responses": {"200": {"description": "OK"}}}
        },
        "/notifications": {
            "get": {"tags": ["Notifications"], "summary": "List notifications", "parameters": [{"name": "unread", "in": "query", "type": "boolean"}], "responses": {"200": {"description": "OK; meta.unread carries the unread count"}}}
        },
        "/notifications/ws": {
            "get": {"tags": ["Notifications"], "summary": "Live notification socket", "parameters": [{"name": "token", "in": "query", "type": "string"}], "responses": {"101": {"description": "Switching protocols"}}}
        },
        "/google-sheets/sync": {
            "post": {"tags": ["Google Sheets"], "summary": "Import the spreadsheet inbox now", "responses": {"200": {"description": "Run summary"}, "409": {"description": "Run in progress"}, "412": {"description": "Sync not configured"}}}
        },
        "/google-sheets/status": {
            "get": {"tags": ["Google Sheets"], "summary": "Sync status and last run", "responses": {"200": {"description": "OK"}}}
        }
    },
    "parameters": {
        "id": {"name": "id", "in": "path", "required": true, "type": "string"},
        "kind": {"name": "kind", "in": "path", "required": true, "type": "string", "enum": ["offset-classes", "supplementary-classes", "test-classes"]},
        "page": {"name": "page", "in": "query", "type": "integer"},
        "limit": {"name": "limit", "in": "query", "type": "integer"}
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
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "limit": {"type": "integer"},
                "total": {"type": "integer"},
                "totalPages": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "data": {"type": "object"},
                "error": {"type": "string"},
                "code": {"type": "string"},
                "message": {"type": "string"},
                "pagination": {"$ref": "#/definitions/Pagination"},
                "meta": {"type": "object"}
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
