package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "SMA Academic Core API",
        "description": "Class group allocation and class session generation",
        "version": "0.2.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "ClassGroups", "description": "Capacity-aware class group allocation"},
        {"name": "ClassSessions", "description": "Dated session generation and retention"},
        {"name": "System", "description": "Probes and metrics"}
    ],
    "paths": {
        "/class-groups/resolve": {
            "post": {
                "tags": ["ClassGroups"],
                "summary": "Get or create a class group with free capacity",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ResolveClassGroupRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/class-groups/allocate": {
            "post": {
                "tags": ["ClassGroups"],
                "summary": "Resolve a class group and assign the student in one transaction",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AllocateStudentRequest"}}
                ],
                "responses": {
                    "200": {"description": "Assigned to an existing group", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "201": {"description": "Assigned to a new group", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "202": {"description": "Assignment store unavailable", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/class-groups/{id}/students/{studentId}": {
            "put": {
                "tags": ["ClassGroups"],
                "summary": "Assign a student to a class group",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "studentId", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AssignStudentRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "202": {"description": "Assignment store unavailable", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/class-sessions/generate": {
            "post": {
                "tags": ["ClassSessions"],
                "summary": "Generate dated class sessions from weekly schedules",
                "parameters": [
                    {"name": "payload", "in": "body", "required": false, "schema": {"$ref": "#/definitions/GenerateSessionsRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "No schedules", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/class-sessions/purge": {
            "post": {
                "tags": ["ClassSessions"],
                "summary": "Delete old class sessions without attendance",
                "parameters": [
                    {"name": "payload", "in": "body", "required": false, "schema": {"$ref": "#/definitions/PurgeSessionsRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "ResolveClassGroupRequest": {
            "type": "object",
            "required": ["majorId", "academicYear"],
            "properties": {
                "majorId": {"type": "string"},
                "academicYear": {"type": "string"},
                "semester": {"type": "integer"},
                "shift": {"type": "string"},
                "defaultCapacity": {"type": "integer"}
            }
        },
        "AllocateStudentRequest": {
            "type": "object",
            "required": ["studentId", "majorId", "academicYear"],
            "properties": {
                "studentId": {"type": "string"},
                "majorId": {"type": "string"},
                "academicYear": {"type": "string"},
                "semester": {"type": "integer"},
                "shift": {"type": "string"},
                "defaultCapacity": {"type": "integer"}
            }
        },
        "AssignStudentRequest": {
            "type": "object",
            "required": ["academicYear"],
            "properties": {
                "academicYear": {"type": "string"},
                "semester": {"type": "integer"}
            }
        },
        "GenerateSessionsRequest": {
            "type": "object",
            "properties": {
                "startDate": {"type": "string", "format": "date"},
                "endDate": {"type": "string", "format": "date"},
                "courseIds": {"type": "array", "items": {"type": "string"}},
                "overwrite": {"type": "boolean"}
            }
        },
        "PurgeSessionsRequest": {
            "type": "object",
            "properties": {
                "keepYears": {"type": "integer"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "meta": {"type": "object"},
                "requestId": {"type": "string"}
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
