package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "SMA Timetable API",
        "description": "Timetable generation, versioning and distribution for schools",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Timetables", "description": "Version lifecycle, manual edits and generation"},
        {"name": "Slots", "description": "Weekly slot grid management"},
        {"name": "Requirements", "description": "Per-term subject requirements"},
        {"name": "Availability", "description": "Teacher availability declarations"},
        {"name": "Reports", "description": "Clash, diff, free-slot and utilization reports"},
        {"name": "Personal", "description": "Personalized published timetables"},
        {"name": "System", "description": "Health and observability"}
    ],
    "paths": {
        "/timetables/versions": {
            "post": {
                "tags": ["Timetables"],
                "summary": "Create a draft timetable version",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateVersionRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetables/versions/{id}": {
            "get": {
                "tags": ["Timetables"],
                "summary": "Get a version with its lessons",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/terms/{termId}/versions": {
            "get": {
                "tags": ["Timetables"],
                "summary": "List versions of a term",
                "parameters": [
                    {"name": "termId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetables/versions/{id}/clone": {
            "post": {
                "tags": ["Timetables"],
                "summary": "Clone a version into a new draft",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CloneVersionRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetables/versions/{id}/publish": {
            "post": {
                "tags": ["Timetables"],
                "summary": "Publish a draft version, archiving the published sibling",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Version is not a draft"}
                }
            }
        },
        "/timetables/versions/{id}/archive": {
            "post": {
                "tags": ["Timetables"],
                "summary": "Archive a version",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetables/versions/{id}/generate": {
            "post": {
                "tags": ["Timetables"],
                "summary": "Run the solver over a draft version",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/GenerateTimetableResponse"}},
                    "412": {"description": "Term has no requirements or no slots"}
                }
            }
        },
        "/timetables/versions/{id}/lessons": {
            "post": {
                "tags": ["Timetables"],
                "summary": "Add a lesson to a draft version",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AddLessonRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Teacher, class or venue already booked in the slot"}
                }
            }
        },
        "/timetables/versions/{id}/lessons/{lessonId}": {
            "delete": {
                "tags": ["Timetables"],
                "summary": "Remove a lesson from a draft version",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "lessonId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/timetables/versions/{id}/export.csv": {
            "get": {
                "tags": ["Timetables"],
                "summary": "Download a version as CSV",
                "produces": ["text/csv"],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "CSV file"}
                }
            }
        },
        "/timetables/versions/{id}/export.pdf": {
            "get": {
                "tags": ["Timetables"],
                "summary": "Download a version as PDF",
                "produces": ["application/pdf"],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "PDF file"}
                }
            }
        },
        "/slots": {
            "post": {
                "tags": ["Slots"],
                "summary": "Create a timetable slot",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateSlotRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Window overlaps an existing slot"}
                }
            }
        },
        "/slots/{id}": {
            "delete": {
                "tags": ["Slots"],
                "summary": "Delete an unused slot",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "409": {"description": "Slot is referenced by lessons"}
                }
            }
        },
        "/schools/{schoolId}/slots": {
            "get": {
                "tags": ["Slots"],
                "summary": "List slots of a school ordered by day and start time",
                "parameters": [
                    {"name": "schoolId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/requirements": {
            "post": {
                "tags": ["Requirements"],
                "summary": "Create a subject requirement for a term",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateRequirementRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/requirements/{id}": {
            "delete": {
                "tags": ["Requirements"],
                "summary": "Delete a requirement",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/terms/{termId}/requirements": {
            "get": {
                "tags": ["Requirements"],
                "summary": "List requirements of a term",
                "parameters": [
                    {"name": "termId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/availability": {
            "put": {
                "tags": ["Availability"],
                "summary": "Replace a teacher's availability for a term",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ResetAvailabilityRequest"}}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/teachers/{teacherId}/terms/{termId}/availability": {
            "get": {
                "tags": ["Availability"],
                "summary": "List a teacher's availability in a term",
                "parameters": [
                    {"name": "teacherId", "in": "path", "required": true, "type": "string"},
                    {"name": "termId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/terms/{termId}/reports/clashes": {
            "get": {
                "tags": ["Reports"],
                "summary": "List clashes across published versions of a term",
                "parameters": [
                    {"name": "termId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/reports/compare": {
            "get": {
                "tags": ["Reports"],
                "summary": "Diff the lessons of two versions",
                "parameters": [
                    {"name": "base", "in": "query", "required": true, "type": "string"},
                    {"name": "target", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/terms/{termId}/reports/free-slots": {
            "get": {
                "tags": ["Reports"],
                "summary": "List slots free for the given teacher, class or venue",
                "parameters": [
                    {"name": "termId", "in": "path", "required": true, "type": "string"},
                    {"name": "teacherId", "in": "query", "type": "string"},
                    {"name": "classId", "in": "query", "type": "string"},
                    {"name": "venueId", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/terms/{termId}/reports/venue-utilization": {
            "get": {
                "tags": ["Reports"],
                "summary": "Report booked-slot percentage per venue",
                "parameters": [
                    {"name": "termId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/terms/{termId}/reports/teacher-workload": {
            "get": {
                "tags": ["Reports"],
                "summary": "Report lesson counts per teacher",
                "parameters": [
                    {"name": "termId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/me/timetable": {
            "get": {
                "tags": ["Personal"],
                "summary": "Get the personalized timetable for the authenticated user",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "termId", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/PersonalTimetableResponse"}}
                }
            }
        },
        "/admin/metrics": {
            "get": {
                "tags": ["System"],
                "summary": "Aggregated runtime metrics",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "CreateVersionRequest": {
            "type": "object",
            "properties": {
                "termId": {"type": "string"},
                "name": {"type": "string"},
                "type": {"type": "string", "enum": ["LESSON", "EXAM", "OTHER"]}
            },
            "required": ["termId", "name", "type"]
        },
        "CloneVersionRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string"}
            },
            "required": ["name"]
        },
        "AddLessonRequest": {
            "type": "object",
            "properties": {
                "slotId": {"type": "string"},
                "classId": {"type": "string"},
                "subjectId": {"type": "string"},
                "teacherId": {"type": "string"},
                "venueId": {"type": "string"}
            },
            "required": ["slotId", "classId", "subjectId", "teacherId"]
        },
        "GenerateTimetableResponse": {
            "type": "object",
            "properties": {
                "versionId": {"type": "string"},
                "placedCount": {"type": "integer"},
                "totalCount": {"type": "integer"},
                "score": {"type": "integer"},
                "conflicts": {"type": "array", "items": {"type": "string"}},
                "generatedAt": {"type": "string"}
            }
        },
        "CreateSlotRequest": {
            "type": "object",
            "properties": {
                "schoolId": {"type": "string"},
                "dayOfWeek": {"type": "integer"},
                "startTime": {"type": "string"},
                "endTime": {"type": "string"}
            },
            "required": ["schoolId", "dayOfWeek", "startTime", "endTime"]
        },
        "CreateRequirementRequest": {
            "type": "object",
            "properties": {
                "termId": {"type": "string"},
                "classId": {"type": "string"},
                "subjectId": {"type": "string"},
                "lessonsPerWeek": {"type": "integer"},
                "requiredVenueType": {"type": "string"},
                "isDoublePeriod": {"type": "boolean"}
            },
            "required": ["termId", "classId", "subjectId", "lessonsPerWeek"]
        },
        "ResetAvailabilityRequest": {
            "type": "object",
            "properties": {
                "teacherId": {"type": "string"},
                "termId": {"type": "string"},
                "entries": {
                    "type": "array",
                    "items": {"$ref": "#/definitions/AvailabilityEntry"}
                }
            },
            "required": ["teacherId", "termId"]
        },
        "AvailabilityEntry": {
            "type": "object",
            "properties": {
                "slotId": {"type": "string"},
                "status": {"type": "string", "enum": ["AVAILABLE", "PREFERRED", "UNAVAILABLE"]}
            },
            "required": ["slotId", "status"]
        },
        "PersonalTimetableResponse": {
            "type": "object",
            "properties": {
                "userId": {"type": "string"},
                "termId": {"type": "string"},
                "teacher_schedule": {"type": "array", "items": {"$ref": "#/definitions/LessonView"}},
                "student_schedule": {"type": "array", "items": {"$ref": "#/definitions/LessonView"}},
                "children_schedules": {"type": "array", "items": {"$ref": "#/definitions/ChildSchedule"}},
                "hasTeacherRole": {"type": "boolean"},
                "hasStudentRole": {"type": "boolean"},
                "hasParentRole": {"type": "boolean"}
            }
        },
        "ChildSchedule": {
            "type": "object",
            "properties": {
                "studentId": {"type": "string"},
                "studentName": {"type": "string"},
                "lessons": {"type": "array", "items": {"$ref": "#/definitions/LessonView"}}
            }
        },
        "LessonView": {
            "type": "object",
            "properties": {
                "lessonId": {"type": "string"},
                "dayOfWeek": {"type": "integer"},
                "startTime": {"type": "string"},
                "endTime": {"type": "string"},
                "subjectName": {"type": "string"},
                "className": {"type": "string"},
                "teacherName": {"type": "string"},
                "venueName": {"type": "string"}
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
                "pagination": {"type": "object"},
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
