// Package codec encodes content operations into commit messages and decodes
// them back.
//
// Grammar version 1:
//
//	message  = subject [ LF LF trailers ]
//	subject  = method SP object-type [ SP object-id ]
//	trailers = *( "Content-Protocol: " version LF )
//
// A message without a Content-Protocol trailer is read as version 1.
package codec

import (
	"fmt"
	"strconv"
	"strings"
)

// GrammarVersion is the only protocol version Decode accepts.
const GrammarVersion = 1

// ProtocolTrailer is the trailer key carrying the grammar version.
const ProtocolTrailer = "Content-Protocol"

const maxObjectIDLength = 128

// Method is the verb of a recorded operation.
type Method string

const (
	MethodCreate      Method = "create"
	MethodUpdate      Method = "update"
	MethodDelete      Method = "delete"
	MethodSynchronize Method = "synchronize"
	MethodClone       Method = "clone"
	MethodRelease     Method = "release"
)

// Methods lists every recognized method in declaration order.
func Methods() []Method {
	return []Method{
		MethodCreate,
		MethodUpdate,
		MethodDelete,
		MethodSynchronize,
		MethodClone,
		MethodRelease,
	}
}

// Valid reports whether m is a recognized method.
func (m Method) Valid() bool {
	for _, known := range Methods() {
		if m == known {
			return true
		}
	}
	return false
}

// ObjectType is the capitalized name of the content object an operation
// touched.
type ObjectType string

const (
	ObjectProject    ObjectType = "Project"
	ObjectCollection ObjectType = "Collection"
	ObjectEntry      ObjectType = "Entry"
	ObjectAsset      ObjectType = "Asset"
)

// ObjectTypes lists every recognized object type in declaration order.
func ObjectTypes() []ObjectType {
	return []ObjectType{ObjectProject, ObjectCollection, ObjectEntry, ObjectAsset}
}

// Valid reports whether t is a recognized object type.
func (t ObjectType) Valid() bool {
	for _, known := range ObjectTypes() {
		if t == known {
			return true
		}
	}
	return false
}

// ParseObjectType matches s against the object types, ignoring case.
func ParseObjectType(s string) (ObjectType, bool) {
	for _, known := range ObjectTypes() {
		if strings.EqualFold(s, string(known)) {
			return known, true
		}
	}
	return "", false
}

// Operation is one structured mutation recorded by a commit.
type Operation struct {
	Method     Method     `json:"method"`
	ObjectType ObjectType `json:"objectType"`
	ObjectID   string     `json:"objectId,omitempty"`
}

// String returns the subject line Encode would produce.
func (o Operation) String() string {
	if o.ObjectID == "" {
		return string(o.Method) + " " + string(o.ObjectType)
	}
	return string(o.Method) + " " + string(o.ObjectType) + " " + o.ObjectID
}

// ParseError reports a commit message that does not follow the grammar.
// History readers treat it as an unstructured commit.
type ParseError struct {
	Message string
	Reason  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("unstructured commit message %q: %s", firstLine(e.Message), e.Reason)
}

// Encode renders op as a version 1 commit message.
func Encode(op Operation) (string, error) {
	if !op.Method.Valid() {
		return "", fmt.Errorf("encode: unknown method %q", op.Method)
	}
	if !op.ObjectType.Valid() {
		return "", fmt.Errorf("encode: unknown object type %q", op.ObjectType)
	}
	if op.ObjectID != "" && !validObjectID(op.ObjectID) {
		return "", fmt.Errorf("encode: invalid object id %q", op.ObjectID)
	}

	var b strings.Builder
	b.WriteString(op.String())
	b.WriteString("\n\n")
	b.WriteString(ProtocolTrailer)
	b.WriteString(": ")
	b.WriteString(strconv.Itoa(GrammarVersion))
	b.WriteString("\n")
	return b.String(), nil
}

// MustEncode is Encode for operations known to be valid. It panics otherwise.
func MustEncode(op Operation) string {
	msg, err := Encode(op)
	if err != nil {
		panic(err)
	}
	return msg
}

// Decode parses a commit message produced by Encode.
func Decode(message string) (Operation, error) {
	subject, body := splitMessage(message)

	if err := checkProtocol(message, body); err != nil {
		return Operation{}, err
	}

	fields := strings.Split(subject, " ")
	if len(fields) < 2 || len(fields) > 3 {
		return Operation{}, &ParseError{Message: message, Reason: "subject must be \"<method> <ObjectType> [<id>]\""}
	}

	op := Operation{
		Method:     Method(fields[0]),
		ObjectType: ObjectType(fields[1]),
	}
	if !op.Method.Valid() {
		return Operation{}, &ParseError{Message: message, Reason: fmt.Sprintf("unknown method %q", fields[0])}
	}
	if !op.ObjectType.Valid() {
		return Operation{}, &ParseError{Message: message, Reason: fmt.Sprintf("unknown object type %q", fields[1])}
	}
	if len(fields) == 3 {
		if !validObjectID(fields[2]) {
			return Operation{}, &ParseError{Message: message, Reason: fmt.Sprintf("invalid object id %q", fields[2])}
		}
		op.ObjectID = fields[2]
	}

	return op, nil
}

func checkProtocol(message, body string) error {
	for _, line := range strings.Split(body, "\n") {
		key, value, ok := strings.Cut(strings.TrimRight(line, "\r"), ":")
		if !ok || key != ProtocolTrailer {
			continue
		}
		version, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return &ParseError{Message: message, Reason: fmt.Sprintf("malformed %s trailer", ProtocolTrailer)}
		}
		if version != GrammarVersion {
			return &ParseError{Message: message, Reason: fmt.Sprintf("unsupported protocol version %d", version)}
		}
	}
	return nil
}

func splitMessage(message string) (subject, body string) {
	subject, body, _ = strings.Cut(message, "\n")
	return strings.TrimRight(subject, "\r "), body
}

func firstLine(message string) string {
	subject, _ := splitMessage(message)
	return subject
}

func validObjectID(id string) bool {
	if id == "" || len(id) > maxObjectIDLength {
		return false
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '.', r == '_', r == '-':
		default:
			return false
		}
	}
	return true
}
