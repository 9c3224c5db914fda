package cacheable

import (
	"reflect"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Identifier gives an instance a stable identity, typically its primary key.
// An empty CacheID falls back to the Object identity when one is embedded.
type Identifier interface {
	CacheID() string
}

// Modified exposes a last-modified time. When non-zero it is folded into
// instance keys, so saving the instance orphans its earlier results.
type Modified interface {
	LastModified() time.Time
}

var (
	processToken = uuid.NewString()

	objectMu  sync.Mutex
	objectSeq uint64
)

// Object is an embeddable identity for types without a natural id. The
// identity is assigned on first use and is unique within the process; the
// process token keeps it from matching an identity minted by another
// process. A copy of the struct gets its own identity on first use at its
// new address. Embed it in types used through pointers.
type Object struct {
	id   uint64
	self *Object
}

// ObjectID returns the instance identity, assigning one if needed.
func (o *Object) ObjectID() string {
	objectMu.Lock()
	if o.self != o {
		objectSeq++
		o.id = objectSeq
		o.self = o
	}
	id := o.id
	objectMu.Unlock()
	return processToken + "." + strconv.FormatUint(id, 10)
}

type objectIdentity interface {
	ObjectID() string
}

// Type names a type-scope target. Calls against a Type never carry an
// instance identity, so the same operation name can be cached at both scopes.
type Type struct {
	name string
}

// TypeOf returns the Type of T. Pointer types resolve to their element type,
// so TypeOf[*Widget]() == TypeOf[Widget]().
func TypeOf[T any]() Type {
	return Type{name: typeName(reflect.TypeFor[T]())}
}

// NamedType returns a Type with an explicit name. Useful when the type is
// renamed or moved but existing keys should stay valid.
func NamedType(name string) Type { return Type{name: name} }

func (t Type) Name() string   { return t.name }
func (t Type) String() string { return t.name }
func (t Type) IsZero() bool   { return t.name == "" }

// Ref stands in for an instance when only its type and identity are known,
// e.g. to expire an entry without loading the object.
type Ref struct {
	Type     Type
	ID       string
	Modified time.Time
}

func typeName(rt reflect.Type) string {
	if rt == nil {
		return "nil"
	}
	for rt.Kind() == reflect.Pointer {
		rt = rt.Elem()
	}
	if rt.Name() == "" || rt.PkgPath() == "" {
		return rt.String()
	}
	return rt.PkgPath() + "." + rt.Name()
}

func typeNameOf(v any) string {
	if t, ok := v.(Type); ok {
		return t.name
	}
	return typeName(reflect.TypeOf(v))
}

// identity resolves the identity component of an instance signature.
func identity(target any) (string, bool) {
	if isNil(target) {
		return "", false
	}
	if idf, ok := target.(Identifier); ok {
		if id := idf.CacheID(); id != "" {
			return id, true
		}
	}
	if o, ok := target.(objectIdentity); ok {
		return o.ObjectID(), true
	}
	return "", false
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}
