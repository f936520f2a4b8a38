package satisfactory

import (
	"io"

	"github.com/pkg/errors"

	"github.com/backwardspy/satisfactory-sav-parser/memory"
	"github.com/backwardspy/satisfactory-sav-parser/ue"
)

const (
	OBJECT_TYPE_COMPONENT int32 = 0
	OBJECT_TYPE_ACTOR     int32 = 1

	OBJECT_TRAILER_SIZE = 16
)

type ObjectHeaderBase struct {
	TypePath     ue.String
	RootObject   ue.String
	InstanceName ue.String
}

func (b ObjectHeaderBase) Base() ObjectHeaderBase {
	return b
}

// ObjectHeader is either an ActorHeader or a ComponentHeader.
type ObjectHeader interface {
	Base() ObjectHeaderBase
	isObjectHeader()
}

type ActorHeader struct {
	ObjectHeaderBase
	NeedTransform    bool
	Transform        ue.FTransform
	WasPlacedInLevel bool
}

type ComponentHeader struct {
	ObjectHeaderBase
	ParentActorName ue.String
}

func (ActorHeader) isObjectHeader()     {}
func (ComponentHeader) isObjectHeader() {}

// Object is either an ActorObject or a ComponentObject. Which one is decided
// by the header at the same position, never by the object bytes.
type Object interface {
	isObject()
}

type ActorObject struct {
	Size       int32
	Parent     ue.ObjectReference
	Components []ue.ObjectReference
	Properties PropertyList
	Trailer    [OBJECT_TRAILER_SIZE]byte
}

type ComponentObject struct {
	Size       int32
	Properties PropertyList
	Trailer    [OBJECT_TRAILER_SIZE]byte
}

func (ActorObject) isObject()     {}
func (ComponentObject) isObject() {}

type Level struct {
	// nil for the persistent level
	Name          *ue.String
	Headers       []ObjectHeader
	Collectables  []ue.ObjectReference
	ObjectsSize   int64
	Objects       []Object
	Collectables2 []ue.ObjectReference
}

func (l Level) IsPersistent() bool {
	return l.Name == nil
}

func (l Level) String() string {
	if l.Name == nil {
		return "persistent level"
	}
	return "level " + l.Name.String()
}

type Body struct {
	Size             int64
	Sublevels        []Level
	Persistent       Level
	ObjectReferences []ue.ObjectReference
}

// Levels returns the sublevels followed by the persistent level.
func (b Body) Levels() []Level {
	levels := make([]Level, 0, len(b.Sublevels)+1)
	levels = append(levels, b.Sublevels...)
	return append(levels, b.Persistent)
}

func readObjectHeaderBase(r io.Reader) (ObjectHeaderBase, error) {
	var base ObjectHeaderBase
	var err error

	base.TypePath, err = ue.ReadString(r)
	if err != nil {
		return base, err
	}
	base.RootObject, err = ue.ReadString(r)
	if err != nil {
		return base, err
	}
	base.InstanceName, err = ue.ReadString(r)
	if err != nil {
		return base, err
	}

	return base, nil
}

func readActorHeader(r io.Reader) (ActorHeader, error) {
	base, err := readObjectHeaderBase(r)
	if err != nil {
		return ActorHeader{}, err
	}

	needTransform, err := memory.ReadBool(r)
	if err != nil {
		return ActorHeader{}, err
	}

	transform, err := ue.ReadFTransform(r)
	if err != nil {
		return ActorHeader{}, err
	}

	wasPlacedInLevel, err := memory.ReadBool(r)
	if err != nil {
		return ActorHeader{}, err
	}

	return ActorHeader{
		ObjectHeaderBase: base,
		NeedTransform:    needTransform,
		Transform:        transform,
		WasPlacedInLevel: wasPlacedInLevel,
	}, nil
}

func readComponentHeader(r io.Reader) (ComponentHeader, error) {
	base, err := readObjectHeaderBase(r)
	if err != nil {
		return ComponentHeader{}, err
	}

	parentActorName, err := ue.ReadString(r)
	if err != nil {
		return ComponentHeader{}, err
	}

	return ComponentHeader{
		ObjectHeaderBase: base,
		ParentActorName:  parentActorName,
	}, nil
}

func readObjectHeader(r io.Reader) (ObjectHeader, error) {
	objectType, err := memory.ReadInt[int32](r)
	if err != nil {
		return nil, err
	}

	switch objectType {
	case OBJECT_TYPE_ACTOR:
		header, err := readActorHeader(r)
		if err != nil {
			return nil, errors.Wrap(err, "failed to read actor header")
		}
		return header, nil
	case OBJECT_TYPE_COMPONENT:
		header, err := readComponentHeader(r)
		if err != nil {
			return nil, errors.Wrap(err, "failed to read component header")
		}
		return header, nil
	default:
		return nil, memory.Errorf(r, memory.ErrUnknownTag, "object header type %d", objectType)
	}
}

func readTrailer(r io.Reader) ([OBJECT_TRAILER_SIZE]byte, error) {
	var trailer [OBJECT_TRAILER_SIZE]byte
	err := memory.ReadFixed(r, &trailer)
	return trailer, err
}

func readActorObject(r io.ReadSeeker, state *decodeState) (ActorObject, error) {
	size, err := memory.ReadInt[int32](r)
	if err != nil {
		return ActorObject{}, err
	}
	start, err := position(r)
	if err != nil {
		return ActorObject{}, err
	}

	parent, err := ue.ReadObjectReference(r)
	if err != nil {
		return ActorObject{}, errors.Wrap(err, "failed to read parent reference")
	}

	components, err := ue.ReadArray[ue.ObjectReference, int32](r, ue.ReadObjectReference)
	if err != nil {
		return ActorObject{}, errors.Wrap(err, "failed to read components")
	}

	properties, err := readProperties(r, state)
	if err != nil {
		return ActorObject{}, err
	}

	trailer, err := readTrailer(r)
	if err != nil {
		return ActorObject{}, err
	}

	err = state.checkSize(r, start, int64(size), "actor object")
	if err != nil {
		return ActorObject{}, err
	}

	return ActorObject{
		Size:       size,
		Parent:     parent,
		Components: components,
		Properties: properties,
		Trailer:    trailer,
	}, nil
}

func readComponentObject(r io.ReadSeeker, state *decodeState) (ComponentObject, error) {
	size, err := memory.ReadInt[int32](r)
	if err != nil {
		return ComponentObject{}, err
	}
	start, err := position(r)
	if err != nil {
		return ComponentObject{}, err
	}

	properties, err := readProperties(r, state)
	if err != nil {
		return ComponentObject{}, err
	}

	trailer, err := readTrailer(r)
	if err != nil {
		return ComponentObject{}, err
	}

	err = state.checkSize(r, start, int64(size), "component object")
	if err != nil {
		return ComponentObject{}, err
	}

	return ComponentObject{
		Size:       size,
		Properties: properties,
		Trailer:    trailer,
	}, nil
}

// readObjects is the second pass over a level: one object per header, shaped
// by that header.
func readObjects(r io.ReadSeeker, state *decodeState, headers []ObjectHeader) ([]Object, error) {
	objects := make([]Object, 0, len(headers))

	for i, header := range headers {
		var object Object
		var err error

		switch header.(type) {
		case ActorHeader:
			object, err = readActorObject(r, state)
		case ComponentHeader:
			object, err = readComponentObject(r, state)
		default:
			err = memory.Errorf(r, memory.ErrUnknownTag, "object header %T", header)
		}
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read object %d (%s)", i, header.Base().InstanceName)
		}

		objects = append(objects, object)
	}

	return objects, nil
}

func readLevel(r io.ReadSeeker, state *decodeState, named bool) (Level, error) {
	level := Level{}

	if named {
		name, err := ue.ReadString(r)
		if err != nil {
			return level, errors.Wrap(err, "failed to read level name")
		}
		level.Name = &name
	}

	var err error
	level.Headers, err = ue.ReadArray[ObjectHeader, int32](r, readObjectHeader)
	if err != nil {
		return level, errors.Wrapf(err, "failed to read object headers of %s", level)
	}

	level.Collectables, err = ue.ReadArray[ue.ObjectReference, int32](r, ue.ReadObjectReference)
	if err != nil {
		return level, errors.Wrapf(err, "failed to read collectables of %s", level)
	}

	level.ObjectsSize, err = memory.ReadInt[int64](r)
	if err != nil {
		return level, errors.Wrapf(err, "failed to read objects size of %s", level)
	}
	objectsStart, err := position(r)
	if err != nil {
		return level, err
	}

	objectCount, err := memory.ReadInt[int32](r)
	if err != nil {
		return level, errors.Wrapf(err, "failed to read object count of %s", level)
	}
	if int(objectCount) != len(level.Headers) {
		return level, memory.Errorf(r, memory.ErrLengthMismatch,
			"%s has %d object headers but %d objects", level, len(level.Headers), objectCount)
	}

	level.Objects, err = readObjects(r, state, level.Headers)
	if err != nil {
		return level, errors.Wrapf(err, "failed to read objects of %s", level)
	}

	err = state.checkSize(r, objectsStart, level.ObjectsSize, "objects of "+level.String())
	if err != nil {
		return level, err
	}

	level.Collectables2, err = ue.ReadArray[ue.ObjectReference, int32](r, ue.ReadObjectReference)
	if err != nil {
		return level, errors.Wrapf(err, "failed to read second collectables of %s", level)
	}

	return level, nil
}

// ReadBody decodes the decompressed save body.
func ReadBody(r io.ReadSeeker, opts ...Option) (Body, error) {
	state := newDecodeState(opts...)
	body := Body{}

	var err error
	body.Size, err = memory.ReadInt[int64](r)
	if err != nil {
		return body, errors.Wrap(err, "failed to read body size")
	}
	start, err := position(r)
	if err != nil {
		return body, err
	}

	body.Sublevels, err = ue.ReadArray[Level, int32](r, func(io.Reader) (Level, error) {
		return readLevel(r, state, true)
	})
	if err != nil {
		return body, errors.Wrap(err, "failed to read sublevels")
	}

	body.Persistent, err = readLevel(r, state, false)
	if err != nil {
		return body, err
	}

	body.ObjectReferences, err = ue.ReadArray[ue.ObjectReference, int32](r, ue.ReadObjectReference)
	if err != nil {
		return body, errors.Wrap(err, "failed to read object references")
	}

	err = state.checkSize(r, start, body.Size, "body")
	if err != nil {
		return body, err
	}

	return body, nil
}
