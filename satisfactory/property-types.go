package satisfactory

import (
	"io"

	"github.com/pkg/errors"

	"github.com/backwardspy/satisfactory-sav-parser/memory"
	"github.com/backwardspy/satisfactory-sav-parser/ue"
)

type Property struct {
	Name  ue.String
	Type  ue.String
	Size  int32
	Index int32
	Value PropertyValue
}

// PropertyList is a decoded property list without its None terminator.
type PropertyList []Property

// Get returns the first property with the given name.
func (l PropertyList) Get(name string) (Property, bool) {
	for _, property := range l {
		if property.Name.Equal(name) {
			return property, true
		}
	}
	return Property{}, false
}

// PropertyValue is one of the *Property value types below.
type PropertyValue interface {
	isPropertyValue()
}

type (
	BoolProperty   bool
	IntProperty    int32
	Int8Property   int8
	Int64Property  int64
	UInt32Property uint32
	UInt64Property uint64
	FloatProperty  float32
	DoubleProperty float64

	StrProperty       ue.String
	NameProperty      ue.String
	ObjectProperty    ue.ObjectReference
	InterfaceProperty ue.ObjectReference
)

type SoftObjectProperty struct {
	Reference ue.ObjectReference
	SubPath   int32
}

// ByteProperty holds a raw byte when EnumName is None (and for container
// elements), otherwise the enum value name.
type ByteProperty struct {
	EnumName  ue.String
	Byte      int8
	EnumValue ue.String
}

type EnumProperty struct {
	EnumType  ue.String
	EnumValue ue.String
}

type ArrayStructHeader struct {
	Name       ue.String
	Type       ue.String
	Size       int32
	Index      int32
	StructType ue.String
	GUID       ue.FGuid
	Flag       uint8
}

type ArrayProperty struct {
	ElementType ue.String
	// set only for arrays of StructProperty
	StructHeader *ArrayStructHeader
	Items        []PropertyValue
}

type SetProperty struct {
	ElementType ue.String
	Mode        int32
	Items       []PropertyValue
}

type MapProperty struct {
	KeyType   ue.String
	ValueType ue.String
	Mode      int32
	Values    ue.Map[PropertyValue, PropertyValue]
}

type StructProperty struct {
	StructType ue.String
	GUID       ue.FGuid
	Flag       uint8
	Value      StructData
}

const (
	TEXT_HISTORY_NONE int8 = -1
	TEXT_HISTORY_BASE int8 = 0
)

type TextHistory interface {
	isTextHistory()
}

type TextHistoryNone struct {
	HasCultureInvariantString bool
	CultureInvariantString    ue.String
}

type TextHistoryBase struct {
	Namespace    ue.String
	Key          ue.String
	SourceString ue.String
}

type TextProperty struct {
	Flags       uint32
	HistoryType int8
	History     TextHistory
}

func (BoolProperty) isPropertyValue()       {}
func (IntProperty) isPropertyValue()        {}
func (Int8Property) isPropertyValue()       {}
func (Int64Property) isPropertyValue()      {}
func (UInt32Property) isPropertyValue()     {}
func (UInt64Property) isPropertyValue()     {}
func (FloatProperty) isPropertyValue()      {}
func (DoubleProperty) isPropertyValue()     {}
func (StrProperty) isPropertyValue()        {}
func (NameProperty) isPropertyValue()       {}
func (ObjectProperty) isPropertyValue()     {}
func (InterfaceProperty) isPropertyValue()  {}
func (SoftObjectProperty) isPropertyValue() {}
func (ByteProperty) isPropertyValue()       {}
func (EnumProperty) isPropertyValue()       {}
func (ArrayProperty) isPropertyValue()      {}
func (SetProperty) isPropertyValue()        {}
func (MapProperty) isPropertyValue()        {}
func (StructProperty) isPropertyValue()     {}
func (TextProperty) isPropertyValue()       {}

func (TextHistoryNone) isTextHistory() {}
func (TextHistoryBase) isTextHistory() {}

func (p StrProperty) String() string                { return ue.String(p).String() }
func (p StrProperty) MarshalText() ([]byte, error)  { return ue.String(p).MarshalText() }
func (p NameProperty) String() string               { return ue.String(p).String() }
func (p NameProperty) MarshalText() ([]byte, error) { return ue.String(p).MarshalText() }

// readTagEnd consumes the byte that closes a property tag. The declared
// property size counts from the byte after it.
func readTagEnd(r io.ReadSeeker, state *decodeState, tagged bool) error {
	if !tagged {
		return nil
	}
	_, err := memory.ReadInt[uint8](r)
	if err != nil {
		return err
	}
	return state.markValue(r)
}

func readNumProperty[T memory.Number](r io.ReadSeeker, state *decodeState, tagged bool) (T, error) {
	err := readTagEnd(r, state, tagged)
	if err != nil {
		return 0, err
	}
	return memory.ReadInt[T](r)
}

func readBoolProperty(r io.ReadSeeker, state *decodeState, tagged bool) (BoolProperty, error) {
	value, err := memory.ReadInt[uint8](r)
	if err != nil {
		return false, err
	}
	err = readTagEnd(r, state, tagged)
	if err != nil {
		return false, err
	}
	return BoolProperty(memory.Bool(int32(value))), nil
}

func readStrProperty(r io.ReadSeeker, state *decodeState, tagged bool) (ue.String, error) {
	err := readTagEnd(r, state, tagged)
	if err != nil {
		return ue.String{}, err
	}
	return ue.ReadString(r)
}

func readObjectProperty(r io.ReadSeeker, state *decodeState, tagged bool) (ue.ObjectReference, error) {
	err := readTagEnd(r, state, tagged)
	if err != nil {
		return ue.ObjectReference{}, err
	}
	return ue.ReadObjectReference(r)
}

func readSoftObjectProperty(r io.ReadSeeker, state *decodeState, tagged bool) (SoftObjectProperty, error) {
	reference, err := readObjectProperty(r, state, tagged)
	if err != nil {
		return SoftObjectProperty{}, err
	}
	subPath, err := memory.ReadInt[int32](r)
	if err != nil {
		return SoftObjectProperty{}, err
	}
	return SoftObjectProperty{Reference: reference, SubPath: subPath}, nil
}

func readByteProperty(r io.ReadSeeker, state *decodeState, tagged bool) (ByteProperty, error) {
	if !tagged {
		value, err := memory.ReadInt[int8](r)
		if err != nil {
			return ByteProperty{}, err
		}
		return ByteProperty{Byte: value}, nil
	}

	enumName, err := ue.ReadString(r)
	if err != nil {
		return ByteProperty{}, err
	}
	err = readTagEnd(r, state, tagged)
	if err != nil {
		return ByteProperty{}, err
	}

	if enumName.Equal("None") {
		value, err := memory.ReadInt[int8](r)
		if err != nil {
			return ByteProperty{}, err
		}
		return ByteProperty{EnumName: enumName, Byte: value}, nil
	}

	enumValue, err := ue.ReadString(r)
	if err != nil {
		return ByteProperty{}, err
	}
	return ByteProperty{EnumName: enumName, EnumValue: enumValue}, nil
}

func readEnumProperty(r io.ReadSeeker, state *decodeState, tagged bool) (EnumProperty, error) {
	var result EnumProperty
	var err error

	if tagged {
		result.EnumType, err = ue.ReadString(r)
		if err != nil {
			return EnumProperty{}, errors.Wrap(err, "readEnumProperty")
		}
		err = readTagEnd(r, state, tagged)
		if err != nil {
			return EnumProperty{}, errors.Wrap(err, "readEnumProperty")
		}
	}

	result.EnumValue, err = ue.ReadString(r)
	if err != nil {
		return EnumProperty{}, errors.Wrap(err, "readEnumProperty")
	}
	return result, nil
}

func readTextProperty(r io.ReadSeeker, state *decodeState, tagged bool) (TextProperty, error) {
	err := readTagEnd(r, state, tagged)
	if err != nil {
		return TextProperty{}, err
	}

	flags, err := memory.ReadInt[uint32](r)
	if err != nil {
		return TextProperty{}, err
	}

	historyType, err := memory.ReadInt[int8](r)
	if err != nil {
		return TextProperty{}, err
	}

	var history TextHistory
	switch historyType {
	case TEXT_HISTORY_NONE:
		hasString, err := memory.ReadBool(r)
		if err != nil {
			return TextProperty{}, err
		}
		none := TextHistoryNone{HasCultureInvariantString: hasString}
		if hasString {
			none.CultureInvariantString, err = ue.ReadString(r)
			if err != nil {
				return TextProperty{}, err
			}
		}
		history = none

	case TEXT_HISTORY_BASE:
		var base TextHistoryBase
		base.Namespace, err = ue.ReadString(r)
		if err != nil {
			return TextProperty{}, err
		}
		base.Key, err = ue.ReadString(r)
		if err != nil {
			return TextProperty{}, err
		}
		base.SourceString, err = ue.ReadString(r)
		if err != nil {
			return TextProperty{}, err
		}
		history = base

	default:
		return TextProperty{}, memory.Errorf(r, memory.ErrUnknownTag, "text history type %d", historyType)
	}

	return TextProperty{
		Flags:       flags,
		HistoryType: historyType,
		History:     history,
	}, nil
}

func readArrayStructHeader(r io.Reader) (ArrayStructHeader, error) {
	var header ArrayStructHeader
	var err error

	header.Name, err = ue.ReadString(r)
	if err != nil {
		return header, err
	}
	header.Type, err = ue.ReadString(r)
	if err != nil {
		return header, err
	}
	header.Size, err = memory.ReadInt[int32](r)
	if err != nil {
		return header, err
	}
	header.Index, err = memory.ReadInt[int32](r)
	if err != nil {
		return header, err
	}
	header.StructType, err = ue.ReadString(r)
	if err != nil {
		return header, err
	}
	header.GUID, err = ue.ReadGuid(r)
	if err != nil {
		return header, err
	}
	header.Flag, err = memory.ReadInt[uint8](r)
	if err != nil {
		return header, err
	}

	return header, nil
}

func readArrayProperty(r io.ReadSeeker, state *decodeState) (ArrayProperty, error) {
	elementType, err := ue.ReadString(r)
	if err != nil {
		return ArrayProperty{}, err
	}
	err = readTagEnd(r, state, true)
	if err != nil {
		return ArrayProperty{}, err
	}

	count, err := ue.ReadCount[int32](r)
	if err != nil {
		return ArrayProperty{}, err
	}

	result := ArrayProperty{ElementType: elementType}

	if elementType.Equal("StructProperty") {
		header, err := readArrayStructHeader(r)
		if err != nil {
			return ArrayProperty{}, errors.Wrap(err, "failed to read array struct header")
		}
		start, err := position(r)
		if err != nil {
			return ArrayProperty{}, err
		}

		result.StructHeader = &header
		result.Items, err = ue.ReadElements[PropertyValue](r, count, func(io.Reader) (PropertyValue, error) {
			data, err := readStructData(r, state, header.StructType)
			if err != nil {
				return nil, err
			}
			return StructProperty{StructType: header.StructType, GUID: header.GUID, Value: data}, nil
		})
		if err != nil {
			return ArrayProperty{}, err
		}

		err = state.checkSize(r, start, int64(header.Size), "array of "+header.StructType.String())
		if err != nil {
			return ArrayProperty{}, err
		}
		return result, nil
	}

	// the element tag is fixed for the whole array
	err = checkElementType(r, elementType)
	if err != nil {
		return ArrayProperty{}, err
	}
	result.Items, err = ue.ReadElements[PropertyValue](r, count, func(io.Reader) (PropertyValue, error) {
		return readPropertyValue(r, state, elementType, false)
	})
	if err != nil {
		return ArrayProperty{}, err
	}

	return result, nil
}

func readSetProperty(r io.ReadSeeker, state *decodeState) (SetProperty, error) {
	elementType, err := ue.ReadString(r)
	if err != nil {
		return SetProperty{}, err
	}
	err = readTagEnd(r, state, true)
	if err != nil {
		return SetProperty{}, err
	}

	mode, err := memory.ReadInt[int32](r)
	if err != nil {
		return SetProperty{}, err
	}
	err = checkElementType(r, elementType)
	if err != nil {
		return SetProperty{}, err
	}

	items, err := ue.ReadArray[PropertyValue, int32](r, func(io.Reader) (PropertyValue, error) {
		return readPropertyValue(r, state, elementType, false)
	})
	if err != nil {
		return SetProperty{}, err
	}

	return SetProperty{
		ElementType: elementType,
		Mode:        mode,
		Items:       items,
	}, nil
}

func readMapProperty(r io.ReadSeeker, state *decodeState) (MapProperty, error) {
	result := MapProperty{}

	var err error

	result.KeyType, err = ue.ReadString(r)
	if err != nil {
		return result, errors.Wrap(err, "readMapProperty")
	}

	result.ValueType, err = ue.ReadString(r)
	if err != nil {
		return result, errors.Wrap(err, "readMapProperty")
	}

	err = readTagEnd(r, state, true)
	if err != nil {
		return result, errors.Wrap(err, "readMapProperty")
	}

	result.Mode, err = memory.ReadInt[int32](r)
	if err != nil {
		return result, errors.Wrap(err, "readMapProperty")
	}

	for _, elementType := range []ue.String{result.KeyType, result.ValueType} {
		err = checkElementType(r, elementType)
		if err != nil {
			return result, errors.Wrap(err, "readMapProperty")
		}
	}

	result.Values, err = ue.ReadMap[PropertyValue, PropertyValue](r,
		func(io.Reader) (PropertyValue, error) {
			return readPropertyValue(r, state, result.KeyType, false)
		},
		func(io.Reader) (PropertyValue, error) {
			return readPropertyValue(r, state, result.ValueType, false)
		},
	)
	if err != nil {
		return result, errors.Wrap(err, "readMapProperty")
	}

	return result, nil
}

func readStructProperty(r io.ReadSeeker, state *decodeState, tagged bool) (StructProperty, error) {
	if !tagged {
		// elements of sets and maps carry no struct type, only a property list
		properties, err := readProperties(r, state)
		if err != nil {
			return StructProperty{}, err
		}
		return StructProperty{Value: properties}, nil
	}

	structType, err := ue.ReadString(r)
	if err != nil {
		return StructProperty{}, err
	}

	// 17 bytes: GUID + flag
	guid, err := ue.ReadGuid(r)
	if err != nil {
		return StructProperty{}, err
	}
	flag, err := memory.ReadInt[uint8](r)
	if err != nil {
		return StructProperty{}, err
	}
	err = state.markValue(r)
	if err != nil {
		return StructProperty{}, err
	}

	data, err := readStructData(r, state, structType)
	if err != nil {
		return StructProperty{}, errors.Wrapf(err, "struct %s", structType)
	}

	return StructProperty{
		StructType: structType,
		GUID:       guid,
		Flag:       flag,
		Value:      data,
	}, nil
}

func nestedContainerError(r io.Reader, propertyType ue.String) error {
	return memory.Errorf(r, memory.ErrUnknownTag, "%s cannot be a container element", propertyType)
}

// elementTypes are the property types readPropertyValue accepts untagged.
var elementTypes = map[string]bool{
	"StructProperty":     true,
	"BoolProperty":       true,
	"ByteProperty":       true,
	"EnumProperty":       true,
	"IntProperty":        true,
	"Int8Property":       true,
	"Int64Property":      true,
	"UInt32Property":     true,
	"UInt64Property":     true,
	"FloatProperty":      true,
	"DoubleProperty":     true,
	"StrProperty":        true,
	"NameProperty":       true,
	"ObjectProperty":     true,
	"InterfaceProperty":  true,
	"SoftObjectProperty": true,
	"TextProperty":       true,
}

// checkElementType rejects a container element tag before any element is
// read, so an empty container with a bad tag still fails.
func checkElementType(r io.Reader, elementType ue.String) error {
	switch elementType.String() {
	case "ArrayProperty", "SetProperty", "MapProperty":
		return nestedContainerError(r, elementType)
	}
	if !elementTypes[elementType.String()] {
		return memory.Errorf(r, memory.ErrUnknownTag, "element type %q is not supported", elementType.String())
	}
	return nil
}

// readPropertyValue decodes the payload selected by propertyType. Tagged
// payloads follow a property tag; untagged ones are container elements.
func readPropertyValue(r io.ReadSeeker, state *decodeState, propertyType ue.String, tagged bool) (PropertyValue, error) {
	switch propertyType.String() {
	case "ArrayProperty":
		if !tagged {
			return nil, nestedContainerError(r, propertyType)
		}
		return readArrayProperty(r, state)

	case "SetProperty":
		if !tagged {
			return nil, nestedContainerError(r, propertyType)
		}
		return readSetProperty(r, state)

	case "MapProperty":
		if !tagged {
			return nil, nestedContainerError(r, propertyType)
		}
		return readMapProperty(r, state)

	case "StructProperty":
		return readStructProperty(r, state, tagged)

	case "BoolProperty":
		return readBoolProperty(r, state, tagged)

	case "ByteProperty":
		return readByteProperty(r, state, tagged)

	case "EnumProperty":
		return readEnumProperty(r, state, tagged)

	case "IntProperty":
		value, err := readNumProperty[int32](r, state, tagged)
		return IntProperty(value), err

	case "Int8Property":
		value, err := readNumProperty[int8](r, state, tagged)
		return Int8Property(value), err

	case "Int64Property":
		value, err := readNumProperty[int64](r, state, tagged)
		return Int64Property(value), err

	case "UInt32Property":
		value, err := readNumProperty[uint32](r, state, tagged)
		return UInt32Property(value), err

	case "UInt64Property":
		value, err := readNumProperty[uint64](r, state, tagged)
		return UInt64Property(value), err

	case "FloatProperty":
		value, err := readNumProperty[float32](r, state, tagged)
		return FloatProperty(value), err

	case "DoubleProperty":
		value, err := readNumProperty[float64](r, state, tagged)
		return DoubleProperty(value), err

	case "StrProperty":
		value, err := readStrProperty(r, state, tagged)
		return StrProperty(value), err

	case "NameProperty":
		value, err := readStrProperty(r, state, tagged)
		return NameProperty(value), err

	case "ObjectProperty":
		value, err := readObjectProperty(r, state, tagged)
		return ObjectProperty(value), err

	case "InterfaceProperty":
		value, err := readObjectProperty(r, state, tagged)
		return InterfaceProperty(value), err

	case "SoftObjectProperty":
		return readSoftObjectProperty(r, state, tagged)

	case "TextProperty":
		return readTextProperty(r, state, tagged)

	default:
		return nil, memory.Errorf(r, memory.ErrUnknownTag, "property type %q is not supported", propertyType.String())
	}
}

func readProperty(r io.ReadSeeker, state *decodeState) (*Property, error) {
	name, err := ue.ReadString(r)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read property name")
	}

	if name.Equal("None") {
		return nil, nil
	}

	propertyType, err := ue.ReadString(r)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read type of property %s", name)
	}

	size, err := memory.ReadInt[int32](r)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read size of property %s", name)
	}

	index, err := memory.ReadInt[int32](r)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read index of property %s", name)
	}

	// nested properties overwrite valueStart, so keep ours on the stack
	outer := state.valueStart
	state.valueStart = -1
	value, err := readPropertyValue(r, state, propertyType, true)
	valueStart := state.valueStart
	state.valueStart = outer
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read property %s (%s, %d bytes)", name, propertyType, size)
	}

	if valueStart >= 0 {
		err = state.checkSize(r, valueStart, int64(size), "property "+name.String())
		if err != nil {
			return nil, err
		}
	}

	return &Property{
		Name:  name,
		Type:  propertyType,
		Size:  size,
		Index: index,
		Value: value,
	}, nil
}

func readProperties(r io.ReadSeeker, state *decodeState) (PropertyList, error) {
	err := state.enter(r)
	if err != nil {
		return nil, err
	}
	defer state.leave()

	result := PropertyList{}
	for {
		property, err := readProperty(r, state)
		if err != nil {
			return nil, err
		}
		if property == nil {
			break
		}
		result = append(result, *property)
	}

	return result, nil
}
