package satisfactory

import (
	"io"

	"github.com/backwardspy/satisfactory-sav-parser/memory"
	"github.com/backwardspy/satisfactory-sav-parser/ue"
)

// StructData is the decoded body of a StructProperty: one of the built-in
// shapes below, or a PropertyList for every other struct type.
type StructData interface {
	isStructData()
}

type (
	Box         ue.FBox
	Vector      ue.FVector
	Rotator     ue.FVector
	Vector2D    ue.FVector2D
	Quat        ue.FQuat
	LinearColor ue.FLinearColor
	Color       ue.FColor
	IntPoint    ue.FIntPoint
	Guid        ue.FGuid
	// DateTime is in 100ns ticks since 0001-01-01.
	DateTime int64
	FluidBox float32
)

type InventoryItem struct {
	Padding  int32
	ItemName ue.String
	State    ue.ObjectReference
}

type RailroadTrackPosition struct {
	Track   ue.ObjectReference
	Offset  float32
	Forward float32
}

func (Box) isStructData()                   {}
func (Vector) isStructData()                {}
func (Rotator) isStructData()               {}
func (Vector2D) isStructData()              {}
func (Quat) isStructData()                  {}
func (LinearColor) isStructData()           {}
func (Color) isStructData()                 {}
func (IntPoint) isStructData()              {}
func (Guid) isStructData()                  {}
func (DateTime) isStructData()              {}
func (FluidBox) isStructData()              {}
func (InventoryItem) isStructData()         {}
func (RailroadTrackPosition) isStructData() {}
func (PropertyList) isStructData()          {}

func (g Guid) MarshalText() ([]byte, error) {
	return ue.FGuid(g).MarshalText()
}

func readInventoryItem(r io.Reader) (InventoryItem, error) {
	var item InventoryItem
	var err error

	item.Padding, err = memory.ReadInt[int32](r)
	if err != nil {
		return item, err
	}
	item.ItemName, err = ue.ReadString(r)
	if err != nil {
		return item, err
	}
	item.State, err = ue.ReadObjectReference(r)
	if err != nil {
		return item, err
	}

	return item, nil
}

func readRailroadTrackPosition(r io.Reader) (RailroadTrackPosition, error) {
	var position RailroadTrackPosition
	var err error

	position.Track, err = ue.ReadObjectReference(r)
	if err != nil {
		return position, err
	}
	position.Offset, err = memory.ReadInt[float32](r)
	if err != nil {
		return position, err
	}
	position.Forward, err = memory.ReadInt[float32](r)
	if err != nil {
		return position, err
	}

	return position, nil
}

// readStructData picks the struct shape by name. Unknown struct types are
// plain property lists.
func readStructData(r io.ReadSeeker, state *decodeState, structType ue.String) (StructData, error) {
	switch structType.String() {
	case "Box":
		value, err := ue.ReadFBox(r)
		return Box(value), err

	case "Vector":
		value, err := ue.ReadFVector(r)
		return Vector(value), err

	case "Rotator":
		value, err := ue.ReadFVector(r)
		return Rotator(value), err

	case "Vector2D":
		value, err := ue.ReadFVector2D(r)
		return Vector2D(value), err

	case "Quat":
		value, err := ue.ReadFQuat(r)
		return Quat(value), err

	case "LinearColor":
		value, err := ue.ReadFLinearColor(r)
		return LinearColor(value), err

	case "Color":
		value, err := ue.ReadFColor(r)
		return Color(value), err

	case "IntPoint":
		value, err := ue.ReadFIntPoint(r)
		return IntPoint(value), err

	case "Guid":
		value, err := ue.ReadGuid(r)
		return Guid(value), err

	case "DateTime":
		value, err := memory.ReadInt[int64](r)
		return DateTime(value), err

	case "FluidBox":
		value, err := memory.ReadInt[float32](r)
		return FluidBox(value), err

	case "InventoryItem":
		return readInventoryItem(r)

	case "RailroadTrackPosition":
		return readRailroadTrackPosition(r)

	default:
		return readProperties(r, state)
	}
}
