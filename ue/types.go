package ue

import (
	"encoding/hex"
	"io"

	"github.com/backwardspy/satisfactory-sav-parser/memory"
)

// ObjectReference points at an object by level and path name.
type ObjectReference struct {
	LevelName String
	PathName  String
}

func ReadObjectReference(r io.Reader) (ObjectReference, error) {
	levelName, err := ReadString(r)
	if err != nil {
		return ObjectReference{}, err
	}
	pathName, err := ReadString(r)
	if err != nil {
		return ObjectReference{}, err
	}
	return ObjectReference{LevelName: levelName, PathName: pathName}, nil
}

type FGuid [16]byte

func (g FGuid) String() string {
	return hex.EncodeToString(g[:])
}

func (g FGuid) MarshalText() ([]byte, error) {
	return []byte(g.String()), nil
}

func ReadGuid(r io.Reader) (FGuid, error) {
	var guid FGuid
	err := memory.ReadFixed(r, &guid)
	return guid, err
}

type FVector struct {
	X, Y, Z float32
}

type FVector2D struct {
	X, Y float32
}

type FQuat struct {
	X, Y, Z, W float32
}

type FLinearColor struct {
	R, G, B, A float32
}

// FColor is stored blue first.
type FColor struct {
	B, G, R, A uint8
}

type FIntPoint struct {
	X, Y int32
}

type FTransform struct {
	Rotation    FQuat
	Translation FVector
	Scale       FVector
}

type FBox struct {
	Min     FVector
	Max     FVector
	IsValid bool
}

func ReadFVector(r io.Reader) (FVector, error) {
	var v FVector
	err := memory.ReadFixed(r, &v)
	return v, err
}

func ReadFVector2D(r io.Reader) (FVector2D, error) {
	var v FVector2D
	err := memory.ReadFixed(r, &v)
	return v, err
}

func ReadFQuat(r io.Reader) (FQuat, error) {
	var q FQuat
	err := memory.ReadFixed(r, &q)
	return q, err
}

func ReadFLinearColor(r io.Reader) (FLinearColor, error) {
	var c FLinearColor
	err := memory.ReadFixed(r, &c)
	return c, err
}

func ReadFColor(r io.Reader) (FColor, error) {
	var c FColor
	err := memory.ReadFixed(r, &c)
	return c, err
}

func ReadFIntPoint(r io.Reader) (FIntPoint, error) {
	var p FIntPoint
	err := memory.ReadFixed(r, &p)
	return p, err
}

func ReadFTransform(r io.Reader) (FTransform, error) {
	var t FTransform
	err := memory.ReadFixed(r, &t)
	return t, err
}

func ReadFBox(r io.Reader) (FBox, error) {
	lower, err := ReadFVector(r)
	if err != nil {
		return FBox{}, err
	}
	upper, err := ReadFVector(r)
	if err != nil {
		return FBox{}, err
	}
	isValid, err := memory.ReadInt[uint8](r)
	if err != nil {
		return FBox{}, err
	}
	return FBox{Min: lower, Max: upper, IsValid: memory.Bool(int32(isValid))}, nil
}
