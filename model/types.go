package model

import "fmt"

// Type is the kind of value held by a FieldValue.
// Types sharing a comparison group are declared together, in the order
// the backend sorts them. New types must be inserted at their group's
// position, not appended.
type Type byte

const (
	TypeNull Type = iota
	TypeBoolean
	TypeInteger // number group starts here
	TypeDouble
	TypeTimestamp // timestamp group starts here
	TypeServerTimestamp
	TypeString
	TypeBlob
	TypeReference
	TypeGeoPoint
	TypeArray
	TypeObject
)

// String returns the type name
func (t Type) String() string {
	switch t {
	case TypeNull:
		return "null"
	case TypeBoolean:
		return "boolean"
	case TypeInteger:
		return "integer"
	case TypeDouble:
		return "double"
	case TypeTimestamp:
		return "timestamp"
	case TypeServerTimestamp:
		return "server_timestamp"
	case TypeString:
		return "string"
	case TypeBlob:
		return "blob"
	case TypeReference:
		return "reference"
	case TypeGeoPoint:
		return "geo_point"
	case TypeArray:
		return "array"
	case TypeObject:
		return "object"
	default:
		return fmt.Sprintf("type(%d)", byte(t))
	}
}

// TypeOrder is the rank of a comparison group.
type TypeOrder byte

const (
	OrderNull TypeOrder = iota
	OrderBoolean
	OrderNumber
	OrderTimestamp
	OrderString
	OrderBlob
	OrderReference
	OrderGeoPoint
	OrderArray
	OrderObject
)

var typeOrders = [...]TypeOrder{
	TypeNull:            OrderNull,
	TypeBoolean:         OrderBoolean,
	TypeInteger:         OrderNumber,
	TypeDouble:          OrderNumber,
	TypeTimestamp:       OrderTimestamp,
	TypeServerTimestamp: OrderTimestamp,
	TypeString:          OrderString,
	TypeBlob:            OrderBlob,
	TypeReference:       OrderReference,
	TypeGeoPoint:        OrderGeoPoint,
	TypeArray:           OrderArray,
	TypeObject:          OrderObject,
}

// Order returns the comparison group rank of the type.
func (t Type) Order() TypeOrder {
	if int(t) >= len(typeOrders) {
		panic(fmt.Sprintf("unknown value type: %d", byte(t)))
	}
	return typeOrders[t]
}

// String returns the group name
func (o TypeOrder) String() string {
	switch o {
	case OrderNull:
		return "null"
	case OrderBoolean:
		return "boolean"
	case OrderNumber:
		return "number"
	case OrderTimestamp:
		return "timestamp"
	case OrderString:
		return "string"
	case OrderBlob:
		return "blob"
	case OrderReference:
		return "reference"
	case OrderGeoPoint:
		return "geo_point"
	case OrderArray:
		return "array"
	case OrderObject:
		return "object"
	default:
		return fmt.Sprintf("order(%d)", byte(o))
	}
}

// IsNumber reports whether the type belongs to the number group
func (t Type) IsNumber() bool {
	return t == TypeInteger || t == TypeDouble
}

// IsTimestamp reports whether the type belongs to the timestamp group
func (t Type) IsTimestamp() bool {
	return t == TypeTimestamp || t == TypeServerTimestamp
}
